package models

// Audit actions
const (
	ActionCreated  = "Created"
	ActionUpdated  = "Updated"
	ActionCleared  = "Cleared"
	ActionArchived = "Archived"
	ActionDeleted  = "Deleted"
	ActionRestored = "Restored"
)

// Audit entity kinds
const (
	EntityCustomer = "Customer"
	EntityAsset    = "Asset"
	EntityUser     = "User"
	EntitySystem   = "System"
)

// AuditEntry is append-only except for admin purge.
type AuditEntry struct {
	ID         string `json:"id"`
	Action     string `json:"action"`
	EntityType string `json:"entityType"`
	EntityName string `json:"entityName"`
	UserID     string `json:"userId"` // actor technicianId
	UserName   string `json:"userName"`
	Timestamp  string `json:"timestamp"` // RFC3339
	Details    string `json:"details,omitempty"`
}

type Todo struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Completed  bool   `json:"completed"`
	CreatedAt  string `json:"createdAt"`
	CustomerID string `json:"customerId,omitempty"`
}
