package models

// Backup formats
const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

type DropboxSettings struct {
	Enabled       bool    `json:"enabled"`
	AccessToken   string  `json:"accessToken"`
	LastBackup    *string `json:"lastBackup"`
	AutoBackup    bool    `json:"autoBackup"`
	Format        string  `json:"format"`
	IntervalHours int     `json:"intervalHours"`
}

type SupabaseSettings struct {
	Enabled       bool    `json:"enabled"`
	URL           string  `json:"url"`
	APIKey        string  `json:"apiKey"`
	LastSync      *string `json:"lastSync"`
	AutoSync      bool    `json:"autoSync"`
	IntervalHours int     `json:"intervalHours"`
}

type VoiplySettings struct {
	Enabled    bool    `json:"enabled"`
	APIKey     string  `json:"apiKey"`
	FromNumber string  `json:"fromNumber"`
	LastRun    *string `json:"lastRun"`
}

type DeviceMagicSettings struct {
	Enabled bool    `json:"enabled"`
	APIKey  string  `json:"apiKey"`
	FormID  string  `json:"formId"`
	LastRun *string `json:"lastRun"`
}

// NotificationSettings holds FCM device tokens keyed by technicianId.
type NotificationSettings struct {
	Enabled      bool                `json:"enabled"`
	DeviceTokens map[string][]string `json:"deviceTokens"`
}

func DefaultDropboxSettings() *DropboxSettings {
	return &DropboxSettings{Format: FormatJSON, IntervalHours: 24}
}

func DefaultSupabaseSettings() *SupabaseSettings {
	return &SupabaseSettings{IntervalHours: 24}
}

func DefaultVoiplySettings() *VoiplySettings {
	return &VoiplySettings{}
}

func DefaultDeviceMagicSettings() *DeviceMagicSettings {
	return &DeviceMagicSettings{}
}

func DefaultNotificationSettings() *NotificationSettings {
	return &NotificationSettings{DeviceTokens: map[string][]string{}}
}
