// Package backup pushes the snapshot to Dropbox and Supabase.
//
// Adapters are push-only and fire-and-forget: one call, one Result, no
// retry and no queue. The Service ties them to the local store and the
// Scheduler triggers them on an interval.
package backup

import (
	"context"
	"time"

	"firesafety-backend/internal/models"
)

// FailureKind classifies a failed push.
type FailureKind string

const (
	KindNone          FailureKind = ""
	KindAuth          FailureKind = "auth"    // bad or expired credential, user must re-enter it
	KindNetwork       FailureKind = "network" // transport failure, retry later
	KindBackend       FailureKind = "backend" // remote rejected the request, message is verbatim
	KindNotConfigured FailureKind = "not_configured"
	KindBusy          FailureKind = "busy"
)

// Result of one push.
type Result struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Kind    FailureKind `json:"kind,omitempty"`
	Path    string      `json:"path,omitempty"`
}

func ok(msg string) Result {
	return Result{Success: true, Message: msg}
}

func fail(kind FailureKind, msg string) Result {
	return Result{Message: msg, Kind: kind}
}

// PushRequest is what an adapter uploads.
type PushRequest struct {
	Snapshot     *models.AppData
	Format       string // models.FormatJSON or models.FormatXLSX
	TechnicianID string
	Time         time.Time
}

// Adapter is one remote backup destination.
type Adapter interface {
	Name() string
	// VerifyCredential makes a cheap authenticated call. false with a nil
	// error means the credential was rejected.
	VerifyCredential(ctx context.Context) (bool, error)
	Push(ctx context.Context, req PushRequest) Result
}
