package ports

import (
	"context"
	"time"
)

// AuditEvent is a fire-and-forget notification about a credential decision.
type AuditEvent struct {
	Type      string    `json:"type"`
	SubjectID string    `json:"subject_id,omitempty"`
	VideoID   string    `json:"video_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}

// Event types published by the services.
const (
	EventLogin           = "auth.login"
	EventLogout          = "auth.logout"
	EventLogoutAll       = "auth.logout_all"
	EventTicketIssued    = "stream.ticket_issued"
	EventBindingMismatch = "stream.binding_mismatch"
)

// EventPublisher publishes audit events to notify other instances. Publish
// failures must never fail the request that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, event AuditEvent) error
}
