package model

import "time"

// NotificationKind names what a notification announces.
type NotificationKind string

// Notification kinds.
const (
	KindMatch      NotificationKind = "match"
	KindSLAWarning NotificationKind = "sla_warning"
)

// Notification is a rendered message waiting for delivery.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	From      string           `json:"from"`
	To        string           `json:"to"`
	Subject   string           `json:"subject"`
	Body      string           `json:"body"`
	ProjectID int64            `json:"projectId,omitempty"`
	VendorID  int64            `json:"vendorId,omitempty"`
	MatchID   int64            `json:"matchId,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}
