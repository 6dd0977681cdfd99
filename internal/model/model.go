// Package model defines the domain types used across the application.
package model

import "time"

// Event is a single inbound notification delivered by an event source.
type Event struct {
	SourceID        string
	Title           *string
	Content         *string
	OriginalEventID int
	// Key identifies the original notification for dismissal.
	Key          string
	Icon         []byte
	ActionHandle string
}

// LogEntry is an accepted notification recorded in the notification log.
// Entries are never modified after creation.
type LogEntry struct {
	ID              string
	SourceID        string
	SenderLabel     string
	MessageText     string
	OriginalEventID int
	CreatedAt       time.Time
}

// FilterConfig is a snapshot of the user's filtering rules.
type FilterConfig struct {
	AllowedSources  []string
	BlockedKeywords []string
	DismissOriginal bool
}

// Notification is an outbound notification handed to a poster.
type Notification struct {
	ID       int
	GroupKey string
	// Conversation is the conversation title; empty for summaries.
	Conversation string
	Title        string
	Body         string
	Icon         []byte
	ActionHandle string
	IsSummary    bool
}
