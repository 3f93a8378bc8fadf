package models

import (
	"fmt"
	"time"
)

// Action is the kind of change a history entry records.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Table names the entity a history entry is about.
type Table string

const (
	TableParticipants Table = "participants"
	TableDues         Table = "cotisations"
)

// HistoryEntry is one row of the append-only audit log.
// Entries are written as a side effect of every mutation and never changed.
type HistoryEntry struct {
	// ID is assigned by the store.
	ID int64

	// OccurredAt is when the change was made.
	OccurredAt time.Time

	// Actor is the username that made the change.
	Actor string

	// Action is CREATE, UPDATE or DELETE.
	Action Action

	// Table is the entity kind affected.
	Table Table

	// RecordID is the ID of the affected record.
	// For allocations that create several dues it is the first due's ID.
	RecordID int64

	// Detail is a human-readable description.
	// Entries about dues embed "[participant_id=<id>]" so they can be found per participant.
	Detail string

	// Before is the state prior to the change (nil for CREATE).
	Before map[string]any

	// After is the state following the change (nil for DELETE).
	After map[string]any
}

// ParticipantTag is the marker embedded in due history details so that
// entries can be found per participant.
func ParticipantTag(participantID int64) string {
	return fmt.Sprintf("[participant_id=%d]", participantID)
}
