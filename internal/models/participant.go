package models

import (
	"strings"
	"time"
)

// Participant represents a member of the association ("cotisant").
// The (Surname, GivenName) pair identifies a participant uniquely.
type Participant struct {
	// ID is assigned by the store on creation.
	ID int64

	// Surname is the family name ("nom").
	Surname string

	// GivenName is the first name ("prénom").
	GivenName string

	// ParcelCount is the number of parcels the participant owns.
	// Each parcel owes its own monthly due.
	ParcelCount int

	// Phone is an optional contact number, used for WhatsApp reminders.
	Phone string

	// Email is an optional contact address.
	Email string

	// CreatedAt is when the participant was first recorded.
	CreatedAt time.Time
}

// FullName returns "Surname GivenName", the order used in listings.
func (p *Participant) FullName() string {
	return strings.TrimSpace(p.Surname + " " + p.GivenName)
}

// Snapshot returns the fields recorded in history entries.
func (p *Participant) Snapshot() map[string]any {
	return map[string]any{
		"nom":             p.Surname,
		"prenom":          p.GivenName,
		"nombre_terrains": p.ParcelCount,
		"telephone":       p.Phone,
		"email":           p.Email,
	}
}
