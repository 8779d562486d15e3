package models

// Group is a named ledger shared by a set of participants.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Roommates", "Trip to Lisbon").
	Name string `json:"name"`

	// Participants is the group's roster, in the order they were added.
	// Only populated by calls that load the full group.
	Participants []Participant `json:"participants,omitempty"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"created_at"`
}
