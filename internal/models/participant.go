package models

// ParticipantID identifies a participant within a group.
type ParticipantID string

// UnknownColor is the neutral gray used for placeholder participants.
const UnknownColor = "#9ca3af"

// Participant represents a person tracked in a group's ledger.
type Participant struct {
	// ID is unique within the group.
	ID ParticipantID `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Color is a CSS color used by clients to tell participants apart.
	Color string `json:"color"`

	// Email is optional.
	Email string `json:"email,omitempty"`

	// GroupID is the group this participant belongs to.
	GroupID string `json:"group_id,omitempty"`
}

// UnknownParticipant returns the placeholder used for ids that are not in a roster.
func UnknownParticipant(id ParticipantID) Participant {
	return Participant{ID: id, Name: "Unknown", Color: UnknownColor}
}

// Palette is the set of colors assigned to new participants by roster position.
var Palette = []string{
	"#6366f1", "#ec4899", "#f59e0b", "#10b981",
	"#3b82f6", "#8b5cf6", "#ef4444", "#14b8a6",
}

// PaletteColor returns the palette color for the n-th participant of a roster.
func PaletteColor(n int) string {
	if n < 0 {
		n = -n
	}
	return Palette[n%len(Palette)]
}
