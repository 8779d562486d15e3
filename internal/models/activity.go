package models

// Activity actions.
const (
	ActionAdded   = "added"
	ActionEdited  = "edited"
	ActionDeleted = "deleted"
)

// Activity target types.
const (
	TargetExpense     = "expense"
	TargetSettlement  = "settlement"
	TargetParticipant = "participant"
)

// Activity is one entry in a group's change log.
type Activity struct {
	// ID is the unique identifier for the activity (UUID format).
	ID string `json:"id"`

	GroupID string `json:"group_id"`

	// Timestamp is the Unix timestamp when the change happened.
	Timestamp int64 `json:"timestamp"`

	// Action is one of ActionAdded, ActionEdited, ActionDeleted.
	Action string `json:"action"`

	// ActorName is who made the change, for display only.
	ActorName string `json:"actor_name"`

	// TargetType is one of TargetExpense, TargetSettlement, TargetParticipant.
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`

	Description string `json:"description"`

	// Previous is the transaction as it was before an edit or delete.
	// Nil for additions and participant changes.
	Previous *Transaction `json:"previous,omitempty"`
}
