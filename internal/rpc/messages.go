package rpc

import (
	"github.com/mmynk/esplit/internal/calculator"
	"github.com/mmynk/esplit/internal/models"
)

// GroupService messages.

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type CreateGroupResponse struct {
	Group *models.Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group *models.Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*models.Group `json:"groups"`
}

type UpdateGroupRequest struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
}

type UpdateGroupResponse struct {
	Group *models.Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id"`
}

type DeleteGroupResponse struct{}

type AddParticipantRequest struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
	// Color defaults to the palette color for the participant's roster position.
	Color string `json:"color,omitempty"`
	Email string `json:"email,omitempty"`
}

type AddParticipantResponse struct {
	Participant *models.Participant `json:"participant"`
}

type RemoveParticipantRequest struct {
	GroupID       string               `json:"group_id"`
	ParticipantID models.ParticipantID `json:"participant_id"`
}

type RemoveParticipantResponse struct{}

// LedgerService messages.

// ExpenseInput describes an expense to add or the new state of one being edited.
type ExpenseInput struct {
	Description string               `json:"description"`
	Amount      float64              `json:"amount"`
	Date        string               `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
	Category    string               `json:"category,omitempty"`
	PaidBy      models.ParticipantID `json:"paid_by"`

	// SplitType is "equal" (default) or "exact".
	SplitType calculator.SplitType `json:"split_type,omitempty"`

	// SplitAmong lists who shares the expense.
	SplitAmong []models.ParticipantID `json:"split_among"`

	// ExactShares is read for exact splits only.
	ExactShares map[models.ParticipantID]float64 `json:"exact_shares,omitempty"`
}

type AddExpenseRequest struct {
	GroupID string       `json:"group_id"`
	Expense ExpenseInput `json:"expense"`
}

type AddExpenseResponse struct {
	Transaction *models.Transaction `json:"transaction"`
}

type EditExpenseRequest struct {
	TransactionID models.TransactionID `json:"transaction_id"`
	Expense       ExpenseInput         `json:"expense"`
}

type EditExpenseResponse struct {
	Transaction *models.Transaction  `json:"transaction"`
	SplitType   calculator.SplitType `json:"split_type"`
}

// DeleteExpenseRequest deletes an expense or a settlement.
type DeleteExpenseRequest struct {
	TransactionID models.TransactionID `json:"transaction_id"`
}

type DeleteExpenseResponse struct{}

type RecordPaymentRequest struct {
	GroupID string               `json:"group_id"`
	From    models.ParticipantID `json:"from"`
	To      models.ParticipantID `json:"to"`
	Amount  float64              `json:"amount"`
	Date    string               `json:"date,omitempty"`
	Note    string               `json:"note,omitempty"`
}

type RecordPaymentResponse struct {
	Transaction *models.Transaction `json:"transaction"`
}

type ListTransactionsRequest struct {
	GroupID string `json:"group_id"`
}

type ListTransactionsResponse struct {
	Transactions []LedgerEntry `json:"transactions"`
}

// LedgerEntry is a transaction as listed to clients. SplitType is how the
// shares look, so an edit form can start in the right mode; it is empty for
// settlements.
type LedgerEntry struct {
	models.Transaction
	SplitType calculator.SplitType `json:"split_type,omitempty"`
}

type GetBalancesRequest struct {
	GroupID string `json:"group_id"`
}

// ParticipantBalance is one row of the balances table.
type ParticipantBalance struct {
	Participant models.Participant `json:"participant"`
	Paid        float64            `json:"paid"`
	Share       float64            `json:"share"`
	// Balance is Paid - Share. Positive = is owed, negative = owes.
	Balance float64 `json:"balance"`
}

type GetBalancesResponse struct {
	Balances         []ParticipantBalance  `json:"balances"`
	Settlements      []calculator.Transfer `json:"settlements"`
	TotalExpenses    float64               `json:"total_expenses"`
	ActiveCount      int                   `json:"active_count"`
	AveragePerActive float64               `json:"average_per_active"`
	Settled          bool                  `json:"settled"`
}

type GetAnalyticsRequest struct {
	GroupID string `json:"group_id"`
}

type GetAnalyticsResponse struct {
	Summary calculator.Summary `json:"summary"`
}

type ListActivityRequest struct {
	GroupID string `json:"group_id"`
	// Limit caps the number of entries returned; 0 means all.
	Limit int `json:"limit,omitempty"`
}

type ListActivityResponse struct {
	Activities []*models.Activity `json:"activities"`
}

type UndoActivityRequest struct {
	ActivityID string `json:"activity_id"`
}

type UndoActivityResponse struct {
	// Undone is the activity that was reverted and removed from the log.
	Undone *models.Activity `json:"undone"`
}
