package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SettlementCategory is the category assigned to every settlement.
const SettlementCategory = "settlement"

// TransactionID identifies a transaction. It decodes from either a JSON string
// or a JSON number.
type TransactionID string

// UnmarshalJSON accepts "abc", 12 and 12.0.
func (id *TransactionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid transaction id: %w", err)
		}
		*id = TransactionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid transaction id %s: %w", data, err)
	}
	if i, err := n.Int64(); err == nil {
		*id = TransactionID(fmt.Sprintf("%d", i))
		return nil
	}
	*id = TransactionID(n.String())
	return nil
}

// Transaction is either an expense or a settlement.
//
// For expenses, PaidBy paid Amount and Shares says how much of it each
// participant owes. For settlements, PaidBy paid PaidTo directly and Shares is
// {PaidTo: Amount}.
type Transaction struct {
	// ID is the unique identifier (UUID for service-created transactions).
	ID TransactionID `json:"id"`

	// GroupID is the group this transaction belongs to.
	GroupID string `json:"group_id,omitempty"`

	// Date is the calendar date of the transaction (YYYY-MM-DD).
	Date string `json:"date"`

	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`

	// IsSettlement discriminates payments from expenses.
	IsSettlement bool `json:"isSettlement"`

	// PaidBy is the payer: of the expense, or of the debt for settlements.
	PaidBy ParticipantID `json:"paidBy"`

	// PaidTo is the receiver of a settlement. Empty for expenses.
	PaidTo ParticipantID `json:"paidTo,omitempty"`

	// Shares maps each participant to the amount of this transaction they owe.
	Shares map[ParticipantID]float64 `json:"shares"`

	// CreatedAt is the Unix timestamp when the transaction was recorded.
	CreatedAt int64 `json:"created_at,omitempty"`
}

// Kind returns "settlement" or "expense".
func (t Transaction) Kind() string {
	if t.IsSettlement {
		return "settlement"
	}
	return "expense"
}
