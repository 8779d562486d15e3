package models

import "fmt"

// NewSettlement builds a settlement transaction recording that from paid to.
// The shares map mirrors the payment so generic share scans see the receiver.
func NewSettlement(groupID string, from, to Participant, amount float64, date, note string) Transaction {
	description := note
	if description == "" {
		description = fmt.Sprintf("Settlement: %s paid %s", from.Name, to.Name)
	}
	return Transaction{
		GroupID:      groupID,
		Date:         date,
		Description:  description,
		Amount:       amount,
		Category:     SettlementCategory,
		IsSettlement: true,
		PaidBy:       from.ID,
		PaidTo:       to.ID,
		Shares:       map[ParticipantID]float64{to.ID: amount},
	}
}
