package calculator

import (
	"fmt"
	"strings"

	"github.com/mmynk/esplit/internal/models"
)

// DescribeExpense formats the activity log line for an expense change.
func DescribeExpense(action string, txn models.Transaction) string {
	switch action {
	case models.ActionAdded:
		return fmt.Sprintf("Added '%s' expense ($%.2f)", txn.Description, txn.Amount)
	case models.ActionEdited:
		return fmt.Sprintf("Edited '%s' expense", txn.Description)
	case models.ActionDeleted:
		return fmt.Sprintf("Deleted '%s' expense ($%.2f)", txn.Description, txn.Amount)
	}
	return fmt.Sprintf("%s expense", action)
}

// DescribeParticipant formats the activity log line for a roster change.
func DescribeParticipant(action string, p models.Participant) string {
	switch action {
	case models.ActionAdded:
		return fmt.Sprintf("Added participant '%s'", p.Name)
	case models.ActionDeleted:
		return fmt.Sprintf("Removed participant '%s'", p.Name)
	}
	return fmt.Sprintf("%s participant", action)
}

// DescribePayment formats the activity log line for a recorded settlement.
func DescribePayment(from, to models.Participant, amount float64) string {
	return fmt.Sprintf("Recorded payment: %s paid %s $%.2f", from.Name, to.Name, amount)
}

// DescribeDeletedPayment formats the activity log line for a removed settlement.
func DescribeDeletedPayment(from, to models.Participant, amount float64) string {
	return fmt.Sprintf("Deleted payment: %s paid %s $%.2f", from.Name, to.Name, amount)
}

// ActorName picks the name shown in the activity log: the display name, else
// the local part of the email, else "Someone".
func ActorName(displayName, email string) string {
	if name := strings.TrimSpace(displayName); name != "" {
		return name
	}
	if email != "" {
		return strings.SplitN(email, "@", 2)[0]
	}
	return "Someone"
}
