package calculator

import (
	"math"
	"sort"

	"github.com/mmynk/esplit/internal/models"
)

// Transfer is one payment in a settlement plan.
type Transfer struct {
	From   models.Participant `json:"from"`   // Person who owes
	To     models.Participant `json:"to"`     // Person who is owed
	Amount float64            `json:"amount"` // Rounded to cents, always > 0
}

type position struct {
	who    models.Participant
	amount float64
}

// CalculateSettlements proposes transfers that zero out the given balances.
//
// Debtors (balance < -Epsilon) are matched against creditors (balance >
// Epsilon), largest first, each transfer paying the smaller of the two
// remaining amounts. Ids not in the roster are reported as UnknownParticipant.
// Ties keep the order in which they came out of the balances map.
func CalculateSettlements(balances map[models.ParticipantID]float64, participants []models.Participant) []Transfer {
	roster := make(map[models.ParticipantID]models.Participant, len(participants))
	for _, p := range participants {
		roster[p.ID] = p
	}

	var debtors, creditors []position
	for id, amount := range balances {
		if amount < -Epsilon {
			debtors = append(debtors, position{who: resolveParticipant(roster, id), amount: amount})
		} else if amount > Epsilon {
			creditors = append(creditors, position{who: resolveParticipant(roster, id), amount: amount})
		}
	}

	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].amount < debtors[j].amount })
	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })

	transfers := []Transfer{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		amount := -debtor.amount
		if creditor.amount < amount {
			amount = creditor.amount
		}

		transfers = append(transfers, Transfer{
			From:   debtor.who,
			To:     creditor.who,
			Amount: RoundCents(amount),
		})

		debtor.amount += amount
		creditor.amount -= amount

		if math.Abs(debtor.amount) < Epsilon {
			i++
		}
		if creditor.amount < Epsilon {
			j++
		}
	}

	return transfers
}

// resolveParticipant never fails: unknown ids get a placeholder.
func resolveParticipant(roster map[models.ParticipantID]models.Participant, id models.ParticipantID) models.Participant {
	if p, ok := roster[id]; ok {
		return p
	}
	return models.UnknownParticipant(id)
}
