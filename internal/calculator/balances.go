// Package calculator holds the ledger math: balances, settlement plans, active
// participants, split building, and spending summaries.
//
// Everything here is a pure function over plain data. Nothing blocks, nothing
// is cached, and every call is safe to run concurrently.
package calculator

import (
	"sort"

	"github.com/mmynk/esplit/internal/models"
)

// Epsilon is the tolerance, one cent, used wherever an amount is compared to zero.
const Epsilon = 0.01

// Balances is the result of CalculateBalances.
type Balances struct {
	// Balances is TotalPaid - TotalShare. Positive = owed money, Negative = owes money.
	Balances map[models.ParticipantID]float64

	// TotalPaid is what each participant paid, settlements included.
	TotalPaid map[models.ParticipantID]float64

	// TotalShare is what each participant owes, received settlements included.
	TotalShare map[models.ParticipantID]float64
}

// CalculateBalances computes paid, share and net balance per participant.
//
// Algorithm:
// - Every roster id starts at zero
// - For each expense: payer gets +amount paid, each share key gets +share owed
// - For each settlement: payer gets +amount paid, receiver gets +amount owed
// - net balance = total paid - total share, for every id ever touched
//
// Ids missing from the roster are added on first sight. The result does not
// depend on transaction order.
func CalculateBalances(txns []models.Transaction, participants []models.Participant) Balances {
	b := Balances{
		Balances:   make(map[models.ParticipantID]float64, len(participants)),
		TotalPaid:  make(map[models.ParticipantID]float64, len(participants)),
		TotalShare: make(map[models.ParticipantID]float64, len(participants)),
	}

	for _, p := range participants {
		b.touch(p.ID)
	}

	for _, txn := range txns {
		if txn.IsSettlement {
			b.touch(txn.PaidBy)
			b.touch(txn.PaidTo)
			b.TotalPaid[txn.PaidBy] += txn.Amount
			b.TotalShare[txn.PaidTo] += txn.Amount
			continue
		}

		b.touch(txn.PaidBy)
		b.TotalPaid[txn.PaidBy] += txn.Amount

		// A nil map is an empty distribution.
		for id, share := range txn.Shares {
			b.touch(id)
			b.TotalShare[id] += share
		}
	}

	for id, paid := range b.TotalPaid {
		b.Balances[id] = paid - b.TotalShare[id]
	}

	return b
}

// touch zero-initializes id in all three maps if it has not been seen.
func (b Balances) touch(id models.ParticipantID) {
	if _, ok := b.TotalPaid[id]; ok {
		return
	}
	b.TotalPaid[id] = 0
	b.TotalShare[id] = 0
	b.Balances[id] = 0
}

// IDs lists the roster in order, then every other id the balances touched,
// sorted. Reports use it so removed or unlisted participants still get a row.
func (b Balances) IDs(participants []models.Participant) []models.ParticipantID {
	ids := make([]models.ParticipantID, 0, len(b.Balances))
	onRoster := make(map[models.ParticipantID]bool, len(participants))
	for _, p := range participants {
		ids = append(ids, p.ID)
		onRoster[p.ID] = true
	}

	var strays []models.ParticipantID
	for id := range b.Balances {
		if !onRoster[id] {
			strays = append(strays, id)
		}
	}
	sort.Slice(strays, func(i, j int) bool { return strays[i] < strays[j] })
	return append(ids, strays...)
}

// Sum returns the sum of all net balances. It is ~0 for well-formed ledgers.
func (b Balances) Sum() float64 {
	var sum float64
	for _, v := range b.Balances {
		sum += v
	}
	return sum
}

// IsSettled reports whether every balance is within Epsilon of zero.
func (b Balances) IsSettled() bool {
	for _, v := range b.Balances {
		if v < -Epsilon || v > Epsilon {
			return false
		}
	}
	return true
}
