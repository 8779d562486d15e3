package calculator

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/mmynk/esplit/internal/models"
)

// SplitType says how an expense amount is divided among its participants.
type SplitType string

const (
	// SplitEqual divides the amount evenly.
	SplitEqual SplitType = "equal"
	// SplitExact uses caller-provided amounts that must add up to the total.
	SplitExact SplitType = "exact"
)

var (
	ErrNoParticipants   = errors.New("must have at least one participant")
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrNegativeShare    = errors.New("shares cannot be negative")
	ErrSharesMismatch   = errors.New("shares must add up to the amount")
	ErrUnknownSplitType = errors.New("unknown split type")
)

// CalculateShares builds the shares map for a new expense.
//
// For SplitEqual the amount is divided in whole cents and leftover cents go,
// one each, to the first participants in the order given, so the shares always
// add up to amount exactly. Amounts with fractions of a cent are rejected
// with ErrInvalidAmount; callers round with RoundCents first. For SplitExact each participant's share is read
// from exact (missing = 0) and the total must match amount within Epsilon.
func CalculateShares(splitType SplitType, amount float64, participantIDs []models.ParticipantID, exact map[models.ParticipantID]float64) (map[models.ParticipantID]float64, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !WholeCents(amount) {
		return nil, fmt.Errorf("%w: %v has fractions of a cent", ErrInvalidAmount, amount)
	}
	if len(participantIDs) == 0 {
		return nil, ErrNoParticipants
	}

	switch splitType {
	case SplitEqual, "":
		return equalShares(amount, participantIDs), nil
	case SplitExact:
		return exactShares(amount, participantIDs, exact)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSplitType, splitType)
	}
}

func equalShares(amount float64, participantIDs []models.ParticipantID) map[models.ParticipantID]float64 {
	total := cents(amount)
	n := decimal.NewFromInt(int64(len(participantIDs)))
	base := total.Div(n).Floor()
	remainder := total.Sub(base.Mul(n)).IntPart()

	shares := make(map[models.ParticipantID]float64, len(participantIDs))
	for i, id := range participantIDs {
		c := base
		if int64(i) < remainder {
			c = c.Add(decimal.NewFromInt(1))
		}
		// A participant listed twice gets both portions.
		shares[id] += fromCents(c)
	}
	return shares
}

func exactShares(amount float64, participantIDs []models.ParticipantID, exact map[models.ParticipantID]float64) (map[models.ParticipantID]float64, error) {
	shares := make(map[models.ParticipantID]float64, len(participantIDs))
	var sum float64
	for _, id := range participantIDs {
		if _, seen := shares[id]; seen {
			continue
		}
		share := exact[id]
		if share < 0 {
			return nil, ErrNegativeShare
		}
		shares[id] = share
		sum += share
	}

	if math.Abs(sum-amount) > Epsilon {
		return nil, fmt.Errorf("%w: shares total %.2f, amount %.2f", ErrSharesMismatch, sum, amount)
	}
	return shares, nil
}

// DetectSplitType reports SplitEqual when no two shares differ by more than one
// cent (the most an equal split's leftover distribution produces), SplitExact
// otherwise.
func DetectSplitType(shares map[models.ParticipantID]float64) SplitType {
	var lo, hi decimal.Decimal
	first := true
	for _, share := range shares {
		c := cents(share)
		if first {
			lo, hi, first = c, c, false
			continue
		}
		lo = decimal.Min(lo, c)
		hi = decimal.Max(hi, c)
	}
	if hi.Sub(lo).GreaterThan(decimal.NewFromInt(1)) {
		return SplitExact
	}
	return SplitEqual
}
