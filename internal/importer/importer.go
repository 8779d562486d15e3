// Package importer reads offline ledgers exported from spreadsheets.
//
// Two JSON shapes are accepted: an object {"participants": [...], "expenses": [...]}
// and a bare array of expenses. Expense ids may be numbers or strings.
package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/mmynk/esplit/internal/models"
)

var (
	// ErrEmptyLedger is returned for input with no JSON value at all.
	ErrEmptyLedger = errors.New("empty ledger")

	// ErrUnsupportedFormat is returned when the top-level value is neither an object nor an array.
	ErrUnsupportedFormat = errors.New("ledger must be a JSON object or array")
)

// Ledger is an imported list of transactions and the people they mention.
type Ledger struct {
	Participants []models.Participant `json:"participants"`
	Expenses     []models.Transaction `json:"expenses"`
}

// ReadFile reads a ledger from path.
func ReadFile(path string) (*Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ledger, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ledger, nil
}

// Read decodes a ledger from r.
//
// When the input names no participants they are derived from payers, payees
// and share keys, in order of first appearance, with the id as the name.
func Read(r io.Reader) (*Ledger, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyLedger
	}

	var ledger Ledger
	switch data[0] {
	case '{':
		if err := json.Unmarshal(data, &ledger); err != nil {
			return nil, fmt.Errorf("decode ledger: %w", err)
		}
	case '[':
		if err := json.Unmarshal(data, &ledger.Expenses); err != nil {
			return nil, fmt.Errorf("decode expenses: %w", err)
		}
	default:
		return nil, ErrUnsupportedFormat
	}

	for i := range ledger.Expenses {
		normalize(&ledger.Expenses[i], i)
	}

	if len(ledger.Participants) == 0 {
		ledger.Participants = deriveParticipants(ledger.Expenses)
	}
	for i := range ledger.Participants {
		p := &ledger.Participants[i]
		if p.Name == "" {
			p.Name = string(p.ID)
		}
		if p.Color == "" {
			p.Color = models.PaletteColor(i)
		}
	}

	return &ledger, nil
}

// normalize fills what spreadsheet exports tend to leave out.
func normalize(txn *models.Transaction, index int) {
	if txn.ID == "" {
		txn.ID = models.TransactionID(fmt.Sprintf("%d", index))
	}
	if txn.IsSettlement {
		txn.Category = models.SettlementCategory
		if len(txn.Shares) == 0 && txn.PaidTo != "" {
			txn.Shares = map[models.ParticipantID]float64{txn.PaidTo: txn.Amount}
		}
		return
	}
	txn.Category = models.CategoryByID(txn.Category).ID
}

func deriveParticipants(txns []models.Transaction) []models.Participant {
	seen := make(map[models.ParticipantID]bool)
	var participants []models.Participant
	add := func(id models.ParticipantID) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		participants = append(participants, models.Participant{ID: id, Name: string(id)})
	}

	for _, txn := range txns {
		add(txn.PaidBy)
		add(txn.PaidTo)

		ids := make([]models.ParticipantID, 0, len(txn.Shares))
		for id := range txn.Shares {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			add(id)
		}
	}
	return participants
}
