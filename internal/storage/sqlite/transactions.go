package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/esplit/internal/models"
	"github.com/mmynk/esplit/internal/storage"
)

const transactionColumns = `id, group_id, date, description, amount, category, is_settlement, paid_by, paid_to, created_at`

// CreateTransaction persists a new expense or settlement with its shares.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = models.TransactionID(uuid.New().String())
	}
	if txn.CreatedAt == 0 {
		txn.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(txn.ID), txn.GroupID, txn.Date, txn.Description, txn.Amount, txn.Category,
		txn.IsSettlement, string(txn.PaidBy), nullable(string(txn.PaidTo)), txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	if err := insertShares(ctx, tx, txn); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a transaction by ID, including its shares.
func (s *SQLiteStore) GetTransaction(ctx context.Context, txnID models.TransactionID) (*models.Transaction, error) {
	txn, err := scanTransaction(s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`,
		string(txnID),
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %s: %w", txnID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT participant_id, amount FROM transaction_shares WHERE transaction_id = ?",
		string(txnID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var amount float64
		if err := rows.Scan(&id, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		txn.Shares[models.ParticipantID(id)] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shares: %w", err)
	}

	return txn, nil
}

// UpdateTransaction replaces a transaction's fields and shares.
// GroupID and CreatedAt are never changed.
func (s *SQLiteStore) UpdateTransaction(ctx context.Context, txn *models.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE transactions
		 SET date = ?, description = ?, amount = ?, category = ?, is_settlement = ?, paid_by = ?, paid_to = ?
		 WHERE id = ?`,
		txn.Date, txn.Description, txn.Amount, txn.Category, txn.IsSettlement,
		string(txn.PaidBy), nullable(string(txn.PaidTo)), string(txn.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if err := expectRow(res, "transaction", string(txn.ID)); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM transaction_shares WHERE transaction_id = ?", string(txn.ID)); err != nil {
		return fmt.Errorf("failed to clear shares: %w", err)
	}
	if err := insertShares(ctx, tx, txn); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteTransaction removes a transaction; its shares cascade.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, txnID models.TransactionID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", string(txnID))
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return expectRow(res, "transaction", string(txnID))
}

// ListTransactions returns a group's transactions, newest first.
func (s *SQLiteStore) ListTransactions(ctx context.Context, groupID string) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE group_id = ? ORDER BY created_at DESC, rowid DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txns := []models.Transaction{}
	index := make(map[models.TransactionID]int)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		index[txn.ID] = len(txns)
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	// Load every share of the group in one query.
	shareRows, err := s.db.QueryContext(ctx,
		`SELECT s.transaction_id, s.participant_id, s.amount
		 FROM transaction_shares s JOIN transactions t ON t.id = s.transaction_id
		 WHERE t.group_id = ?`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	defer shareRows.Close()

	for shareRows.Next() {
		var txnID, participantID string
		var amount float64
		if err := shareRows.Scan(&txnID, &participantID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		if i, ok := index[models.TransactionID(txnID)]; ok {
			txns[i].Shares[models.ParticipantID(participantID)] = amount
		}
	}
	if err := shareRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shares: %w", err)
	}

	return txns, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	txn := &models.Transaction{Shares: make(map[models.ParticipantID]float64)}
	var id, paidBy string
	var paidTo sql.NullString

	err := row.Scan(&id, &txn.GroupID, &txn.Date, &txn.Description, &txn.Amount, &txn.Category,
		&txn.IsSettlement, &paidBy, &paidTo, &txn.CreatedAt)
	if err != nil {
		return nil, err
	}

	txn.ID = models.TransactionID(id)
	txn.PaidBy = models.ParticipantID(paidBy)
	if paidTo.Valid {
		txn.PaidTo = models.ParticipantID(paidTo.String)
	}
	return txn, nil
}

func insertShares(ctx context.Context, tx *sql.Tx, txn *models.Transaction) error {
	for id, amount := range txn.Shares {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO transaction_shares (transaction_id, participant_id, amount) VALUES (?, ?, ?)",
			string(txn.ID), string(id), amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert share: %w", err)
		}
	}
	return nil
}

// nullable maps "" to SQL NULL.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
