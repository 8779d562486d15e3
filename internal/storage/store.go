// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/esplit/internal/models"
)

// ErrNotFound is wrapped by every lookup that finds nothing.
var ErrNotFound = errors.New("not found")

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateGroup persists a new group. The ID and CreatedAt fields are
	// populated by the store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its participants in roster order.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups retrieves all groups, newest first, without participants.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// UpdateGroup renames an existing group.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// DeleteGroup removes a group and everything recorded in it.
	DeleteGroup(ctx context.Context, groupID string) error

	// AddParticipant appends a participant to a group's roster.
	// The ID field is populated by the store when empty.
	AddParticipant(ctx context.Context, p *models.Participant) error

	// ListParticipants returns a group's roster in the order participants were added.
	ListParticipants(ctx context.Context, groupID string) ([]models.Participant, error)

	// GetParticipant retrieves one roster entry.
	GetParticipant(ctx context.Context, groupID string, participantID models.ParticipantID) (*models.Participant, error)

	// RemoveParticipant deletes a roster entry. Transactions that reference
	// the participant are kept.
	RemoveParticipant(ctx context.Context, groupID string, participantID models.ParticipantID) error

	// CreateTransaction persists an expense or settlement with its shares.
	// The ID and CreatedAt fields are populated by the store when empty.
	CreateTransaction(ctx context.Context, txn *models.Transaction) error

	// GetTransaction retrieves a transaction with its shares.
	GetTransaction(ctx context.Context, txnID models.TransactionID) (*models.Transaction, error)

	// UpdateTransaction replaces a transaction and its shares.
	UpdateTransaction(ctx context.Context, txn *models.Transaction) error

	// DeleteTransaction removes a transaction and its shares.
	DeleteTransaction(ctx context.Context, txnID models.TransactionID) error

	// ListTransactions returns a group's transactions, newest first.
	ListTransactions(ctx context.Context, groupID string) ([]models.Transaction, error)

	// CreateActivity appends an entry to a group's activity log.
	CreateActivity(ctx context.Context, activity *models.Activity) error

	// GetActivity retrieves one activity log entry.
	GetActivity(ctx context.Context, activityID string) (*models.Activity, error)

	// ListActivities returns a group's activity log, newest first.
	ListActivities(ctx context.Context, groupID string) ([]*models.Activity, error)

	// DeleteActivity removes an activity log entry.
	DeleteActivity(ctx context.Context, activityID string) error

	// Close releases any resources held by the store.
	Close() error
}
