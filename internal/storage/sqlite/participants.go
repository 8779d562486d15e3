package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/esplit/internal/models"
	"github.com/mmynk/esplit/internal/storage"
)

// AddParticipant appends a participant to the end of a group's roster.
func (s *SQLiteStore) AddParticipant(ctx context.Context, p *models.Participant) error {
	if p.ID == "" {
		p.ID = models.ParticipantID(uuid.New().String())
	}

	var email interface{} = nil
	if p.Email != "" {
		email = p.Email
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO participants (group_id, id, name, color, email, position)
		 VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM participants WHERE group_id = ?))`,
		p.GroupID, string(p.ID), p.Name, p.Color, email, p.GroupID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

// ListParticipants returns a group's roster in the order participants were added.
func (s *SQLiteStore) ListParticipants(ctx context.Context, groupID string) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, color, email FROM participants
		 WHERE group_id = ? ORDER BY position`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		p := models.Participant{GroupID: groupID}
		var email sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Color, &email); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		if email.Valid {
			p.Email = email.String
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

// GetParticipant retrieves one roster entry.
func (s *SQLiteStore) GetParticipant(ctx context.Context, groupID string, participantID models.ParticipantID) (*models.Participant, error) {
	p := &models.Participant{GroupID: groupID}
	var email sql.NullString

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, color, email FROM participants WHERE group_id = ? AND id = ?",
		groupID, string(participantID),
	).Scan(&p.ID, &p.Name, &p.Color, &email)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("participant %s: %w", participantID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	if email.Valid {
		p.Email = email.String
	}
	return p, nil
}

// RemoveParticipant deletes a roster entry.
func (s *SQLiteStore) RemoveParticipant(ctx context.Context, groupID string, participantID models.ParticipantID) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM participants WHERE group_id = ? AND id = ?",
		groupID, string(participantID),
	)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return expectRow(res, "participant", string(participantID))
}
