package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/esplit/internal/models"
	"github.com/mmynk/esplit/internal/storage"
)

const activityColumns = `id, group_id, timestamp, action, actor_name, target_type, target_id, description, previous`

// CreateActivity appends an entry to a group's activity log.
// The previous transaction state is stored as JSON.
func (s *SQLiteStore) CreateActivity(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	if activity.Timestamp == 0 {
		activity.Timestamp = time.Now().Unix()
	}

	var previous interface{} = nil
	if activity.Previous != nil {
		data, err := json.Marshal(activity.Previous)
		if err != nil {
			return fmt.Errorf("failed to encode previous state: %w", err)
		}
		previous = string(data)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activities (`+activityColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		activity.ID, activity.GroupID, activity.Timestamp, activity.Action, activity.ActorName,
		activity.TargetType, activity.TargetID, activity.Description, previous,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// GetActivity retrieves an activity by ID.
func (s *SQLiteStore) GetActivity(ctx context.Context, activityID string) (*models.Activity, error) {
	activity, err := scanActivity(s.db.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE id = ?`,
		activityID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("activity %s: %w", activityID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return activity, nil
}

// ListActivities returns a group's activity log, newest first.
func (s *SQLiteStore) ListActivities(ctx context.Context, groupID string) ([]*models.Activity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+activityColumns+` FROM activities
		 WHERE group_id = ? ORDER BY timestamp DESC, rowid DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := []*models.Activity{}
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}
	return activities, nil
}

// DeleteActivity removes an activity by ID.
func (s *SQLiteStore) DeleteActivity(ctx context.Context, activityID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM activities WHERE id = ?", activityID)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return expectRow(res, "activity", activityID)
}

func scanActivity(row rowScanner) (*models.Activity, error) {
	activity := &models.Activity{}
	var previous sql.NullString

	err := row.Scan(&activity.ID, &activity.GroupID, &activity.Timestamp, &activity.Action,
		&activity.ActorName, &activity.TargetType, &activity.TargetID, &activity.Description, &previous)
	if err != nil {
		return nil, err
	}

	if previous.Valid {
		var txn models.Transaction
		if err := json.Unmarshal([]byte(previous.String), &txn); err != nil {
			return nil, fmt.Errorf("failed to decode previous state: %w", err)
		}
		activity.Previous = &txn
	}
	return activity, nil
}
