package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/speechteam/tournament-signup/models"
)

var ErrEventNotFound = errors.New("event not found")

type EventRepository interface {
	GetByID(ctx context.Context, id int) (*models.Event, error)
	// ListActiveByUser returns every event the user holds an active
	// membership in.
	ListActiveByUser(ctx context.Context, userID int) ([]models.Event, error)
	// HasActiveMembership reports whether the user is an active member of
	// the event.
	HasActiveMembership(ctx context.Context, userID, eventID int) (bool, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := `
		SELECT id, name, emoji, event_type, is_partner_event, created_at
		FROM events
		WHERE id = $1`

	event := &models.Event{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Name,
		&event.Emoji,
		&event.Type,
		&event.IsPartnerEvent,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event by id %d: %w", id, err)
	}
	return event, nil
}

func (r *postgresEventRepository) ListActiveByUser(ctx context.Context, userID int) ([]models.Event, error) {
	query := `
		SELECT e.id, e.name, e.emoji, e.event_type, e.is_partner_event, e.created_at
		FROM events e
		JOIN user_events ue ON ue.event_id = e.id
		WHERE ue.user_id = $1 AND ue.active = TRUE
		ORDER BY e.name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active events for user %d: %w", userID, err)
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Emoji, &e.Type, &e.IsPartnerEvent, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

func (r *postgresEventRepository) HasActiveMembership(ctx context.Context, userID, eventID int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM user_events
			WHERE user_id = $1 AND event_id = $2 AND active = TRUE
		)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, eventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check membership for user %d in event %d: %w", userID, eventID, err)
	}
	return exists, nil
}
