package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/speechteam/tournament-signup/models"
)

var (
	ErrFormFieldNotFound      = errors.New("form field not found")
	ErrFormResponseConflict   = errors.New("form response conflict: duplicate (tournament, user, field)")
	ErrFormResponseRefInvalid = errors.New("form response references a missing row")
)

type FormRepository interface {
	ListFieldsByTournament(ctx context.Context, tournamentID int) ([]models.FormField, error)
	ListRequiredFieldsByTournament(ctx context.Context, tournamentID int) ([]models.FormField, error)
	// DeleteResponse removes the response for (tournament, user, field) if
	// one exists. Deleting a missing row is not an error; replace semantics
	// treat it as a no-op.
	DeleteResponse(ctx context.Context, exec SQLExecutor, tournamentID, userID, fieldID int) error
	CreateResponse(ctx context.Context, exec SQLExecutor, response *models.FormResponse) error
}

type postgresFormRepository struct {
	db *sql.DB
}

func NewPostgresFormRepository(db *sql.DB) FormRepository {
	return &postgresFormRepository{db: db}
}

func (r *postgresFormRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresFormRepository) listFields(ctx context.Context, query string, args ...interface{}) ([]models.FormField, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list form fields: %w", err)
	}
	defer rows.Close()

	fields := make([]models.FormField, 0)
	for rows.Next() {
		var f models.FormField
		if err := rows.Scan(&f.ID, &f.TournamentID, &f.Label, &f.Type, &f.Options, &f.Required, &f.FieldOrder); err != nil {
			return nil, fmt.Errorf("failed to scan form field row: %w", err)
		}
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating form field rows: %w", err)
	}
	return fields, nil
}

func (r *postgresFormRepository) ListFieldsByTournament(ctx context.Context, tournamentID int) ([]models.FormField, error) {
	query := `
		SELECT id, tournament_id, label, type, options, required, field_order
		FROM form_fields
		WHERE tournament_id = $1
		ORDER BY field_order, id`
	return r.listFields(ctx, query, tournamentID)
}

func (r *postgresFormRepository) ListRequiredFieldsByTournament(ctx context.Context, tournamentID int) ([]models.FormField, error) {
	query := `
		SELECT id, tournament_id, label, type, options, required, field_order
		FROM form_fields
		WHERE tournament_id = $1 AND required = TRUE
		ORDER BY field_order, id`
	return r.listFields(ctx, query, tournamentID)
}

func (r *postgresFormRepository) DeleteResponse(ctx context.Context, exec SQLExecutor, tournamentID, userID, fieldID int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM form_responses WHERE tournament_id = $1 AND user_id = $2 AND field_id = $3`
	if _, err := executor.ExecContext(ctx, query, tournamentID, userID, fieldID); err != nil {
		return fmt.Errorf("failed to delete form response (tournament %d, user %d, field %d): %w",
			tournamentID, userID, fieldID, err)
	}
	return nil
}

func (r *postgresFormRepository) CreateResponse(ctx context.Context, exec SQLExecutor, response *models.FormResponse) error {
	executor := r.getExecutor(exec)
	if response.SubmittedAt.IsZero() {
		response.SubmittedAt = time.Now()
	}
	query := `
		INSERT INTO form_responses (tournament_id, user_id, field_id, response, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := executor.QueryRowContext(ctx, query,
		response.TournamentID,
		response.UserID,
		response.FieldID,
		response.Response,
		response.SubmittedAt,
	).Scan(&response.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrFormResponseConflict
			case "23503": // foreign_key_violation
				return ErrFormResponseRefInvalid
			}
		}
		return fmt.Errorf("failed to create form response: %w", err)
	}
	return nil
}
