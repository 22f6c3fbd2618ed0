package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/speechteam/tournament-signup/models"
)

var (
	ErrJudgeRequestNotFound = errors.New("judge request not found")
	ErrJudgeRequestConflict = errors.New("judge request conflict: entry already exists for this child, tournament and event")
)

type JudgeRequestRepository interface {
	// Find returns the judge request for (child, tournament, event) or
	// ErrJudgeRequestNotFound.
	Find(ctx context.Context, exec SQLExecutor, childID, tournamentID, eventID int) (*models.JudgeRequest, error)
	Create(ctx context.Context, exec SQLExecutor, request *models.JudgeRequest) error
}

type postgresJudgeRequestRepository struct {
	db *sql.DB
}

func NewPostgresJudgeRequestRepository(db *sql.DB) JudgeRequestRepository {
	return &postgresJudgeRequestRepository{db: db}
}

func (r *postgresJudgeRequestRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresJudgeRequestRepository) Find(ctx context.Context, exec SQLExecutor, childID, tournamentID, eventID int) (*models.JudgeRequest, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, child_id, tournament_id, event_id, judge_id, accepted, created_at
		FROM tournament_judges
		WHERE child_id = $1 AND tournament_id = $2 AND event_id = $3`

	jr := &models.JudgeRequest{}
	err := executor.QueryRowContext(ctx, query, childID, tournamentID, eventID).Scan(
		&jr.ID,
		&jr.ChildID,
		&jr.TournamentID,
		&jr.EventID,
		&jr.JudgeID,
		&jr.Accepted,
		&jr.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJudgeRequestNotFound
		}
		return nil, fmt.Errorf("failed to find judge request: %w", err)
	}
	return jr, nil
}

func (r *postgresJudgeRequestRepository) Create(ctx context.Context, exec SQLExecutor, request *models.JudgeRequest) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_judges (child_id, tournament_id, event_id, judge_id, accepted)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		request.ChildID,
		request.TournamentID,
		request.EventID,
		request.JudgeID,
		request.Accepted,
	).Scan(&request.ID, &request.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrJudgeRequestConflict
		}
		return fmt.Errorf("failed to create judge request: %w", err)
	}
	return nil
}
