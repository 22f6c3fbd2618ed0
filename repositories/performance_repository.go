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
	ErrPerformanceNotFound = errors.New("tournament performance not found")
	ErrPerformanceConflict = errors.New("performance already submitted for this tournament")
)

type PerformanceRepository interface {
	Create(ctx context.Context, exec SQLExecutor, performance *models.TournamentPerformance) error
	FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.TournamentPerformance, error)
	// HasPriorBid reports whether the user has ever recorded a performance
	// with a bid. Drives the first-bid bonus.
	HasPriorBid(ctx context.Context, userID int) (bool, error)
}

type postgresPerformanceRepository struct {
	db *sql.DB
}

func NewPostgresPerformanceRepository(db *sql.DB) PerformanceRepository {
	return &postgresPerformanceRepository{db: db}
}

func (r *postgresPerformanceRepository) Create(ctx context.Context, exec SQLExecutor, performance *models.TournamentPerformance) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	query := `
		INSERT INTO tournament_performances (user_id, tournament_id, points, bid, rank, stage)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		performance.UserID,
		performance.TournamentID,
		performance.Points,
		performance.Bid,
		performance.Rank,
		performance.Stage,
	).Scan(&performance.ID, &performance.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrPerformanceConflict
		}
		return fmt.Errorf("failed to create tournament performance: %w", err)
	}
	return nil
}

func (r *postgresPerformanceRepository) FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.TournamentPerformance, error) {
	query := `
		SELECT id, user_id, tournament_id, points, bid, rank, stage, created_at
		FROM tournament_performances
		WHERE user_id = $1 AND tournament_id = $2`

	p := &models.TournamentPerformance{}
	err := r.db.QueryRowContext(ctx, query, userID, tournamentID).Scan(
		&p.ID, &p.UserID, &p.TournamentID, &p.Points, &p.Bid, &p.Rank, &p.Stage, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPerformanceNotFound
		}
		return nil, fmt.Errorf("failed to find performance: %w", err)
	}
	return p, nil
}

func (r *postgresPerformanceRepository) HasPriorBid(ctx context.Context, userID int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM tournament_performances WHERE user_id = $1 AND bid = TRUE)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check prior bids for user %d: %w", userID, err)
	}
	return exists, nil
}
