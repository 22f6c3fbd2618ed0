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
	ErrSignupNotFound   = errors.New("signup not found")
	ErrSignupConflict   = errors.New("signup conflict: user already registered for this tournament event")
	ErrSignupRefInvalid = errors.New("signup references a missing user, tournament or event")
)

type SignupRepository interface {
	// Find returns the signup for (user, tournament, event) or
	// ErrSignupNotFound. Runs on exec so the committer can read rows it may
	// have just written inside the same transaction.
	Find(ctx context.Context, exec SQLExecutor, userID, tournamentID, eventID int) (*models.Signup, error)
	Create(ctx context.Context, exec SQLExecutor, signup *models.Signup) error
	Update(ctx context.Context, exec SQLExecutor, signup *models.Signup) error
	// ListGoingByUserAndTournament returns the user's is_going signups for
	// the tournament, restricted to eventIDs when non-empty.
	ListGoingByUserAndTournament(ctx context.Context, userID, tournamentID int, eventIDs []int) ([]models.Signup, error)
	// FindGoingByUserTournamentEvent is the read-only variant of Find used
	// by validation; only is_going rows are returned.
	FindGoingByUserTournamentEvent(ctx context.Context, userID, tournamentID, eventID int) (*models.Signup, error)
}

type postgresSignupRepository struct {
	db *sql.DB
}

func NewPostgresSignupRepository(db *sql.DB) SignupRepository {
	return &postgresSignupRepository{db: db}
}

func (r *postgresSignupRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const signupColumns = `id, user_id, tournament_id, event_id, is_going, partner_id, bringing_judge, judge_id, created_at`

func scanSignup(row *sql.Row) (*models.Signup, error) {
	s := &models.Signup{}
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.TournamentID,
		&s.EventID,
		&s.IsGoing,
		&s.PartnerID,
		&s.BringingJudge,
		&s.JudgeID,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSignupNotFound
		}
		return nil, fmt.Errorf("failed to scan signup: %w", err)
	}
	return s, nil
}

func (r *postgresSignupRepository) Find(ctx context.Context, exec SQLExecutor, userID, tournamentID, eventID int) (*models.Signup, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + signupColumns + ` FROM tournament_signups
		WHERE user_id = $1 AND tournament_id = $2 AND event_id = $3`
	return scanSignup(executor.QueryRowContext(ctx, query, userID, tournamentID, eventID))
}

func (r *postgresSignupRepository) FindGoingByUserTournamentEvent(ctx context.Context, userID, tournamentID, eventID int) (*models.Signup, error) {
	query := `SELECT ` + signupColumns + ` FROM tournament_signups
		WHERE user_id = $1 AND tournament_id = $2 AND event_id = $3 AND is_going = TRUE`
	return scanSignup(r.db.QueryRowContext(ctx, query, userID, tournamentID, eventID))
}

func (r *postgresSignupRepository) Create(ctx context.Context, exec SQLExecutor, signup *models.Signup) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_signups (user_id, tournament_id, event_id, is_going, partner_id, bringing_judge, judge_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := executor.QueryRowContext(ctx, query,
		signup.UserID,
		signup.TournamentID,
		signup.EventID,
		signup.IsGoing,
		signup.PartnerID,
		signup.BringingJudge,
		signup.JudgeID,
		signup.CreatedAt,
	).Scan(&signup.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrSignupConflict
			case "23503": // foreign_key_violation
				return ErrSignupRefInvalid
			}
		}
		return fmt.Errorf("failed to create signup: %w", err)
	}
	return nil
}

func (r *postgresSignupRepository) Update(ctx context.Context, exec SQLExecutor, signup *models.Signup) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournament_signups
		SET is_going = $1, partner_id = $2, bringing_judge = $3, judge_id = $4, created_at = $5
		WHERE id = $6`

	result, err := executor.ExecContext(ctx, query,
		signup.IsGoing,
		signup.PartnerID,
		signup.BringingJudge,
		signup.JudgeID,
		signup.CreatedAt,
		signup.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update signup %d: %w", signup.ID, err)
	}
	return checkAffectedRows(result, ErrSignupNotFound)
}

func (r *postgresSignupRepository) ListGoingByUserAndTournament(ctx context.Context, userID, tournamentID int, eventIDs []int) ([]models.Signup, error) {
	query := `SELECT ` + signupColumns + ` FROM tournament_signups
		WHERE user_id = $1 AND tournament_id = $2 AND is_going = TRUE`
	args := []interface{}{userID, tournamentID}

	if len(eventIDs) > 0 {
		query += ` AND event_id = ANY($3)`
		args = append(args, pq.Array(eventIDs))
	}
	query += ` ORDER BY event_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list signups for user %d tournament %d: %w", userID, tournamentID, err)
	}
	defer rows.Close()

	signups := make([]models.Signup, 0)
	for rows.Next() {
		var s models.Signup
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.TournamentID, &s.EventID, &s.IsGoing,
			&s.PartnerID, &s.BringingJudge, &s.JudgeID, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan signup row: %w", err)
		}
		signups = append(signups, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signup rows: %w", err)
	}
	return signups, nil
}
