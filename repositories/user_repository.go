package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/speechteam/tournament-signup/models"
)

var ErrUserNotFound = errors.New("user not found")

// partnerSearchLimit caps name-search results for the partner picker.
const partnerSearchLimit = 10

type UserRepository interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	// SearchEventMembers finds users whose first or last name contains query
	// (case-insensitive), restricted to active members of eventID and
	// excluding excludeUserID. Capped at 10 rows.
	SearchEventMembers(ctx context.Context, query string, eventID, excludeUserID int) ([]models.User, error)
	AddPointsAndBids(ctx context.Context, exec SQLExecutor, userID, points, bids int) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `
		SELECT id, first_name, last_name, email, role, is_parent, account_claimed, points, bids, created_at
		FROM users
		WHERE id = $1`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Role,
		&user.IsParent,
		&user.AccountClaimed,
		&user.Points,
		&user.Bids,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id %d: %w", id, err)
	}
	return user, nil
}

func (r *postgresUserRepository) SearchEventMembers(ctx context.Context, query string, eventID, excludeUserID int) ([]models.User, error) {
	sqlQuery := `
		SELECT u.id, u.first_name, u.last_name, u.email, u.role, u.is_parent, u.account_claimed, u.points, u.bids, u.created_at
		FROM users u
		JOIN user_events ue ON ue.user_id = u.id
		WHERE ue.event_id = $1
		  AND ue.active = TRUE
		  AND u.id <> $2
		  AND (u.first_name ILIKE '%' || $3 || '%' OR u.last_name ILIKE '%' || $3 || '%')
		ORDER BY u.last_name, u.first_name
		LIMIT $4`

	rows, err := r.db.QueryContext(ctx, sqlQuery, eventID, excludeUserID, query, partnerSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search event members: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Role,
			&u.IsParent, &u.AccountClaimed, &u.Points, &u.Bids, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func (r *postgresUserRepository) AddPointsAndBids(ctx context.Context, exec SQLExecutor, userID, points, bids int) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	query := `UPDATE users SET points = points + $1, bids = bids + $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, points, bids, userID)
	if err != nil {
		return fmt.Errorf("failed to add points for user %d: %w", userID, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}
