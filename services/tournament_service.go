package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/speechteam/tournament-signup/models"
	"github.com/speechteam/tournament-signup/repositories"
)

// TournamentService exposes the read-only tournament surface that feeds
// draft entry: listings, details and the registration form.
type TournamentService struct {
	tournamentRepo repositories.TournamentRepository
	formRepo       repositories.FormRepository
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	formRepo repositories.FormRepository,
) *TournamentService {
	return &TournamentService{tournamentRepo: tournamentRepo, formRepo: formRepo}
}

func (s *TournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	return tournaments, nil
}

func (s *TournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("get tournament: %w", err)
	}
	return tournament, nil
}

// FormFields returns the tournament's registration form in display order.
// A tournament with no fields has not opened signups yet.
func (s *TournamentService) FormFields(ctx context.Context, tournamentID int) ([]models.FormField, error) {
	if _, err := s.GetByID(ctx, tournamentID); err != nil {
		return nil, err
	}
	fields, err := s.formRepo.ListFieldsByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list form fields: %w", err)
	}
	return fields, nil
}
