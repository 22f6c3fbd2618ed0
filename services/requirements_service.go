package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/speechteam/tournament-signup/models"
	"github.com/speechteam/tournament-signup/repositories"
	"github.com/speechteam/tournament-signup/tz"
)

// RequirementsService builds the read-only pre-signup checklist shown
// before the draft entry form. It performs no mutation.
type RequirementsService struct {
	userRepo       repositories.UserRepository
	tournamentRepo repositories.TournamentRepository
	eventRepo      repositories.EventRepository
	formRepo       repositories.FormRepository

	now func() time.Time
}

func NewRequirementsService(
	userRepo repositories.UserRepository,
	tournamentRepo repositories.TournamentRepository,
	eventRepo repositories.EventRepository,
	formRepo repositories.FormRepository,
) *RequirementsService {
	return &RequirementsService{
		userRepo:       userRepo,
		tournamentRepo: tournamentRepo,
		eventRepo:      eventRepo,
		formRepo:       formRepo,
		now:            tz.Now,
	}
}

// Summary gathers membership, deadline and form status for (actor,
// tournament). CanProceed is the AND of the three checks. Missing actor or
// tournament is a fatal lookup failure.
func (s *RequirementsService) Summary(ctx context.Context, actorID, tournamentID int) (*models.RequirementsSummary, error) {
	var (
		tournament *models.Tournament
		events     []models.Event
		fields     []models.FormField
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Existence check only; the summary itself needs no actor fields.
		_, err := s.userRepo.GetByID(gctx, actorID)
		return err
	})
	g.Go(func() (err error) {
		tournament, err = s.tournamentRepo.GetByID(gctx, tournamentID)
		return err
	})
	g.Go(func() (err error) {
		events, err = s.eventRepo.ListActiveByUser(gctx, actorID)
		return err
	})
	g.Go(func() (err error) {
		fields, err = s.formRepo.ListFieldsByTournament(gctx, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("requirements summary: %w", err)
	}

	summary := &models.RequirementsSummary{
		TournamentName: tournament.Name,
		TournamentDate: tournament.Date,
		Requirements:   map[string]models.Requirement{},
	}

	summary.Requirements["is_event_member"] = s.membershipRequirement(events)
	summary.Requirements["within_deadline"] = s.deadlineRequirement(tournament)
	summary.Requirements["form_exists"] = s.formRequirement(fields)

	summary.CanProceed = summary.Requirements["is_event_member"].Met &&
		summary.Requirements["within_deadline"].Met &&
		summary.Requirements["form_exists"].Met
	return summary, nil
}

func (s *RequirementsService) membershipRequirement(events []models.Event) models.Requirement {
	if len(events) == 0 {
		return models.Requirement{
			Met:     false,
			Message: "You must join at least one event first",
			Action:  "Visit the Events page to join an event",
		}
	}
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Name)
	}
	return models.Requirement{
		Met:     true,
		Message: fmt.Sprintf("You are a member of %d event(s): %s", len(events), strings.Join(names, ", ")),
	}
}

func (s *RequirementsService) deadlineRequirement(tournament *models.Tournament) models.Requirement {
	now := s.now()
	deadline := tz.Normalize(tournament.SignupDeadline)

	if deadline.Before(now) {
		return models.Requirement{
			Met:     false,
			Message: fmt.Sprintf("Closed (deadline was %s)", deadline.Format(deadlineTimeLayout)),
			Action:  "Contact your coach if you need an exception",
		}
	}
	hoursLeft := tz.HoursUntil(now, deadline)
	return models.Requirement{
		Met:     true,
		Message: fmt.Sprintf("Open (closes %s - %d hours remaining)", deadline.Format(deadlineTimeLayout), hoursLeft),
	}
}

func (s *RequirementsService) formRequirement(fields []models.FormField) models.Requirement {
	if len(fields) == 0 {
		return models.Requirement{
			Met:     false,
			Message: "Signup form not yet created",
			Action:  "Contact an administrator to set up the signup form",
		}
	}
	return models.Requirement{Met: true, Message: "Signup form is ready"}
}
