package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/speechteam/tournament-signup/models"
	"github.com/speechteam/tournament-signup/repositories"
	"github.com/speechteam/tournament-signup/tz"
)

// deadlineTimeLayout renders deadlines in validation messages.
const deadlineTimeLayout = "January 2, 2006 at 3:04 PM"

// SignupValidator performs the full fail-slow validation of a signup draft.
// Every check runs and every issue is collected so the user can fix
// everything in one pass. The validator never writes; the committer re-runs
// it against current state as the final guard before persisting.
type SignupValidator struct {
	userRepo       repositories.UserRepository
	tournamentRepo repositories.TournamentRepository
	eventRepo      repositories.EventRepository
	formRepo       repositories.FormRepository
	signupRepo     repositories.SignupRepository

	// now is swappable for tests.
	now func() time.Time
}

func NewSignupValidator(
	userRepo repositories.UserRepository,
	tournamentRepo repositories.TournamentRepository,
	eventRepo repositories.EventRepository,
	formRepo repositories.FormRepository,
	signupRepo repositories.SignupRepository,
) *SignupValidator {
	return &SignupValidator{
		userRepo:       userRepo,
		tournamentRepo: tournamentRepo,
		eventRepo:      eventRepo,
		formRepo:       formRepo,
		signupRepo:     signupRepo,
		now:            tz.Now,
	}
}

// Validate checks actor, tournament and draft against current store state.
// Business problems land in the returned result; only store faults surface
// as errors.
func (v *SignupValidator) Validate(ctx context.Context, actorID, tournamentID int, draft *models.SignupDraft) (*models.ValidationResult, error) {
	result := models.NewValidationResult()

	actor, err := v.validateAccount(ctx, actorID, result)
	if err != nil {
		return nil, err
	}

	tournament, err := v.validateTournamentAvailability(ctx, tournamentID, result)
	if err != nil {
		return nil, err
	}

	if len(draft.SelectedEventIDs) == 0 {
		result.AddError(
			"events",
			"No events selected",
			"Please select at least one event to sign up for.",
		)
	} else if actor != nil {
		if err := v.validateEventMembership(ctx, actorID, draft.SelectedEventIDs, result); err != nil {
			return nil, err
		}
	}

	if err := v.validateFormResponses(ctx, tournamentID, draft.Responses, result); err != nil {
		return nil, err
	}

	if err := v.validatePartnerRequirements(ctx, actorID, tournamentID, draft, result); err != nil {
		return nil, err
	}

	if tournament != nil && len(draft.SelectedEventIDs) > 0 {
		if err := v.validateNoDuplicates(ctx, actorID, tournamentID, draft.SelectedEventIDs, result); err != nil {
			return nil, err
		}
	}
	result.RequirementsMet["no_duplicates_or_acknowledged"] = true

	return result, nil
}

func (v *SignupValidator) validateAccount(ctx context.Context, actorID int, result *models.ValidationResult) (*models.User, error) {
	actor, err := v.userRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			result.AddError(
				"user",
				"User account not found",
				"Please log out and log back in. If the problem persists, contact an administrator.",
			)
			return nil, nil
		}
		return nil, fmt.Errorf("validate account: %w", err)
	}

	result.RequirementsMet["valid_user_account"] = true

	if !actor.AccountClaimed {
		result.AddError(
			"user",
			"Account not fully activated",
			"Your account is not fully activated. Please complete your profile setup or contact an administrator.",
		)
		result.RequirementsMet["valid_user_account"] = false
		return nil, nil
	}
	return actor, nil
}

func (v *SignupValidator) validateTournamentAvailability(ctx context.Context, tournamentID int, result *models.ValidationResult) (*models.Tournament, error) {
	tournament, err := v.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			result.AddError(
				"tournament",
				"Tournament not found",
				"The tournament you selected does not exist. Please return to the tournament list and try again.",
			)
			return nil, nil
		}
		return nil, fmt.Errorf("validate tournament: %w", err)
	}

	now := v.now()
	deadline := tz.Normalize(tournament.SignupDeadline)
	if deadline.Before(now) {
		hoursPast := tz.HoursSince(now, deadline)
		result.AddError(
			"deadline",
			"Signup deadline has passed",
			fmt.Sprintf("The signup deadline for %s was %s (%d hours ago). Contact your coach if you need an exception.",
				tournament.Name, deadline.Format(deadlineTimeLayout), hoursPast),
		)
		result.RequirementsMet["within_deadline"] = false
		return tournament, nil
	}
	result.RequirementsMet["within_deadline"] = true

	fields, err := v.formRepo.ListFieldsByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("validate tournament form: %w", err)
	}
	if len(fields) == 0 {
		result.AddError(
			"tournament",
			"Tournament signup not yet available",
			fmt.Sprintf("The signup form for %s has not been created yet. Contact an administrator to set up the tournament signup form.",
				tournament.Name),
		)
		result.RequirementsMet["signup_form_exists"] = false
		return tournament, nil
	}
	result.RequirementsMet["signup_form_exists"] = true
	return tournament, nil
}

func (v *SignupValidator) validateEventMembership(ctx context.Context, actorID int, selectedEventIDs []int, result *models.ValidationResult) error {
	memberEvents, err := v.eventRepo.ListActiveByUser(ctx, actorID)
	if err != nil {
		return fmt.Errorf("validate event membership: %w", err)
	}

	if len(memberEvents) == 0 {
		result.AddError(
			"events",
			"You are not a member of any events",
			"You must join at least one event before signing up for tournaments. "+
				"Visit the Events page to join an event, or contact your Event Leader.",
		)
		result.RequirementsMet["is_event_member"] = false
		return nil
	}
	result.RequirementsMet["is_event_member"] = true

	memberIDs := make(map[int]bool, len(memberEvents))
	for _, e := range memberEvents {
		memberIDs[e.ID] = true
	}

	var invalidNames []string
	for _, eventID := range selectedEventIDs {
		if memberIDs[eventID] {
			continue
		}
		name := fmt.Sprintf("Event #%d", eventID)
		if event, err := v.eventRepo.GetByID(ctx, eventID); err == nil {
			name = event.Name
		} else if !errors.Is(err, repositories.ErrEventNotFound) {
			return fmt.Errorf("validate event membership: %w", err)
		}
		invalidNames = append(invalidNames, name)
	}

	if len(invalidNames) > 0 {
		plural := "this event"
		if len(invalidNames) > 1 {
			plural = "these events"
		}
		joined := strings.Join(invalidNames, ", ")
		result.AddError(
			"events",
			fmt.Sprintf("You are not a member of: %s", joined),
			fmt.Sprintf("You can only sign up for events you are a member of. "+
				"Visit the Events page to join %s, or remove %s from your signup.", joined, plural),
		)
		result.RequirementsMet["all_events_valid"] = false
	} else {
		result.RequirementsMet["all_events_valid"] = true
	}
	return nil
}

func (v *SignupValidator) validateFormResponses(ctx context.Context, tournamentID int, responses map[int]string, result *models.ValidationResult) error {
	requiredFields, err := v.formRepo.ListRequiredFieldsByTournament(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("validate form responses: %w", err)
	}

	var missing []string
	for _, field := range requiredFields {
		if strings.TrimSpace(responses[field.ID]) == "" {
			missing = append(missing, field.Label)
		}
	}

	if len(missing) > 0 {
		result.AddError(
			"form",
			"Missing required information",
			fmt.Sprintf("Please fill out the following required fields: %s", strings.Join(missing, ", ")),
		)
		result.RequirementsMet["all_required_fields_filled"] = false
	} else {
		result.RequirementsMet["all_required_fields_filled"] = true
	}
	return nil
}

func (v *SignupValidator) validatePartnerRequirements(ctx context.Context, actorID, tournamentID int, draft *models.SignupDraft, result *models.ValidationResult) error {
	var partnerEventIDs []int

	for _, eventID := range draft.SelectedEventIDs {
		event, err := v.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, repositories.ErrEventNotFound) {
				continue // membership check already reported it
			}
			return fmt.Errorf("validate partner requirements: %w", err)
		}
		if !event.IsPartnerEvent {
			continue
		}
		partnerEventIDs = append(partnerEventIDs, eventID)
		issueField := fmt.Sprintf("partner_event_%d", eventID)

		partnerID, ok := draft.PartnerFor(eventID)
		if !ok {
			result.AddError(
				issueField,
				fmt.Sprintf("Partner required for %s", event.Name),
				fmt.Sprintf("%s is a partner event. You must select a partner to compete with.", event.Name),
			)
			result.RequirementsMet[fmt.Sprintf("partner_selected_%d", eventID)] = false
			continue
		}
		result.RequirementsMet[fmt.Sprintf("partner_selected_%d", eventID)] = true

		partner, err := v.userRepo.GetByID(ctx, partnerID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				result.AddError(
					issueField,
					"Invalid partner selection",
					"The partner you selected does not exist. Please select a different partner.",
				)
				continue
			}
			return fmt.Errorf("validate partner requirements: %w", err)
		}

		inEvent, err := v.eventRepo.HasActiveMembership(ctx, partnerID, eventID)
		if err != nil {
			return fmt.Errorf("validate partner requirements: %w", err)
		}
		if !inEvent {
			result.AddError(
				issueField,
				fmt.Sprintf("%s is not in %s", partner.FullName(), event.Name),
				fmt.Sprintf("Your partner must be a member of %s. Please select a different partner or ask %s to join %s first.",
					event.Name, partner.FirstName, event.Name),
			)
			result.RequirementsMet[fmt.Sprintf("partner_in_event_%d", eventID)] = false
			continue
		}
		result.RequirementsMet[fmt.Sprintf("partner_in_event_%d", eventID)] = true

		// Partner already going with someone else: confirming will rewire
		// their pairing, so warn but do not block.
		existing, err := v.signupRepo.FindGoingByUserTournamentEvent(ctx, partnerID, tournamentID, eventID)
		if err != nil && !errors.Is(err, repositories.ErrSignupNotFound) {
			return fmt.Errorf("validate partner requirements: %w", err)
		}
		if existing != nil && existing.PartnerID != nil && *existing.PartnerID != actorID {
			otherName := "someone else"
			if other, err := v.userRepo.GetByID(ctx, *existing.PartnerID); err == nil {
				otherName = other.FullName()
			} else if !errors.Is(err, repositories.ErrUserNotFound) {
				return fmt.Errorf("validate partner requirements: %w", err)
			}
			result.AddWarning(
				issueField,
				fmt.Sprintf("%s is already partnered with %s", partner.FirstName, otherName),
				fmt.Sprintf("%s has already signed up with %s for this tournament. "+
					"If you proceed, their partnership will be updated to you instead. Make sure this is intentional.",
					partner.FullName(), otherName),
			)
		}
	}

	if len(partnerEventIDs) > 0 {
		handled := true
		for _, eid := range partnerEventIDs {
			if !result.RequirementsMet[fmt.Sprintf("partner_selected_%d", eid)] ||
				!result.RequirementsMet[fmt.Sprintf("partner_in_event_%d", eid)] {
				handled = false
				break
			}
		}
		result.RequirementsMet["partner_events_handled"] = handled
	} else {
		result.RequirementsMet["partner_events_handled"] = true
	}
	return nil
}

func (v *SignupValidator) validateNoDuplicates(ctx context.Context, actorID, tournamentID int, selectedEventIDs []int, result *models.ValidationResult) error {
	existing, err := v.signupRepo.ListGoingByUserAndTournament(ctx, actorID, tournamentID, selectedEventIDs)
	if err != nil {
		return fmt.Errorf("validate duplicates: %w", err)
	}
	if len(existing) == 0 {
		return nil
	}

	var names []string
	for _, signup := range existing {
		if event, err := v.eventRepo.GetByID(ctx, signup.EventID); err == nil {
			names = append(names, event.Name)
		} else if !errors.Is(err, repositories.ErrEventNotFound) {
			return fmt.Errorf("validate duplicates: %w", err)
		}
	}

	result.AddWarning(
		"duplicates",
		fmt.Sprintf("You are already signed up for: %s", strings.Join(names, ", ")),
		"Your existing signup will be updated with any changes you make. This is not a duplicate signup.",
	)
	return nil
}
