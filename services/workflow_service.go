package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/speechteam/tournament-signup/models"
	"github.com/speechteam/tournament-signup/repositories"
)

// Acknowledgement flags required to leave the Review stage.
var ReviewConfirmations = []string{
	"confirm_info_accurate",
	"confirm_commitment",
}

// Acknowledgement flags required to leave the Final Warning stage.
var FinalConfirmations = []string{
	"final_confirm_reviewed",
	"final_confirm_no_mistakes",
	"final_confirm_understand_consequences",
}

// ReviewEvent is one selected event rendered for the review screens.
type ReviewEvent struct {
	ID      int          `json:"id"`
	Name    string       `json:"name"`
	Emoji   string       `json:"emoji,omitempty"`
	Partner *models.User `json:"partner,omitempty"`
}

// StagePayload is what a confirmation stage hands back to the client: the
// review rendering plus the same draft re-serialized for the next
// round-trip.
type StagePayload struct {
	Tournament    *models.Tournament       `json:"tournament"`
	Events        []ReviewEvent            `json:"events"`
	Responses     map[int]string           `json:"form_responses"`
	BringingJudge bool                     `json:"bringing_judge"`
	DraftPayload  string                   `json:"draft_payload"`
	Validation    *models.ValidationResult `json:"validation,omitempty"`
}

// SignupWorkflow sequences a draft through Review, Final Warning and
// Commit. Each stage re-confirms the previous stage's acknowledgements and
// carries the draft as an opaque signed payload; nothing is persisted until
// the committer runs at the terminal stage.
type SignupWorkflow struct {
	validator      *SignupValidator
	committer      *SignupCommitter
	codec          *DraftCodec
	tournamentRepo repositories.TournamentRepository
	eventRepo      repositories.EventRepository
	userRepo       repositories.UserRepository
}

func NewSignupWorkflow(
	validator *SignupValidator,
	committer *SignupCommitter,
	codec *DraftCodec,
	tournamentRepo repositories.TournamentRepository,
	eventRepo repositories.EventRepository,
	userRepo repositories.UserRepository,
) *SignupWorkflow {
	return &SignupWorkflow{
		validator:      validator,
		committer:      committer,
		codec:          codec,
		tournamentRepo: tournamentRepo,
		eventRepo:      eventRepo,
		userRepo:       userRepo,
	}
}

// BeginReview validates the submitted draft and, when it passes, returns
// the review rendering plus the signed draft for the next stage. A failing
// draft rejects with the complete issue list.
func (w *SignupWorkflow) BeginReview(ctx context.Context, actorID int, draft *models.SignupDraft) (*StagePayload, error) {
	result, err := w.validator.Validate(ctx, actorID, draft.TournamentID, draft)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, &ValidationFailedError{Result: result}
	}

	payload, err := w.buildStagePayload(ctx, actorID, draft)
	if err != nil {
		return nil, err
	}
	payload.Validation = result
	return payload, nil
}

// BeginFinalWarning decodes the draft carried from Review, checks the
// review-stage acknowledgements and re-serializes the draft for the commit
// round-trip.
func (w *SignupWorkflow) BeginFinalWarning(ctx context.Context, actorID int, draftPayload string, acks map[string]bool) (*StagePayload, error) {
	draft, err := w.codec.Decode(actorID, draftPayload)
	if err != nil {
		return nil, err
	}
	if err := requireConfirmations(acks, ReviewConfirmations); err != nil {
		return nil, err
	}
	return w.buildStagePayload(ctx, actorID, draft)
}

// Commit decodes the draft carried from Final Warning, checks the final
// acknowledgements and delegates to the transactional committer.
func (w *SignupWorkflow) Commit(ctx context.Context, actorID int, draftPayload string, acks map[string]bool) (*models.CommitResult, error) {
	draft, err := w.codec.Decode(actorID, draftPayload)
	if err != nil {
		return nil, err
	}
	if err := requireConfirmations(acks, FinalConfirmations); err != nil {
		return nil, err
	}
	return w.committer.Commit(ctx, actorID, draft)
}

func (w *SignupWorkflow) buildStagePayload(ctx context.Context, actorID int, draft *models.SignupDraft) (*StagePayload, error) {
	tournament, err := w.tournamentRepo.GetByID(ctx, draft.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("build stage payload: %w", err)
	}

	events := make([]ReviewEvent, 0, len(draft.SelectedEventIDs))
	for _, eventID := range draft.SelectedEventIDs {
		event, err := w.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, repositories.ErrEventNotFound) {
				continue
			}
			return nil, fmt.Errorf("build stage payload: %w", err)
		}

		re := ReviewEvent{ID: event.ID, Name: event.Name, Emoji: event.Emoji}
		if partnerID, ok := draft.PartnerFor(eventID); ok {
			partner, err := w.userRepo.GetByID(ctx, partnerID)
			if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
				return nil, fmt.Errorf("build stage payload: %w", err)
			}
			re.Partner = partner
		}
		events = append(events, re)
	}

	serialized, err := w.codec.Encode(actorID, draft)
	if err != nil {
		return nil, err
	}

	return &StagePayload{
		Tournament:    tournament,
		Events:        events,
		Responses:     draft.Responses,
		BringingJudge: draft.BringingJudge,
		DraftPayload:  serialized,
	}, nil
}

func requireConfirmations(acks map[string]bool, required []string) error {
	for _, name := range required {
		if !acks[name] {
			return ErrConfirmationsMissing
		}
	}
	return nil
}
