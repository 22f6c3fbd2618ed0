package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/speechteam/tournament-signup/models"
	"github.com/speechteam/tournament-signup/repositories"
	"github.com/speechteam/tournament-signup/tz"
)

// CommitNotifier receives a notification after a signup commit succeeds.
// The live hub implements it; tests use a no-op.
type CommitNotifier interface {
	NotifySignupCommitted(tournamentID int, result *models.CommitResult)
}

// NoopNotifier discards commit notifications.
type NoopNotifier struct{}

func (NoopNotifier) NotifySignupCommitted(int, *models.CommitResult) {}

// SignupCommitter materializes a validated draft into persisted records:
// the actor's signups, mirrored partner signups, the judge request and the
// form responses, all inside one transaction. It re-runs full validation
// against current state first, so a draft gone stale between Review and
// Commit aborts with zero writes.
type SignupCommitter struct {
	validator  *SignupValidator
	transactor repositories.Transactor
	signupRepo repositories.SignupRepository
	judgeRepo  repositories.JudgeRequestRepository
	formRepo   repositories.FormRepository
	eventRepo  repositories.EventRepository
	notifier   CommitNotifier
	logger     *slog.Logger

	now func() time.Time
}

func NewSignupCommitter(
	validator *SignupValidator,
	transactor repositories.Transactor,
	signupRepo repositories.SignupRepository,
	judgeRepo repositories.JudgeRequestRepository,
	formRepo repositories.FormRepository,
	eventRepo repositories.EventRepository,
	notifier CommitNotifier,
	logger *slog.Logger,
) *SignupCommitter {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &SignupCommitter{
		validator:  validator,
		transactor: transactor,
		signupRepo: signupRepo,
		judgeRepo:  judgeRepo,
		formRepo:   formRepo,
		eventRepo:  eventRepo,
		notifier:   notifier,
		logger:     logger,
		now:        tz.Now,
	}
}

// Commit atomically persists the draft for the actor. Either every record
// lands or none do; a store fault rolls back in full and surfaces as
// ErrCommitFailed so the caller can retry with the same draft.
func (c *SignupCommitter) Commit(ctx context.Context, actorID int, draft *models.SignupDraft) (*models.CommitResult, error) {
	result, err := c.validator.Validate(ctx, actorID, draft.TournamentID, draft)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, &ValidationFailedError{Result: result}
	}

	now := c.now()
	committed := make([]models.CommittedSignup, 0, len(draft.SelectedEventIDs))

	txErr := c.transactor.InTx(ctx, func(exec repositories.SQLExecutor) error {
		committed = committed[:0]

		for _, eventID := range draft.SelectedEventIDs {
			signup, err := c.upsertActorSignup(ctx, exec, actorID, eventID, draft, now)
			if err != nil {
				return err
			}

			var partnerID *int
			if pid, ok := draft.PartnerFor(eventID); ok {
				partnerID = &pid
				if err := c.mirrorPartnerSignup(ctx, exec, actorID, pid, draft.TournamentID, eventID, now); err != nil {
					return err
				}
			}

			if err := c.ensureJudgeRequest(ctx, exec, actorID, draft.TournamentID, eventID); err != nil {
				return err
			}

			eventName := fmt.Sprintf("Event #%d", eventID)
			if event, err := c.eventRepo.GetByID(ctx, eventID); err == nil {
				eventName = event.Name
			}
			committed = append(committed, models.CommittedSignup{
				SignupID:  signup.ID,
				EventID:   eventID,
				EventName: eventName,
				PartnerID: partnerID,
			})
		}

		// Replace, not patch: stale answers from a previous submission must
		// not survive a resubmit.
		for fieldID, response := range draft.Responses {
			if err := c.formRepo.DeleteResponse(ctx, exec, draft.TournamentID, actorID, fieldID); err != nil {
				return err
			}
			if err := c.formRepo.CreateResponse(ctx, exec, &models.FormResponse{
				TournamentID: draft.TournamentID,
				UserID:       actorID,
				FieldID:      fieldID,
				Response:     response,
				SubmittedAt:  now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		c.logger.Error("signup commit rolled back",
			slog.Int("user_id", actorID),
			slog.Int("tournament_id", draft.TournamentID),
			slog.Any("error", txErr),
		)
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, txErr)
	}

	confirmationID, transactionID := deriveCommitIDs(actorID, draft.TournamentID, now, len(committed))
	commitResult := &models.CommitResult{
		Signups:        committed,
		BringingJudge:  draft.BringingJudge,
		ConfirmationID: confirmationID,
		TransactionID:  transactionID,
		SubmittedAt:    now,
	}

	c.logger.Info("signup committed",
		slog.Int("user_id", actorID),
		slog.Int("tournament_id", draft.TournamentID),
		slog.Int("signups", len(committed)),
		slog.String("confirmation_id", confirmationID),
	)
	c.notifier.NotifySignupCommitted(draft.TournamentID, commitResult)
	return commitResult, nil
}

// upsertActorSignup creates or updates the actor's signup row for the
// event. The row is keyed by (user, tournament, event) and never duplicated.
func (c *SignupCommitter) upsertActorSignup(ctx context.Context, exec repositories.SQLExecutor, actorID, eventID int, draft *models.SignupDraft, now time.Time) (*models.Signup, error) {
	var partnerID *int
	if pid, ok := draft.PartnerFor(eventID); ok {
		partnerID = &pid
	}

	signup, err := c.signupRepo.Find(ctx, exec, actorID, draft.TournamentID, eventID)
	if err != nil {
		if !errors.Is(err, repositories.ErrSignupNotFound) {
			return nil, err
		}
		signup = &models.Signup{
			UserID:        actorID,
			TournamentID:  draft.TournamentID,
			EventID:       eventID,
			IsGoing:       true,
			PartnerID:     partnerID,
			BringingJudge: draft.BringingJudge,
			CreatedAt:     now,
		}
		if err := c.signupRepo.Create(ctx, exec, signup); err != nil {
			return nil, err
		}
		return signup, nil
	}

	signup.IsGoing = true
	signup.PartnerID = partnerID
	signup.BringingJudge = draft.BringingJudge
	signup.CreatedAt = now
	if err := c.signupRepo.Update(ctx, exec, signup); err != nil {
		return nil, err
	}
	return signup, nil
}

// mirrorPartnerSignup maintains reciprocity: the partner's row for the same
// (tournament, event) points back at the actor. An already-going partner
// keeps their is_going flag and timestamp untouched.
func (c *SignupCommitter) mirrorPartnerSignup(ctx context.Context, exec repositories.SQLExecutor, actorID, partnerID, tournamentID, eventID int, now time.Time) error {
	partnerSignup, err := c.signupRepo.Find(ctx, exec, partnerID, tournamentID, eventID)
	if err != nil {
		if !errors.Is(err, repositories.ErrSignupNotFound) {
			return err
		}
		return c.signupRepo.Create(ctx, exec, &models.Signup{
			UserID:       partnerID,
			TournamentID: tournamentID,
			EventID:      eventID,
			IsGoing:      true,
			PartnerID:    &actorID,
			CreatedAt:    now,
		})
	}

	partnerSignup.PartnerID = &actorID
	if !partnerSignup.IsGoing {
		partnerSignup.IsGoing = true
		partnerSignup.CreatedAt = now
	}
	return c.signupRepo.Update(ctx, exec, partnerSignup)
}

// ensureJudgeRequest creates the (child, tournament, event) judge request
// exactly once, unassigned and unaccepted.
func (c *SignupCommitter) ensureJudgeRequest(ctx context.Context, exec repositories.SQLExecutor, actorID, tournamentID, eventID int) error {
	_, err := c.judgeRepo.Find(ctx, exec, actorID, tournamentID, eventID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrJudgeRequestNotFound) {
		return err
	}
	return c.judgeRepo.Create(ctx, exec, &models.JudgeRequest{
		ChildID:      actorID,
		TournamentID: tournamentID,
		EventID:      eventID,
		JudgeID:      nil,
		Accepted:     false,
	})
}

// deriveCommitIDs produces the user-facing proof of submission: both ids
// are reproducible from the same inputs for support lookups.
func deriveCommitIDs(actorID, tournamentID int, submittedAt time.Time, signupCount int) (confirmationID, transactionID string) {
	base := fmt.Sprintf("%d-%d-%s", actorID, tournamentID, submittedAt.Format(time.RFC3339))

	confSum := sha256.Sum256([]byte(base))
	confirmationID = strings.ToUpper(hex.EncodeToString(confSum[:]))[:16]

	txSum := sha256.Sum256([]byte(fmt.Sprintf("%s-%d", base, signupCount)))
	transactionID = strings.ToUpper(hex.EncodeToString(txSum[:]))[:24]
	return confirmationID, transactionID
}
