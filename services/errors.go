package services

import (
	"errors"
	"fmt"

	"github.com/speechteam/tournament-signup/models"
)

// Shared service-level errors, mapped to HTTP statuses in handlers.
var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrEventNotFound      = errors.New("event not found")

	// Draft payload round-trip failures. Both mean "start the signup over";
	// the workflow never repairs a payload it cannot trust.
	ErrDraftPayloadInvalid = errors.New("signup draft payload is missing or invalid, please start the signup again")
	ErrDraftPayloadExpired = errors.New("signup draft payload has expired, please start the signup again")

	// Acknowledgement gates between confirmation stages.
	ErrConfirmationsMissing = errors.New("all confirmation boxes must be checked to proceed")

	// Results submission rules.
	ErrResultsClosed               = errors.New("results collection for this tournament has been closed")
	ErrPerformanceAlreadySubmitted = errors.New("performance already submitted for this tournament")
	ErrInvalidRank                 = errors.New("rank must be a positive number")

	// ErrCommitFailed wraps a store fault during the atomic commit. The
	// transaction was rolled back in full; the caller may retry with the
	// same draft.
	ErrCommitFailed = errors.New("signup could not be saved, no changes were made, please try again")
)

// ValidationFailedError carries the complete fail-slow issue list when a
// draft is rejected. Handlers surface every issue at once rather than the
// first one found.
type ValidationFailedError struct {
	Result *models.ValidationResult
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("signup validation failed: %s", e.Result.ErrorSummary())
}

// AsValidationFailed unwraps err into a *ValidationFailedError if possible.
func AsValidationFailed(err error) (*ValidationFailedError, bool) {
	var vErr *ValidationFailedError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}
