package models

import (
	"strings"
	"time"
)

// SignupDraft is the transient, unpersisted form of a signup request. It is
// built from user input, validated, and carried between confirmation stages
// as a signed payload; nothing is written to the store until the committer
// runs. Partners maps event id to the chosen partner's user id; Responses
// maps form field id to the raw answer.
type SignupDraft struct {
	TournamentID     int            `json:"tournament_id"`
	SelectedEventIDs []int          `json:"selected_event_ids"`
	Partners         map[int]int    `json:"partners,omitempty"`
	Responses        map[int]string `json:"form_responses"`
	BringingJudge    bool           `json:"bringing_judge"`
}

// PartnerFor returns the partner chosen for the given event, if any.
func (d *SignupDraft) PartnerFor(eventID int) (int, bool) {
	if d.Partners == nil {
		return 0, false
	}
	id, ok := d.Partners[eventID]
	return id, ok && id > 0
}

// IssueSeverity distinguishes blocking errors from acknowledgeable warnings.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding with enough detail for the user to
// fix it without another round trip.
type Issue struct {
	Field           string        `json:"field"`
	Message         string        `json:"message"`
	FixInstructions string        `json:"fix_instructions"`
	Severity        IssueSeverity `json:"severity"`
}

// ValidationResult collects every issue found in one validation pass.
// Errors block the signup; warnings are shown for acknowledgement but do
// not. RequirementsMet exposes one boolean per named check so callers can
// render partial progress without re-deriving the logic.
type ValidationResult struct {
	Valid           bool            `json:"is_valid"`
	Errors          []Issue         `json:"errors"`
	Warnings        []Issue         `json:"warnings"`
	RequirementsMet map[string]bool `json:"requirements_met"`
}

// NewValidationResult returns a passing result ready to accumulate issues.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:           true,
		Errors:          []Issue{},
		Warnings:        []Issue{},
		RequirementsMet: map[string]bool{},
	}
}

// AddError records a blocking issue and marks the result invalid.
func (r *ValidationResult) AddError(field, message, fix string) {
	r.Errors = append(r.Errors, Issue{Field: field, Message: message, FixInstructions: fix, Severity: SeverityError})
	r.Valid = false
}

// AddWarning records a non-blocking issue.
func (r *ValidationResult) AddWarning(field, message, fix string) {
	r.Warnings = append(r.Warnings, Issue{Field: field, Message: message, FixInstructions: fix, Severity: SeverityWarning})
}

// ErrorSummary joins all blocking messages into one line for logs.
func (r *ValidationResult) ErrorSummary() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Requirement is one line of the pre-signup checklist.
type Requirement struct {
	Met     bool   `json:"met"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
}

// RequirementsSummary is the read-only precheck shown before the signup
// form. CanProceed is the AND of the three requirement checks.
type RequirementsSummary struct {
	TournamentName string                 `json:"tournament_name"`
	TournamentDate time.Time              `json:"tournament_date"`
	Requirements   map[string]Requirement `json:"requirements"`
	CanProceed     bool                   `json:"can_proceed"`
}

// CommittedSignup describes one persisted entry in a commit result.
type CommittedSignup struct {
	SignupID  int    `json:"signup_id"`
	EventID   int    `json:"event_id"`
	EventName string `json:"event_name"`
	PartnerID *int   `json:"partner_id,omitempty"`
}

// CommitResult is the proof of submission returned after a successful
// atomic commit. ConfirmationID and TransactionID are deterministic hashes
// of the commit inputs, reproducible for support lookups.
type CommitResult struct {
	Signups        []CommittedSignup `json:"signups"`
	BringingJudge  bool              `json:"bringing_judge"`
	ConfirmationID string            `json:"confirmation_id"`
	TransactionID  string            `json:"transaction_id"`
	SubmittedAt    time.Time         `json:"submitted_at"`
}
