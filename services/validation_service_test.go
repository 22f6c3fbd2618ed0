package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speechteam/tournament-signup/models"
)

func TestValidateHappyPath(t *testing.T) {
	env := newTestEnv()
	env.seedReadySignup()

	result, err := env.validator.Validate(context.Background(), testActorID, testTournamentID, env.soloDraft())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)

	for _, key := range []string{
		"valid_user_account",
		"within_deadline",
		"signup_form_exists",
		"is_event_member",
		"all_events_valid",
		"all_required_fields_filled",
		"partner_events_handled",
		"no_duplicates_or_acknowledged",
	} {
		assert.True(t, result.RequirementsMet[key], "expected %s to be met", key)
	}
}

// Every check must run even after earlier ones fail, so a draft with
// several problems reports all of them in one pass.
func TestValidateCollectsAllIssues(t *testing.T) {
	env := newTestEnv()
	env.seedReadySignup()
	env.seedPartnerEvent()

	// Past deadline, a partner event with no partner chosen, and the
	// required field left blank.
	env.tournaments.tournaments[testTournamentID].SignupDeadline = env.now.Add(-2 * time.Hour)

	draft := &models.SignupDraft{
		TournamentID:     testTournamentID,
		SelectedEventIDs: []int{testSoloEventID, testDuoEventID},
		Responses:        map[int]string{},
	}

	result, err := env.validator.Validate(context.Background(), testActorID, testTournamentID, draft)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	require.GreaterOrEqual(t, len(result.Errors), 3)

	fields := make(map[string]bool)
	for _, issue := range result.Errors {
		fields[issue.Field] = true
		assert.NotEmpty(t, issue.Message)
		assert.NotEmpty(t, issue.FixInstructions)
		assert.Equal(t, models.SeverityError, issue.Severity)
	}
	assert.True(t, fields["deadline"])
	assert.True(t, fields["form"])
	assert.True(t, fields["partner_event_200"])

	assert.False(t, result.RequirementsMet["within_deadline"])
	assert.False(t, result.RequirementsMet["all_required_fields_filled"])
	assert.False(t, result.RequirementsMet["partner_selected_200"])
	assert.False(t, result.RequirementsMet["partner_events_handled"])
}

func TestValidateDeadlinePassedReportsElapsedHours(t *testing.T) {
	env := newTestEnv()
	env.seedReadySignup()
	env.tournaments.tournaments[testTournamentID].SignupDeadline = env.now.Add(-48 * time.Hour)

	result, err := env.validator.Validate(context.Background(), testActorID, testTournamentID, env.soloDraft())
	require.NoError(t, err)

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "deadline", result.Errors[0].Field)
	assert.Contains(t, result.Errors[0].FixInstructions, "48 hours ago")
	assert.Contains(t, result.Errors[0].FixInstructions, "Lakeside Invitational")
	assert.False(t, result.RequirementsMet["within_deadline"])
}

func TestValidateUnknownActor(t *testing.T) {
	env := newTestEnv()
	env.seedReadySignup()

	result, err := env.validator.Validate(context.Background(), 999, testTournamentID, env.soloDraft())
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.False(t, result.RequirementsMet["valid_user_account"])
}

func TestValidateUnclaimedAccount(t *testing.T) {
	env := newTestEnv()
	env.seedReadySignup()
	env.users.users[testActorID].AccountClaimed = false

	result, err := env.validator.Validate(context.Background(), testActorID, testTournamentID, env.soloDraft())
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.False(t, result.RequirementsMet["valid_user_account"])
}

func TestValidateMissingSignupForm(t *testing.T) {
	env := newTestEnv()
	env.seedReadySignup()
	env.forms.fields[testTournamentID] = nil

	result, err := env.validator.Validate(context.Background(), testActorID, testTournamentID, env.soloDraft())
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.False(t, result.RequirementsMet["signup_form_exists"])
}

func TestValidateNoEventsSelected(t *testing.T) {
	env := newTestEnv()
	env.seedReadySignup()

	draft := &models.SignupDraft{
		TournamentID: testTournamentID,
		Responses:    map[int]string{testFieldID: "yes"},
	}

	result, err := env.validator.Validate(context.Background(), testActorID, testTournamentID, draft)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, "events", result.Errors[0].Field)
}

func TestValidateNonMemberEventNamed(t *testing.T) {
	env := newTestEnv()
	env.seedReadySignup()
	env.events.events[300] = &models.Event{ID: 300, Name: "Extemp"}

	draft := env.soloDraft()
	draft.SelectedEventIDs = append(draft.SelectedEventIDs, 300)

	result, err := env.validator.Validate(context.Background(), testActorID, testTournamentID, draft)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.False(t, result.RequirementsMet["all_events_valid"])

	var found bool
	for _, issue := range result.Errors {
		if issue.Field == "events" {
			found = true
			assert.Contains(t, issue.Message, "Extemp")
		}
	}
	assert.True(t, found)
}

func TestValidatePartnerNotInEvent(t *testing.T) {
	env := newTestEnv()
	env.seedReadySignup()
	env.seedPartnerEvent()
	env.events.memberships[testPartnerID][testDuoEventID] = false

	draft := &models.SignupDraft{
		TournamentID:     testTournamentID,
		SelectedEventIDs: []int{testDuoEventID},
		Partners:         map[int]int{testDuoEventID: testPartnerID},
		Responses:        map[int]string{testFieldID: "yes"},
	}

	result, err := env.validator.Validate(context.Background(), testActorID, testTournamentID, draft)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.True(t, result.RequirementsMet["partner_selected_200"])
	assert.False(t, result.RequirementsMet["partner_in_event_200"])
	assert.False(t, result.RequirementsMet["partner_events_handled"])
}

// A partner already paired with somebody else warns but does not block;
// committing rewires the pairing.
func TestValidatePartnerAlreadyPairedWarns(t *testing.T) {
	env := newTestEnv()
	env.seedReadySignup()
	env.seedPartnerEvent()

	rivalID := 3
	env.users.users[rivalID] = &models.User{ID: rivalID, FirstName: "Casey", LastName: "Moran", AccountClaimed: true}
	env.signups.signups[entryKey{testPartnerID, testTournamentID, testDuoEventID}] = &models.Signup{
		ID: 77, UserID: testPartnerID, TournamentID: testTournamentID, EventID: testDuoEventID,
		IsGoing: true, PartnerID: &rivalID,
	}

	draft := &models.SignupDraft{
		TournamentID:     testTournamentID,
		SelectedEventIDs: []int{testDuoEventID},
		Partners:         map[int]int{testDuoEventID: testPartnerID},
		Responses:        map[int]string{testFieldID: "yes"},
	}

	result, err := env.validator.Validate(context.Background(), testActorID, testTournamentID, draft)
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "Casey Moran")
	assert.True(t, result.RequirementsMet["partner_events_handled"])
}

func TestValidateExistingSignupWarnsNotBlocks(t *testing.T) {
	env := newTestEnv()
	env.seedReadySignup()
	env.signups.signups[entryKey{testActorID, testTournamentID, testSoloEventID}] = &models.Signup{
		ID: 5, UserID: testActorID, TournamentID: testTournamentID, EventID: testSoloEventID, IsGoing: true,
	}

	result, err := env.validator.Validate(context.Background(), testActorID, testTournamentID, env.soloDraft())
	require.NoError(t, err)

	assert.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "duplicates", result.Warnings[0].Field)
	assert.Contains(t, result.Warnings[0].Message, "Original Oratory")
	assert.True(t, result.RequirementsMet["no_duplicates_or_acknowledged"])
}
