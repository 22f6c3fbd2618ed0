package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorkflow(env *testEnv) *SignupWorkflow {
	codec := NewDraftCodec("workflow-test-key", 0)
	return NewSignupWorkflow(env.validator, env.committer, codec, env.tournaments, env.events, env.users)
}

func allReviewAcks() map[string]bool {
	return map[string]bool{
		"confirm_info_accurate": true,
		"confirm_commitment":    true,
	}
}

func allFinalAcks() map[string]bool {
	return map[string]bool{
		"final_confirm_reviewed":                true,
		"final_confirm_no_mistakes":             true,
		"final_confirm_understand_consequences": true,
	}
}

func TestWorkflowFullPass(t *testing.T) {
	env := newTestEnv()
	env.seedReadySignup()
	workflow := newTestWorkflow(env)
	ctx := context.Background()

	review, err := workflow.BeginReview(ctx, testActorID, env.soloDraft())
	require.NoError(t, err)
	require.NotNil(t, review)
	assert.Equal(t, "Lakeside Invitational", review.Tournament.Name)
	require.Len(t, review.Events, 1)
	assert.Equal(t, "Original Oratory", review.Events[0].Name)
	assert.NotEmpty(t, review.DraftPayload)
	require.NotNil(t, review.Validation)
	assert.True(t, review.Validation.Valid)

	final, err := workflow.BeginFinalWarning(ctx, testActorID, review.DraftPayload, allReviewAcks())
	require.NoError(t, err)
	assert.NotEmpty(t, final.DraftPayload)

	result, err := workflow.Commit(ctx, testActorID, final.DraftPayload, allFinalAcks())
	require.NoError(t, err)
	require.Len(t, result.Signups, 1)
	assert.Equal(t, testSoloEventID, result.Signups[0].EventID)
	assert.NotEmpty(t, result.ConfirmationID)
}

func TestWorkflowReviewRejectsInvalidDraft(t *testing.T) {
	env := newTestEnv()
	env.seedReadySignup()
	workflow := newTestWorkflow(env)

	draft := env.soloDraft()
	draft.Responses = nil // required field missing

	_, err := workflow.BeginReview(context.Background(), testActorID, draft)
	vErr, ok := AsValidationFailed(err)
	require.True(t, ok)
	assert.False(t, vErr.Result.Valid)
	assert.NotEmpty(t, vErr.Result.Errors)
}

func TestWorkflowFinalWarningRequiresAllReviewAcks(t *testing.T) {
	env := newTestEnv()
	env.seedReadySignup()
	workflow := newTestWorkflow(env)
	ctx := context.Background()

	review, err := workflow.BeginReview(ctx, testActorID, env.soloDraft())
	require.NoError(t, err)

	acks := allReviewAcks()
	acks["confirm_commitment"] = false
	_, err = workflow.BeginFinalWarning(ctx, testActorID, review.DraftPayload, acks)
	assert.ErrorIs(t, err, ErrConfirmationsMissing)

	_, err = workflow.BeginFinalWarning(ctx, testActorID, review.DraftPayload, nil)
	assert.ErrorIs(t, err, ErrConfirmationsMissing)
}

func TestWorkflowCommitRequiresAllFinalAcks(t *testing.T) {
	env := newTestEnv()
	env.seedReadySignup()
	workflow := newTestWorkflow(env)
	ctx := context.Background()

	review, err := workflow.BeginReview(ctx, testActorID, env.soloDraft())
	require.NoError(t, err)
	final, err := workflow.BeginFinalWarning(ctx, testActorID, review.DraftPayload, allReviewAcks())
	require.NoError(t, err)

	acks := allFinalAcks()
	acks["final_confirm_no_mistakes"] = false
	_, err = workflow.Commit(ctx, testActorID, final.DraftPayload, acks)
	assert.ErrorIs(t, err, ErrConfirmationsMissing)

	// Nothing may be persisted while an acknowledgement is missing.
	assert.Empty(t, env.signups.signups)
}

func TestWorkflowRejectsForeignOrMangledPayload(t *testing.T) {
	env := newTestEnv()
	env.seedReadySignup()
	workflow := newTestWorkflow(env)
	ctx := context.Background()

	review, err := workflow.BeginReview(ctx, testActorID, env.soloDraft())
	require.NoError(t, err)

	// Another actor cannot replay this draft.
	_, err = workflow.BeginFinalWarning(ctx, 42, review.DraftPayload, allReviewAcks())
	assert.ErrorIs(t, err, ErrDraftPayloadInvalid)

	_, err = workflow.Commit(ctx, testActorID, "mangled.payload", allFinalAcks())
	assert.ErrorIs(t, err, ErrDraftPayloadInvalid)
}

// A draft that went stale between Review and Commit must be rejected by the
// commit-time re-validation, with zero writes.
func TestWorkflowCommitRejectsStaleDraft(t *testing.T) {
	env := newTestEnv()
	env.seedReadySignup()
	workflow := newTestWorkflow(env)
	ctx := context.Background()

	review, err := workflow.BeginReview(ctx, testActorID, env.soloDraft())
	require.NoError(t, err)
	final, err := workflow.BeginFinalWarning(ctx, testActorID, review.DraftPayload, allReviewAcks())
	require.NoError(t, err)

	// Membership revoked after the review was rendered.
	env.events.memberships[testActorID][testSoloEventID] = false

	_, err = workflow.Commit(ctx, testActorID, final.DraftPayload, allFinalAcks())
	_, ok := AsValidationFailed(err)
	require.True(t, ok)
	assert.Empty(t, env.signups.signups)
}
