package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speechteam/tournament-signup/models"
	"github.com/speechteam/tournament-signup/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"tournament missing", services.ErrTournamentNotFound, http.StatusNotFound},
		{"user missing", services.ErrUserNotFound, http.StatusNotFound},
		{"bad draft payload", services.ErrDraftPayloadInvalid, http.StatusBadRequest},
		{"expired draft payload", services.ErrDraftPayloadExpired, http.StatusBadRequest},
		{"missing confirmations", services.ErrConfirmationsMissing, http.StatusBadRequest},
		{"results closed", services.ErrResultsClosed, http.StatusConflict},
		{"duplicate performance", services.ErrPerformanceAlreadySubmitted, http.StatusConflict},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			mapServiceErrorToHTTP(rec, req, tc.err)
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestMapServiceErrorCommitFailedIsRetryable(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/signup/commit", nil)

	mapServiceErrorToHTTP(rec, req, fmt.Errorf("%w: connection reset", services.ErrCommitFailed))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Error struct {
			Message   string `json:"message"`
			Retryable bool   `json:"retryable"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Error.Retryable)
	assert.NotEmpty(t, body.Error.Message)
}

func TestMapServiceErrorValidationFailedListsEveryIssue(t *testing.T) {
	result := models.NewValidationResult()
	result.AddError("deadline", "Signup deadline has passed", "Contact your coach")
	result.AddError("form", "Missing required information", "Fill out: Attending?")
	result.AddWarning("duplicates", "Already signed up", "Existing signup will be updated")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/signup/review", nil)

	mapServiceErrorToHTTP(rec, req, &services.ValidationFailedError{Result: result})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Validation models.ValidationResult `json:"validation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Validation.Valid)
	assert.Len(t, body.Validation.Errors, 2)
	assert.Len(t, body.Validation.Warnings, 1)
}

func TestReadJSONTriage(t *testing.T) {
	type payload struct {
		TournamentID int `json:"tournament_id"`
	}

	cases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"empty body", "", "body must not be empty"},
		{"syntax error", "{", "badly-formed JSON"},
		{"wrong type", `{"tournament_id": "ten"}`, "incorrect JSON type"},
		{"unknown field", `{"tournamnet_id": 10}`, "unknown key"},
		{"trailing value", `{"tournament_id": 10}{}`, "single JSON value"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))

			var dst payload
			err := readJSON(rec, req, &dst)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"tournament_id": 10}`))
	var dst payload
	require.NoError(t, readJSON(rec, req, &dst))
	assert.Equal(t, 10, dst.TournamentID)
}

func TestGetQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/signup/requirements?tournament_id=7", nil)
	id, err := getQueryInt(req, "tournament_id")
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	for _, target := range []string{"/x", "/x?tournament_id=abc", "/x?tournament_id=0", "/x?tournament_id=-3"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		_, err := getQueryInt(req, "tournament_id")
		assert.Error(t, err, "target %s", target)
	}
}
