package handlers

import (
	"errors"
	"net/http"

	"github.com/speechteam/tournament-signup/middleware"
	"github.com/speechteam/tournament-signup/models"
	"github.com/speechteam/tournament-signup/services"
)

// SignupHandler exposes the signup precheck, validation and the three-stage
// confirmation workflow over HTTP. The draft never lives server-side between
// stages; it rides in the request and response as a signed payload.
type SignupHandler struct {
	requirements *services.RequirementsService
	validator    *services.SignupValidator
	workflow     *services.SignupWorkflow
}

func NewSignupHandler(
	requirements *services.RequirementsService,
	validator *services.SignupValidator,
	workflow *services.SignupWorkflow,
) *SignupHandler {
	return &SignupHandler{
		requirements: requirements,
		validator:    validator,
		workflow:     workflow,
	}
}

type draftRequest struct {
	TournamentID     int            `json:"tournament_id"`
	SelectedEventIDs []int          `json:"selected_event_ids"`
	Partners         map[int]int    `json:"partners,omitempty"`
	FormResponses    map[int]string `json:"form_responses,omitempty"`
	BringingJudge    bool           `json:"bringing_judge"`
}

func (req *draftRequest) toDraft() *models.SignupDraft {
	return &models.SignupDraft{
		TournamentID:     req.TournamentID,
		SelectedEventIDs: req.SelectedEventIDs,
		Partners:         req.Partners,
		Responses:        req.FormResponses,
		BringingJudge:    req.BringingJudge,
	}
}

type stageRequest struct {
	DraftPayload  string          `json:"draft_payload"`
	Confirmations map[string]bool `json:"confirmations"`
}

// Requirements handles GET /signup/requirements?tournament_id=N. It returns
// the read-only precheck summary without touching any signup state.
func (h *SignupHandler) Requirements(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	tournamentID, err := getQueryInt(r, "tournament_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	summary, err := h.requirements.Summary(r.Context(), actorID, tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, summary, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Validate handles POST /signup/validate. It runs the full fail-slow pass
// over a draft and always returns the complete result, valid or not, with
// 200. Rejection statuses are reserved for the workflow stages.
func (h *SignupHandler) Validate(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var req draftRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	draft := req.toDraft()
	result, err := h.validator.Validate(r.Context(), actorID, draft.TournamentID, draft)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Review handles POST /signup/review, the entry into the confirmation
// workflow. An invalid draft rejects with 422 and the full issue list.
func (h *SignupHandler) Review(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var req draftRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	payload, err := h.workflow.BeginReview(r.Context(), actorID, req.toDraft())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, payload, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// FinalWarning handles POST /signup/final. The review-stage confirmations
// must all be checked; the draft payload must round-trip intact.
func (h *SignupHandler) FinalWarning(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var req stageRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	payload, err := h.workflow.BeginFinalWarning(r.Context(), actorID, req.DraftPayload, req.Confirmations)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, payload, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Commit handles POST /signup/commit, the terminal workflow stage. On
// success it returns 201 with the confirmation and transaction identifiers;
// on a store fault it returns 503 and the client may retry the same draft.
func (h *SignupHandler) Commit(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var req stageRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.workflow.Commit(r.Context(), actorID, req.DraftPayload, req.Confirmations)
	if err != nil {
		// A rolled-back commit hands the untouched draft back so the user
		// can retry without re-entering anything.
		if errors.Is(err, services.ErrCommitFailed) {
			errorResponse(w, r, http.StatusServiceUnavailable, jsonResponse{
				"message":       services.ErrCommitFailed.Error(),
				"retryable":     true,
				"draft_payload": req.DraftPayload,
			})
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
