package handlers

import (
	"net/http"

	"github.com/speechteam/tournament-signup/middleware"
	"github.com/speechteam/tournament-signup/models"
	"github.com/speechteam/tournament-signup/services"
)

type ResultsHandler struct {
	results *services.ResultsService
}

func NewResultsHandler(results *services.ResultsService) *ResultsHandler {
	return &ResultsHandler{results: results}
}

type submitPerformanceRequest struct {
	Bid   bool   `json:"bid"`
	Rank  int    `json:"rank"`
	Stage string `json:"stage,omitempty"`
}

// SubmitPerformance handles POST /tournaments/{tournamentID}/results. Each
// competitor reports their own placement once per tournament.
func (h *ResultsHandler) SubmitPerformance(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req submitPerformanceRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stage := models.ParseEliminationStage(req.Stage)
	performance, err := h.results.SubmitPerformance(r.Context(), userID, tournamentID, req.Bid, req.Rank, stage)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, performance, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
