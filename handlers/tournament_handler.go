package handlers

import (
	"net/http"
	"strconv"

	"github.com/speechteam/tournament-signup/repositories"
	"github.com/speechteam/tournament-signup/services"
)

type TournamentHandler struct {
	tournaments *services.TournamentService
}

func NewTournamentHandler(tournaments *services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournaments: tournaments}
}

// List handles GET /tournaments?upcoming=true&limit=N&offset=N.
func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ListTournamentsFilter{
		UpcomingOnly: r.URL.Query().Get("upcoming") == "true",
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}

	tournaments, err := h.tournaments.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByID handles GET /tournaments/{id}.
func (h *TournamentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournaments.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, tournament, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// FormFields handles GET /tournaments/{tournamentID}/form.
func (h *TournamentHandler) FormFields(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	fields, err := h.tournaments.FormFields(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"fields": fields}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
