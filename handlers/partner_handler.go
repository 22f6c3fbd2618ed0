package handlers

import (
	"net/http"
	"strconv"

	"github.com/speechteam/tournament-signup/middleware"
	"github.com/speechteam/tournament-signup/services"
)

type PartnerHandler struct {
	search *services.PartnerSearchService
}

func NewPartnerHandler(search *services.PartnerSearchService) *PartnerHandler {
	return &PartnerHandler{search: search}
}

// Search handles GET /partners/search?q=...&event_id=N. Short queries and
// missing event ids return an empty list rather than an error so the client
// can call it on every keystroke.
func (h *PartnerHandler) Search(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	query := r.URL.Query().Get("q")
	eventID, _ := strconv.Atoi(r.URL.Query().Get("event_id"))

	matches, err := h.search.Search(r.Context(), query, eventID, actorID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"partners": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
