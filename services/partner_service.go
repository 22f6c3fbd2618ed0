package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/speechteam/tournament-signup/models"
	"github.com/speechteam/tournament-signup/repositories"
)

// PartnerMatch is one partner-search hit.
type PartnerMatch struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// PartnerSearchService finds eligible partners for a partner event: active
// members of the event, matched by name, never the searching user. The
// short-query and missing-event cases return an empty result rather than an
// error so the picker can poll as the user types.
type PartnerSearchService struct {
	userRepo repositories.UserRepository
}

func NewPartnerSearchService(userRepo repositories.UserRepository) *PartnerSearchService {
	return &PartnerSearchService{userRepo: userRepo}
}

// Search returns up to 10 matches. Queries under 2 characters or a missing
// event id yield an empty slice, nil error.
func (s *PartnerSearchService) Search(ctx context.Context, query string, eventID, actorID int) ([]PartnerMatch, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 || eventID <= 0 {
		return []PartnerMatch{}, nil
	}

	users, err := s.userRepo.SearchEventMembers(ctx, query, eventID, actorID)
	if err != nil {
		return nil, fmt.Errorf("partner search: %w", err)
	}

	matches := make([]PartnerMatch, 0, len(users))
	for _, u := range users {
		matches = append(matches, partnerMatchFromUser(u))
	}
	return matches, nil
}

func partnerMatchFromUser(u models.User) PartnerMatch {
	return PartnerMatch{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
}
