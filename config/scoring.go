package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

//go:embed scoring.toml
var defaultScoringTOML []byte

// RankTier awards points for a speaker rank falling inside [MinRank, MaxRank].
type RankTier struct {
	MinRank int `toml:"min_rank"`
	MaxRank int `toml:"max_rank"`
	Points  int `toml:"points"`
}

// Scoring holds the point-award table for performance submissions. The
// defaults are embedded; SCORING_CONFIG may point at a TOML file that
// replaces them wholesale.
type Scoring struct {
	FirstBidPoints      int        `toml:"first_bid_points"`
	RepeatBidPoints     int        `toml:"repeat_bid_points"`
	ParticipationPoints int        `toml:"participation_points"`
	StageBase           int        `toml:"stage_base"`
	RankTiers           []RankTier `toml:"rank_tiers"`
}

// LoadScoring parses the scoring table from path, or from the embedded
// defaults when path is empty.
func LoadScoring(path string) (Scoring, error) {
	data := defaultScoringTOML
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return Scoring{}, fmt.Errorf("read scoring config %s: %w", path, err)
		}
		data = fileData
	}

	var s Scoring
	if err := toml.Unmarshal(data, &s); err != nil {
		return Scoring{}, fmt.Errorf("parse scoring config: %w", err)
	}
	if err := s.validate(); err != nil {
		return Scoring{}, err
	}
	return s, nil
}

func (s Scoring) validate() error {
	if s.FirstBidPoints < 0 || s.RepeatBidPoints < 0 || s.ParticipationPoints < 0 {
		return fmt.Errorf("scoring config: point values must not be negative")
	}
	for _, tier := range s.RankTiers {
		if tier.MinRank <= 0 || tier.MaxRank < tier.MinRank {
			return fmt.Errorf("scoring config: invalid rank tier [%d, %d]", tier.MinRank, tier.MaxRank)
		}
	}
	return nil
}

// RankPoints returns the award for the given speaker rank, zero when no
// tier matches.
func (s Scoring) RankPoints(rank int) int {
	for _, tier := range s.RankTiers {
		if rank >= tier.MinRank && rank <= tier.MaxRank {
			return tier.Points
		}
	}
	return 0
}
