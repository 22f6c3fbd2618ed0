package models

import "time"

// EliminationStage is how deep into elimination rounds a competitor advanced.
type EliminationStage int

const (
	StageNone           EliminationStage = 0
	StageDoubleOctas    EliminationStage = 1
	StageOctafinals     EliminationStage = 2
	StageQuarterfinals  EliminationStage = 3
	StageSemifinals     EliminationStage = 4
	StageFinals         EliminationStage = 5
)

// ParseEliminationStage maps the submitted stage name to its numeric value.
// Unknown names fall back to StageNone.
func ParseEliminationStage(name string) EliminationStage {
	switch name {
	case "Double Octafinals":
		return StageDoubleOctas
	case "Octafinals":
		return StageOctafinals
	case "Quarter Finals":
		return StageQuarterfinals
	case "Semifinals":
		return StageSemifinals
	case "Finals":
		return StageFinals
	default:
		return StageNone
	}
}

// TournamentPerformance records one competitor's result at one tournament,
// with the points awarded by the scoring table. One row per (user, tournament).
type TournamentPerformance struct {
	ID           int              `json:"id"`
	UserID       int              `json:"user_id"`
	TournamentID int              `json:"tournament_id"`
	Points       int              `json:"points"`
	Bid          bool             `json:"bid"`
	Rank         int              `json:"rank"`
	Stage        EliminationStage `json:"stage"`
	CreatedAt    time.Time        `json:"created_at"`
}
