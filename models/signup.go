package models

import "time"

// Signup is a user's persisted registration for one event at one tournament.
// Unique per (user, tournament, event). PartnerID links partner-event
// pairings: if A's signup for event E names partner B, B's signup for the
// same (tournament, E) points back at A. That reciprocity is maintained by
// the committer, not by a store constraint.
type Signup struct {
	ID            int       `json:"id"`
	UserID        int       `json:"user_id"`
	TournamentID  int       `json:"tournament_id"`
	EventID       int       `json:"event_id"`
	IsGoing       bool      `json:"is_going"`
	PartnerID     *int      `json:"partner_id,omitempty"`
	BringingJudge bool      `json:"bringing_judge"`
	JudgeID       *int      `json:"judge_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// JudgeRequest tracks the judge a competitor owes for an entry. Created at
// signup with no judge assigned; a parent later claims it and accepts.
// At most one row per (child, tournament, event).
type JudgeRequest struct {
	ID           int       `json:"id"`
	ChildID      int       `json:"child_id"`
	TournamentID int       `json:"tournament_id"`
	EventID      int       `json:"event_id"`
	JudgeID      *int      `json:"judge_id,omitempty"`
	Accepted     bool      `json:"accepted"`
	CreatedAt    time.Time `json:"created_at"`
}
