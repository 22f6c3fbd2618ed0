package models

import "time"

// Tournament is a recurring competitive meet with a signup deadline and a
// per-tournament registration form. SignupDeadline is stored as a naive
// timestamp and must go through tz.Normalize before any comparison.
type Tournament struct {
	ID                  int       `json:"id"`
	Name                string    `json:"name"`
	Date                time.Time `json:"date"`
	Address             string    `json:"address"`
	SignupDeadline      time.Time `json:"signup_deadline"`
	PerformanceDeadline time.Time `json:"performance_deadline"`
	ResultsSubmitted    bool      `json:"results_submitted"`
	CreatedAt           time.Time `json:"created_at"`
}

// FormField is one question on a tournament's registration form.
type FormField struct {
	ID           int     `json:"id"`
	TournamentID int     `json:"tournament_id"`
	Label        string  `json:"label"`
	Type         string  `json:"type"`
	Options      *string `json:"options,omitempty"`
	Required     bool    `json:"required"`
	FieldOrder   int     `json:"field_order"`
}

// FormResponse is a user's answer to one form field. There is at most one
// row per (tournament, user, field); resubmission replaces the row.
type FormResponse struct {
	ID           int       `json:"id"`
	TournamentID int       `json:"tournament_id"`
	UserID       int       `json:"user_id"`
	FieldID      int       `json:"field_id"`
	Response     string    `json:"response"`
	SubmittedAt  time.Time `json:"submitted_at"`
}
