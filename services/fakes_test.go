package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/speechteam/tournament-signup/models"
	"github.com/speechteam/tournament-signup/repositories"
	"github.com/speechteam/tournament-signup/tz"
)

// The fakes below back every service test with in-memory state. They ignore
// the SQLExecutor because there is no SQL; the fake transactor provides
// atomicity by snapshotting each store before the function runs and
// restoring on failure.

type entryKey struct {
	userID       int
	tournamentID int
	eventID      int
}

type snapshotter interface {
	snapshot()
	restore()
}

// fakeTransactor mimics the all-or-nothing guarantee of a real transaction
// over the in-memory stores.
type fakeTransactor struct {
	stores []snapshotter
}

func (t *fakeTransactor) InTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	for _, s := range t.stores {
		s.snapshot()
	}
	if err := fn(nil); err != nil {
		for _, s := range t.stores {
			s.restore()
		}
		return err
	}
	return nil
}

type fakeUserRepo struct {
	users       map[int]*models.User
	searchHits  []models.User
	lastQuery   string
	lastEventID int
	lastExclude int

	saved map[int]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int]*models.User{}}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) SearchEventMembers(_ context.Context, query string, eventID, excludeUserID int) ([]models.User, error) {
	r.lastQuery = query
	r.lastEventID = eventID
	r.lastExclude = excludeUserID
	return r.searchHits, nil
}

func (r *fakeUserRepo) AddPointsAndBids(_ context.Context, _ repositories.SQLExecutor, userID, points, bids int) error {
	user, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.Points += points
	user.Bids += bids
	return nil
}

func (r *fakeUserRepo) snapshot() {
	r.saved = make(map[int]models.User, len(r.users))
	for id, u := range r.users {
		r.saved[id] = *u
	}
}

func (r *fakeUserRepo) restore() {
	r.users = make(map[int]*models.User, len(r.saved))
	for id := range r.saved {
		u := r.saved[id]
		r.users[id] = &u
	}
}

type fakeEventRepo struct {
	events      map[int]*models.Event
	memberships map[int]map[int]bool // userID -> eventID -> active
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		events:      map[int]*models.Event{},
		memberships: map[int]map[int]bool{},
	}
}

func (r *fakeEventRepo) addMembership(userID, eventID int) {
	if r.memberships[userID] == nil {
		r.memberships[userID] = map[int]bool{}
	}
	r.memberships[userID][eventID] = true
}

func (r *fakeEventRepo) GetByID(_ context.Context, id int) (*models.Event, error) {
	event, ok := r.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (r *fakeEventRepo) ListActiveByUser(_ context.Context, userID int) ([]models.Event, error) {
	var out []models.Event
	for eventID, active := range r.memberships[userID] {
		if !active {
			continue
		}
		if event, ok := r.events[eventID]; ok {
			out = append(out, *event)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) HasActiveMembership(_ context.Context, userID, eventID int) (bool, error) {
	return r.memberships[userID][eventID], nil
}

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: map[int]*models.Tournament{}}
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	tournament, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *tournament
	return &copied, nil
}

func (r *fakeTournamentRepo) List(_ context.Context, _ repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	var out []models.Tournament
	for _, t := range r.tournaments {
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTournamentRepo) MarkResultsSubmitted(_ context.Context, _ repositories.SQLExecutor, id int) error {
	tournament, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	tournament.ResultsSubmitted = true
	return nil
}

type responseKey struct {
	tournamentID int
	userID       int
	fieldID      int
}

type fakeFormRepo struct {
	fields    map[int][]models.FormField // by tournament
	responses map[responseKey]*models.FormResponse

	createErrOnField int // inject a failure for one field id
	nextID           int

	saved map[responseKey]models.FormResponse
}

func newFakeFormRepo() *fakeFormRepo {
	return &fakeFormRepo{
		fields:    map[int][]models.FormField{},
		responses: map[responseKey]*models.FormResponse{},
	}
}

func (r *fakeFormRepo) ListFieldsByTournament(_ context.Context, tournamentID int) ([]models.FormField, error) {
	return r.fields[tournamentID], nil
}

func (r *fakeFormRepo) ListRequiredFieldsByTournament(_ context.Context, tournamentID int) ([]models.FormField, error) {
	var out []models.FormField
	for _, f := range r.fields[tournamentID] {
		if f.Required {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFormRepo) DeleteResponse(_ context.Context, _ repositories.SQLExecutor, tournamentID, userID, fieldID int) error {
	delete(r.responses, responseKey{tournamentID, userID, fieldID})
	return nil
}

func (r *fakeFormRepo) CreateResponse(_ context.Context, _ repositories.SQLExecutor, response *models.FormResponse) error {
	if r.createErrOnField != 0 && response.FieldID == r.createErrOnField {
		return fmt.Errorf("simulated store fault on field %d", response.FieldID)
	}
	key := responseKey{response.TournamentID, response.UserID, response.FieldID}
	if _, exists := r.responses[key]; exists {
		return repositories.ErrFormResponseConflict
	}
	r.nextID++
	response.ID = r.nextID
	copied := *response
	r.responses[key] = &copied
	return nil
}

func (r *fakeFormRepo) snapshot() {
	r.saved = make(map[responseKey]models.FormResponse, len(r.responses))
	for k, resp := range r.responses {
		r.saved[k] = *resp
	}
}

func (r *fakeFormRepo) restore() {
	r.responses = make(map[responseKey]*models.FormResponse, len(r.saved))
	for k := range r.saved {
		resp := r.saved[k]
		r.responses[k] = &resp
	}
}

type fakeSignupRepo struct {
	signups map[entryKey]*models.Signup
	nextID  int

	saved map[entryKey]models.Signup
}

func newFakeSignupRepo() *fakeSignupRepo {
	return &fakeSignupRepo{signups: map[entryKey]*models.Signup{}}
}

func (r *fakeSignupRepo) Find(_ context.Context, _ repositories.SQLExecutor, userID, tournamentID, eventID int) (*models.Signup, error) {
	signup, ok := r.signups[entryKey{userID, tournamentID, eventID}]
	if !ok {
		return nil, repositories.ErrSignupNotFound
	}
	copied := *signup
	return &copied, nil
}

func (r *fakeSignupRepo) Create(_ context.Context, _ repositories.SQLExecutor, signup *models.Signup) error {
	key := entryKey{signup.UserID, signup.TournamentID, signup.EventID}
	if _, exists := r.signups[key]; exists {
		return repositories.ErrSignupConflict
	}
	r.nextID++
	signup.ID = r.nextID
	copied := *signup
	r.signups[key] = &copied
	return nil
}

func (r *fakeSignupRepo) Update(_ context.Context, _ repositories.SQLExecutor, signup *models.Signup) error {
	key := entryKey{signup.UserID, signup.TournamentID, signup.EventID}
	if _, exists := r.signups[key]; !exists {
		return repositories.ErrSignupNotFound
	}
	copied := *signup
	r.signups[key] = &copied
	return nil
}

func (r *fakeSignupRepo) ListGoingByUserAndTournament(_ context.Context, userID, tournamentID int, eventIDs []int) ([]models.Signup, error) {
	wanted := map[int]bool{}
	for _, id := range eventIDs {
		wanted[id] = true
	}
	var out []models.Signup
	for key, signup := range r.signups {
		if key.userID != userID || key.tournamentID != tournamentID || !signup.IsGoing {
			continue
		}
		if len(eventIDs) > 0 && !wanted[key.eventID] {
			continue
		}
		out = append(out, *signup)
	}
	return out, nil
}

func (r *fakeSignupRepo) FindGoingByUserTournamentEvent(_ context.Context, userID, tournamentID, eventID int) (*models.Signup, error) {
	signup, ok := r.signups[entryKey{userID, tournamentID, eventID}]
	if !ok || !signup.IsGoing {
		return nil, repositories.ErrSignupNotFound
	}
	copied := *signup
	return &copied, nil
}

func (r *fakeSignupRepo) snapshot() {
	r.saved = make(map[entryKey]models.Signup, len(r.signups))
	for k, s := range r.signups {
		r.saved[k] = *s
	}
}

func (r *fakeSignupRepo) restore() {
	r.signups = make(map[entryKey]*models.Signup, len(r.saved))
	for k := range r.saved {
		s := r.saved[k]
		r.signups[k] = &s
	}
}

type fakeJudgeRepo struct {
	requests map[entryKey]*models.JudgeRequest
	nextID   int

	saved map[entryKey]models.JudgeRequest
}

func newFakeJudgeRepo() *fakeJudgeRepo {
	return &fakeJudgeRepo{requests: map[entryKey]*models.JudgeRequest{}}
}

func (r *fakeJudgeRepo) Find(_ context.Context, _ repositories.SQLExecutor, childID, tournamentID, eventID int) (*models.JudgeRequest, error) {
	request, ok := r.requests[entryKey{childID, tournamentID, eventID}]
	if !ok {
		return nil, repositories.ErrJudgeRequestNotFound
	}
	copied := *request
	return &copied, nil
}

func (r *fakeJudgeRepo) Create(_ context.Context, _ repositories.SQLExecutor, request *models.JudgeRequest) error {
	key := entryKey{request.ChildID, request.TournamentID, request.EventID}
	if _, exists := r.requests[key]; exists {
		return repositories.ErrJudgeRequestConflict
	}
	r.nextID++
	request.ID = r.nextID
	copied := *request
	r.requests[key] = &copied
	return nil
}

func (r *fakeJudgeRepo) snapshot() {
	r.saved = make(map[entryKey]models.JudgeRequest, len(r.requests))
	for k, req := range r.requests {
		r.saved[k] = *req
	}
}

func (r *fakeJudgeRepo) restore() {
	r.requests = make(map[entryKey]*models.JudgeRequest, len(r.saved))
	for k := range r.saved {
		req := r.saved[k]
		r.requests[k] = &req
	}
}

type performanceKey struct {
	userID       int
	tournamentID int
}

type fakePerformanceRepo struct {
	performances map[performanceKey]*models.TournamentPerformance
	nextID       int
	createErr    error

	saved map[performanceKey]models.TournamentPerformance
}

func newFakePerformanceRepo() *fakePerformanceRepo {
	return &fakePerformanceRepo{performances: map[performanceKey]*models.TournamentPerformance{}}
}

func (r *fakePerformanceRepo) Create(_ context.Context, _ repositories.SQLExecutor, performance *models.TournamentPerformance) error {
	if r.createErr != nil {
		return r.createErr
	}
	key := performanceKey{performance.UserID, performance.TournamentID}
	if _, exists := r.performances[key]; exists {
		return repositories.ErrPerformanceConflict
	}
	r.nextID++
	performance.ID = r.nextID
	copied := *performance
	r.performances[key] = &copied
	return nil
}

func (r *fakePerformanceRepo) FindByUserAndTournament(_ context.Context, userID, tournamentID int) (*models.TournamentPerformance, error) {
	performance, ok := r.performances[performanceKey{userID, tournamentID}]
	if !ok {
		return nil, repositories.ErrPerformanceNotFound
	}
	copied := *performance
	return &copied, nil
}

func (r *fakePerformanceRepo) HasPriorBid(_ context.Context, userID int) (bool, error) {
	for key, p := range r.performances {
		if key.userID == userID && p.Bid {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePerformanceRepo) snapshot() {
	r.saved = make(map[performanceKey]models.TournamentPerformance, len(r.performances))
	for k, p := range r.performances {
		r.saved[k] = *p
	}
}

func (r *fakePerformanceRepo) restore() {
	r.performances = make(map[performanceKey]*models.TournamentPerformance, len(r.saved))
	for k := range r.saved {
		p := r.saved[k]
		r.performances[k] = &p
	}
}

// testEnv bundles the fakes with services wired the way main wires them,
// pinned to a fixed clock.
type testEnv struct {
	users        *fakeUserRepo
	events       *fakeEventRepo
	tournaments  *fakeTournamentRepo
	forms        *fakeFormRepo
	signups      *fakeSignupRepo
	judges       *fakeJudgeRepo
	performances *fakePerformanceRepo
	transactor   *fakeTransactor

	validator *SignupValidator
	committer *SignupCommitter

	now time.Time
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:        newFakeUserRepo(),
		events:       newFakeEventRepo(),
		tournaments:  newFakeTournamentRepo(),
		forms:        newFakeFormRepo(),
		signups:      newFakeSignupRepo(),
		judges:       newFakeJudgeRepo(),
		performances: newFakePerformanceRepo(),
		now:          time.Date(2026, time.March, 10, 12, 0, 0, 0, tz.Eastern),
	}
	env.transactor = &fakeTransactor{
		stores: []snapshotter{env.users, env.forms, env.signups, env.judges, env.performances},
	}

	env.validator = NewSignupValidator(env.users, env.tournaments, env.events, env.forms, env.signups)
	env.validator.now = func() time.Time { return env.now }

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.committer = NewSignupCommitter(env.validator, env.transactor, env.signups, env.judges, env.forms, env.events, nil, logger)
	env.committer.now = func() time.Time { return env.now }

	return env
}

const (
	testActorID      = 1
	testPartnerID    = 2
	testTournamentID = 10
	testSoloEventID  = 100
	testDuoEventID   = 200
	testFieldID      = 500
)

// seedReadySignup provisions an actor, tournament, solo event and one
// required form field such that a plain one-event draft validates cleanly.
// The deadline lands a week past the fixed clock.
func (env *testEnv) seedReadySignup() {
	env.users.users[testActorID] = &models.User{
		ID: testActorID, FirstName: "Avery", LastName: "Quinn", AccountClaimed: true,
	}
	env.tournaments.tournaments[testTournamentID] = &models.Tournament{
		ID:             testTournamentID,
		Name:           "Lakeside Invitational",
		Date:           env.now.AddDate(0, 0, 10),
		SignupDeadline: env.now.AddDate(0, 0, 7),
	}
	env.events.events[testSoloEventID] = &models.Event{ID: testSoloEventID, Name: "Original Oratory"}
	env.events.addMembership(testActorID, testSoloEventID)
	env.forms.fields[testTournamentID] = []models.FormField{
		{ID: testFieldID, TournamentID: testTournamentID, Label: "Attending?", Type: "select", Required: true},
	}
}

// seedPartnerEvent adds a duo event with a claimed partner who is a member.
func (env *testEnv) seedPartnerEvent() {
	env.users.users[testPartnerID] = &models.User{
		ID: testPartnerID, FirstName: "Blair", LastName: "Soto", AccountClaimed: true,
	}
	env.events.events[testDuoEventID] = &models.Event{ID: testDuoEventID, Name: "Public Forum", IsPartnerEvent: true}
	env.events.addMembership(testActorID, testDuoEventID)
	env.events.addMembership(testPartnerID, testDuoEventID)
}

func (env *testEnv) soloDraft() *models.SignupDraft {
	return &models.SignupDraft{
		TournamentID:     testTournamentID,
		SelectedEventIDs: []int{testSoloEventID},
		Responses:        map[int]string{testFieldID: "yes"},
	}
}
