// Package session runs one timed test attempt on the client: it owns the
// countdown, navigation and answer map, and hands the final answer sheet to a
// Submitter exactly once per attempt.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iqscaler/iqscaler-backend/internal/model"
)

// State is the lifecycle stage of a Controller.
type State int

const (
	StateNotStarted State = iota
	StateActive
	StateSubmitting
	StateFinished
	// StateFailed means the last submission was rejected; Retry sends it again.
	StateFailed
	// StateDiscarded means the attempt was abandoned without submitting.
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateActive:
		return "active"
	case StateSubmitting:
		return "submitting"
	case StateFinished:
		return "finished"
	case StateFailed:
		return "failed"
	case StateDiscarded:
		return "discarded"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	ErrNoQuestions      = errors.New("session: no questions loaded")
	ErrInvalidDuration  = errors.New("session: test duration must be positive")
	ErrAlreadyStarted   = errors.New("session: already started")
	ErrNotActive        = errors.New("session: not active")
	ErrNotFailed        = errors.New("session: no failed submission to retry")
	ErrOutOfRange       = errors.New("session: question index out of range")
	ErrUnknownQuestion  = errors.New("session: question is not part of this test")
	ErrNotVisited       = errors.New("session: question has not been shown yet")
	ErrOptionOutOfRange = errors.New("session: option index out of range")
)

// SubmitError is returned when the Submitter rejects the answer sheet. The
// attempt is left in StateFailed and can be retried with the same payload.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string { return "session: submit failed: " + e.Err.Error() }
func (e *SubmitError) Unwrap() error { return e.Err }

// Retryable is always true; a rejected submission never ends the attempt.
func (e *SubmitError) Retryable() bool { return true }

// Submitter sends a finished answer sheet and returns the stored result id.
type Submitter interface {
	Submit(ctx context.Context, req model.SubmitRequest) (uuid.UUID, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, req model.SubmitRequest) (uuid.UUID, error)

func (f SubmitterFunc) Submit(ctx context.Context, req model.SubmitRequest) (uuid.UUID, error) {
	return f(ctx, req)
}

// EventKind tells listeners what changed.
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventTick
)

// Event is delivered to the listener outside the controller lock.
type Event struct {
	Kind      EventKind
	State     State
	Remaining int
	// Auto is set when the submission was triggered by the countdown.
	Auto     bool
	ResultID uuid.UUID
	Err      error
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithListener registers fn for state changes and ticks. fn runs on the
// goroutine that caused the event and may call back into the controller.
func WithListener(fn func(Event)) Option {
	return func(ctl *Controller) { ctl.listener = fn }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(ctl *Controller) { ctl.log = log.With().Str("component", "session").Logger() }
}

// Controller is one test attempt. It is safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	questions []model.QuestionForUser
	position  map[uuid.UUID]int
	cfg       model.TestConfig
	submitter Submitter
	clock     Clock
	listener  func(Event)
	log       zerolog.Logger

	state     State
	current   int
	visited   []bool
	answers   map[uuid.UUID]int
	remaining int
	auto      bool

	ticker   Ticker
	stopTick chan struct{}

	payload  *model.SubmitRequest
	resultID uuid.UUID
	lastErr  error
	done     chan struct{}
}

// New prepares an attempt over questions. The question slice is copied.
func New(questions []model.QuestionForUser, cfg model.TestConfig, submitter Submitter, opts ...Option) *Controller {
	qs := make([]model.QuestionForUser, len(questions))
	copy(qs, questions)

	position := make(map[uuid.UUID]int, len(qs))
	for i, q := range qs {
		position[q.ID] = i
	}

	c := &Controller{
		questions: qs,
		position:  position,
		cfg:       cfg,
		submitter: submitter,
		clock:     RealClock(),
		log:       zerolog.Nop(),
		state:     StateNotStarted,
		visited:   make([]bool, len(qs)),
		answers:   make(map[uuid.UUID]int),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins the countdown. The attempt keeps running until it is
// submitted, discarded or ctx is cancelled.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateNotStarted {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	if len(c.questions) == 0 {
		c.mu.Unlock()
		return ErrNoQuestions
	}
	if c.cfg.DurationMinutes <= 0 {
		c.mu.Unlock()
		return ErrInvalidDuration
	}

	c.state = StateActive
	c.current = 0
	c.visited[0] = true
	c.remaining = c.cfg.TotalSeconds()
	c.ticker = c.clock.NewTicker(time.Second)
	c.stopTick = make(chan struct{})
	ev := c.stateEventLocked()
	go c.run(ctx, c.ticker, c.stopTick)
	c.mu.Unlock()

	c.log.Info().Int("questions", len(c.questions)).Int("seconds", ev.Remaining).Msg("Test started")
	c.notify(ev)
	return nil
}

func (c *Controller) run(ctx context.Context, ticker Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			c.Discard()
			return
		case <-stop:
			return
		case <-ticker.C():
			if c.tick() {
				_ = c.send(ctx)
				return
			}
		}
	}
}

// tick reports whether the countdown just expired and a submission must be sent.
func (c *Controller) tick() bool {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return false
	}
	c.remaining--
	if c.remaining > 0 {
		ev := Event{Kind: EventTick, State: c.state, Remaining: c.remaining}
		c.mu.Unlock()
		c.notify(ev)
		return false
	}

	c.remaining = 0
	tickEv := Event{Kind: EventTick, State: c.state, Remaining: 0}
	c.beginSubmitLocked(true)
	stateEv := c.stateEventLocked()
	c.mu.Unlock()

	c.log.Info().Msg("Time is up, submitting")
	c.notify(tickEv)
	c.notify(stateEv)
	return true
}

// Finish submits the attempt before the countdown ends.
func (c *Controller) Finish(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return ErrNotActive
	}
	c.beginSubmitLocked(false)
	ev := c.stateEventLocked()
	c.mu.Unlock()

	c.notify(ev)
	return c.send(ctx)
}

// Retry resends the payload captured by the failed submission.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateFailed {
		c.mu.Unlock()
		return ErrNotFailed
	}
	c.state = StateSubmitting
	c.lastErr = nil
	ev := c.stateEventLocked()
	c.mu.Unlock()

	c.notify(ev)
	return c.send(ctx)
}

// Discard abandons the attempt. Nothing is sent. A finished or discarded
// attempt is left untouched.
func (c *Controller) Discard() {
	c.mu.Lock()
	switch c.state {
	case StateFinished, StateDiscarded, StateSubmitting:
		c.mu.Unlock()
		return
	}
	c.stopTimerLocked()
	c.state = StateDiscarded
	ev := c.stateEventLocked()
	c.mu.Unlock()

	c.log.Debug().Msg("Test discarded")
	c.notify(ev)
}

// beginSubmitLocked freezes the attempt: the ticker stops before the state
// leaves Active, so no later tick can touch remaining.
func (c *Controller) beginSubmitLocked(auto bool) {
	c.stopTimerLocked()
	c.state = StateSubmitting
	c.auto = auto

	entries := make([]model.AnswerEntry, len(c.questions))
	for i, q := range c.questions {
		idx, ok := c.answers[q.ID]
		if !ok {
			idx = model.Unanswered
		}
		entries[i] = model.NewAnswerEntry(q.ID, idx)
	}
	elapsed := c.cfg.TotalSeconds() - c.remaining
	if elapsed < 0 {
		elapsed = 0
	}
	c.payload = &model.SubmitRequest{UserAnswers: entries, TimeTakenSeconds: elapsed}
}

func (c *Controller) stopTimerLocked() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	close(c.stopTick)
	c.ticker = nil
}

func (c *Controller) send(ctx context.Context) error {
	c.mu.Lock()
	req := *c.payload
	c.mu.Unlock()

	id, err := c.submitter.Submit(ctx, req)

	c.mu.Lock()
	if err != nil {
		c.state = StateFailed
		c.lastErr = err
		ev := c.stateEventLocked()
		c.mu.Unlock()

		c.log.Warn().Err(err).Msg("Submission failed")
		c.notify(ev)
		return &SubmitError{Err: err}
	}

	c.state = StateFinished
	c.resultID = id
	close(c.done)
	ev := c.stateEventLocked()
	c.mu.Unlock()

	c.log.Info().Str("result_id", id.String()).Msg("Test submitted")
	c.notify(ev)
	return nil
}

func (c *Controller) stateEventLocked() Event {
	return Event{
		Kind:      EventStateChanged,
		State:     c.state,
		Remaining: c.remaining,
		Auto:      c.auto,
		ResultID:  c.resultID,
		Err:       c.lastErr,
	}
}

func (c *Controller) notify(ev Event) {
	if c.listener != nil {
		c.listener(ev)
	}
}

// ─── Navigation & answers ────────────────────────────────────────────────────

// Answer records option as the answer to questionID, replacing any earlier one.
// Only the current question or one already shown can be answered.
func (c *Controller) Answer(questionID uuid.UUID, option int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return ErrNotActive
	}
	pos, ok := c.position[questionID]
	if !ok {
		return ErrUnknownQuestion
	}
	if !c.visited[pos] {
		return ErrNotVisited
	}
	if option < 0 || option >= len(c.questions[pos].Options) {
		return ErrOptionOutOfRange
	}
	c.answers[questionID] = option
	return nil
}

// AnswerCurrent answers the question currently shown.
func (c *Controller) AnswerCurrent(option int) error {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return ErrNotActive
	}
	id := c.questions[c.current].ID
	c.mu.Unlock()
	return c.Answer(id, option)
}

// Clear removes the answer to questionID so it is sent as unanswered.
func (c *Controller) Clear(questionID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return ErrNotActive
	}
	if _, ok := c.position[questionID]; !ok {
		return ErrUnknownQuestion
	}
	delete(c.answers, questionID)
	return nil
}

// Next moves to the following question.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.goToLocked(c.current + 1)
}

// Prev moves to the preceding question.
func (c *Controller) Prev() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.goToLocked(c.current - 1)
}

// GoTo jumps to question i (zero based).
func (c *Controller) GoTo(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.goToLocked(i)
}

func (c *Controller) goToLocked(i int) error {
	if c.state != StateActive {
		return ErrNotActive
	}
	if i < 0 || i >= len(c.questions) {
		return ErrOutOfRange
	}
	c.current = i
	c.visited[i] = true
	return nil
}

// ─── Read access ─────────────────────────────────────────────────────────────

// Snapshot is a consistent view of the attempt for rendering.
type Snapshot struct {
	State     State
	Index     int
	Total     int
	Remaining int
	Answered  int
	Question  model.QuestionForUser
	// Selected is the stored answer of the current question or model.Unanswered.
	Selected int
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:     c.state,
		Index:     c.current,
		Total:     len(c.questions),
		Remaining: c.remaining,
		Answered:  len(c.answers),
		Selected:  model.Unanswered,
	}
	if len(c.questions) > 0 {
		s.Question = c.questions[c.current]
		if idx, ok := c.answers[s.Question.ID]; ok {
			s.Selected = idx
		}
	}
	return s
}

// State returns the lifecycle stage.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Remaining returns the seconds left on the countdown.
func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Answers returns a copy of the answer map.
func (c *Controller) Answers() map[uuid.UUID]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[uuid.UUID]int, len(c.answers))
	for k, v := range c.answers {
		out[k] = v
	}
	return out
}

// ResultID returns the id of the stored result once the attempt is finished.
func (c *Controller) ResultID() (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resultID, c.state == StateFinished
}

// Err returns the error of the last failed submission.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Done is closed when a submission succeeds.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}
