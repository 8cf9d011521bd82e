package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/iqscaler/iqscaler-backend/internal/model"
)

// ─── Fakes ───────────────────────────────────────────────────────────────────

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (f *fakeClock) NewTicker(time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *fakeClock) ticker(t *testing.T) *fakeTicker {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tickers) != 1 {
		t.Fatalf("clock created %d tickers, want 1", len(f.tickers))
	}
	return f.tickers[0]
}

type fakeSubmitter struct {
	mu    sync.Mutex
	calls []model.SubmitRequest
	errs  []error
	id    uuid.UUID
}

func (f *fakeSubmitter) Submit(_ context.Context, req model.SubmitRequest) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return uuid.Nil, err
	}
	return f.id, nil
}

func (f *fakeSubmitter) requests() []model.SubmitRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.SubmitRequest(nil), f.calls...)
}

type harness struct {
	t      *testing.T
	clock  *fakeClock
	events chan Event
	sub    *fakeSubmitter
	ctl    *Controller
	qs     []model.QuestionForUser
}

func newHarness(t *testing.T, n, minutes int) *harness {
	t.Helper()
	qs := make([]model.QuestionForUser, n)
	for i := range qs {
		qs[i] = model.QuestionForUser{
			ID:         uuid.New(),
			Text:       "question",
			Options:    []model.Option{{Text: "A"}, {Text: "B"}, {Text: "C"}, {Text: "D"}},
			Difficulty: model.DifficultyEasy,
		}
	}
	h := &harness{
		t:      t,
		clock:  &fakeClock{},
		events: make(chan Event, 4096),
		sub:    &fakeSubmitter{id: uuid.New()},
		qs:     qs,
	}
	cfg := model.TestConfig{DurationMinutes: minutes, TotalQuestions: n}
	h.ctl = New(qs, cfg, h.sub,
		WithClock(h.clock),
		WithListener(func(ev Event) { h.events <- ev }),
	)
	return h
}

func (h *harness) start() {
	h.t.Helper()
	if err := h.ctl.Start(context.Background()); err != nil {
		h.t.Fatalf("Start: %v", err)
	}
}

// advance delivers n ticks and waits until each one has been applied.
func (h *harness) advance(n int) {
	h.t.Helper()
	tk := h.clock.ticker(h.t)
	for i := 0; i < n; i++ {
		select {
		case tk.ch <- time.Now():
		case <-time.After(2 * time.Second):
			h.t.Fatalf("tick %d was not received", i+1)
		}
		h.waitFor(func(ev Event) bool { return ev.Kind == EventTick })
	}
}

func (h *harness) waitFor(match func(Event) bool) Event {
	h.t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-h.events:
			if match(ev) {
				return ev
			}
		case <-timeout:
			h.t.Fatal("timed out waiting for event")
		}
	}
}

// ─── Tests ───────────────────────────────────────────────────────────────────

func TestStartPreconditions(t *testing.T) {
	sub := &fakeSubmitter{}

	empty := New(nil, model.TestConfig{DurationMinutes: 5}, sub, WithClock(&fakeClock{}))
	if err := empty.Start(context.Background()); !errors.Is(err, ErrNoQuestions) {
		t.Errorf("Start with no questions = %v, want ErrNoQuestions", err)
	}

	qs := []model.QuestionForUser{{ID: uuid.New(), Options: []model.Option{{Text: "A"}, {Text: "B"}}}}
	noTime := New(qs, model.TestConfig{DurationMinutes: 0}, sub, WithClock(&fakeClock{}))
	if err := noTime.Start(context.Background()); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("Start with zero duration = %v, want ErrInvalidDuration", err)
	}
	if noTime.State() != StateNotStarted {
		t.Errorf("state = %v, want not_started", noTime.State())
	}

	h := newHarness(t, 3, 1)
	h.start()
	if err := h.ctl.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
	if got := len(h.clock.tickers); got != 1 {
		t.Errorf("tickers = %d, want 1", got)
	}
	if got := h.ctl.Remaining(); got != 60 {
		t.Errorf("Remaining = %d, want 60", got)
	}
	h.ctl.Discard()
}

func TestAutoSubmitWhenTimeRunsOut(t *testing.T) {
	h := newHarness(t, 3, 1)
	h.start()

	h.advance(59)
	if got := h.ctl.Remaining(); got != 1 {
		t.Fatalf("Remaining after 59 ticks = %d, want 1", got)
	}
	if got := len(h.sub.requests()); got != 0 {
		t.Fatalf("submissions before expiry = %d, want 0", got)
	}

	h.advance(1)
	select {
	case <-h.ctl.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("attempt did not finish after the countdown expired")
	}

	reqs := h.sub.requests()
	if len(reqs) != 1 {
		t.Fatalf("submissions = %d, want exactly 1", len(reqs))
	}
	if reqs[0].TimeTakenSeconds != 60 {
		t.Errorf("TimeTakenSeconds = %d, want 60", reqs[0].TimeTakenSeconds)
	}
	for i, e := range reqs[0].UserAnswers {
		if *e.SelectedIndex != model.Unanswered {
			t.Errorf("entry %d = %d, want unanswered", i, *e.SelectedIndex)
		}
	}
	if !h.clock.ticker(t).stopped.Load() {
		t.Error("ticker still running after auto-submit")
	}
	if id, ok := h.ctl.ResultID(); !ok || id != h.sub.id {
		t.Errorf("ResultID = %v, %v; want %v, true", id, ok, h.sub.id)
	}
	if got := h.ctl.Remaining(); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
}

func TestManualFinishSendsElapsedTime(t *testing.T) {
	h := newHarness(t, 4, 10)
	h.start()

	if err := h.ctl.Answer(h.qs[0].ID, 2); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	h.advance(555)

	if err := h.ctl.Finish(context.Background()); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	reqs := h.sub.requests()
	if len(reqs) != 1 {
		t.Fatalf("submissions = %d, want 1", len(reqs))
	}
	req := reqs[0]
	if req.TimeTakenSeconds != 555 {
		t.Errorf("TimeTakenSeconds = %d, want 555", req.TimeTakenSeconds)
	}
	if len(req.UserAnswers) != len(h.qs) {
		t.Fatalf("entries = %d, want %d", len(req.UserAnswers), len(h.qs))
	}
	for i, e := range req.UserAnswers {
		if e.QuestionID != h.qs[i].ID.String() {
			t.Errorf("entry %d question = %s, want %s", i, e.QuestionID, h.qs[i].ID)
		}
		want := model.Unanswered
		if i == 0 {
			want = 2
		}
		if *e.SelectedIndex != want {
			t.Errorf("entry %d selected = %d, want %d", i, *e.SelectedIndex, want)
		}
	}

	if err := h.ctl.Finish(context.Background()); !errors.Is(err, ErrNotActive) {
		t.Errorf("second Finish = %v, want ErrNotActive", err)
	}
	if got := len(h.sub.requests()); got != 1 {
		t.Errorf("submissions after second Finish = %d, want 1", got)
	}
	if h.ctl.State() != StateFinished {
		t.Errorf("state = %v, want finished", h.ctl.State())
	}
}

func TestNoTickAfterFinish(t *testing.T) {
	h := newHarness(t, 2, 1)
	h.start()
	h.advance(10)

	if err := h.ctl.Finish(context.Background()); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	tk := h.clock.ticker(t)
	if !tk.stopped.Load() {
		t.Fatal("ticker not stopped on finish")
	}

	// a late tick may or may not be read before the loop exits; either way it must not count
	select {
	case tk.ch <- time.Now():
	case <-time.After(50 * time.Millisecond):
	}
	if got := h.ctl.Remaining(); got != 50 {
		t.Errorf("Remaining = %d, want 50", got)
	}
}

func TestFailedSubmissionCanBeRetried(t *testing.T) {
	h := newHarness(t, 3, 5)
	h.sub.errs = []error{errors.New("connection refused")}
	h.start()

	if err := h.ctl.Answer(h.qs[0].ID, 1); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	h.advance(30)

	err := h.ctl.Finish(context.Background())
	var subErr *SubmitError
	if !errors.As(err, &subErr) || !subErr.Retryable() {
		t.Fatalf("Finish = %v, want retryable *SubmitError", err)
	}
	if h.ctl.State() != StateFailed {
		t.Fatalf("state = %v, want failed", h.ctl.State())
	}
	if h.ctl.Err() == nil {
		t.Error("Err() = nil after failed submission")
	}
	if got := h.ctl.Answers()[h.qs[0].ID]; got != 1 {
		t.Errorf("answer after failure = %d, want 1", got)
	}
	if err := h.ctl.Answer(h.qs[1].ID, 0); !errors.Is(err, ErrNotActive) {
		t.Errorf("Answer while failed = %v, want ErrNotActive", err)
	}
	if !h.clock.ticker(t).stopped.Load() {
		t.Error("ticker restarted after failure")
	}

	if err := h.ctl.Retry(context.Background()); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	reqs := h.sub.requests()
	if len(reqs) != 2 {
		t.Fatalf("submissions = %d, want 2", len(reqs))
	}
	if reqs[0].TimeTakenSeconds != 30 || reqs[1].TimeTakenSeconds != 30 {
		t.Errorf("elapsed = %d then %d, want 30 both times", reqs[0].TimeTakenSeconds, reqs[1].TimeTakenSeconds)
	}
	for i := range reqs[0].UserAnswers {
		a, b := reqs[0].UserAnswers[i], reqs[1].UserAnswers[i]
		if a.QuestionID != b.QuestionID || *a.SelectedIndex != *b.SelectedIndex {
			t.Errorf("entry %d changed between attempts: %+v vs %+v", i, a, b)
		}
	}
	if h.ctl.State() != StateFinished {
		t.Errorf("state = %v, want finished", h.ctl.State())
	}
	if err := h.ctl.Retry(context.Background()); !errors.Is(err, ErrNotFailed) {
		t.Errorf("Retry after success = %v, want ErrNotFailed", err)
	}
}

func TestAnswerRules(t *testing.T) {
	h := newHarness(t, 3, 5)
	if err := h.ctl.Answer(h.qs[0].ID, 0); !errors.Is(err, ErrNotActive) {
		t.Errorf("Answer before start = %v, want ErrNotActive", err)
	}
	h.start()
	defer h.ctl.Discard()

	tests := []struct {
		name   string
		id     uuid.UUID
		option int
		want   error
	}{
		{"current question", h.qs[0].ID, 3, nil},
		{"not yet shown", h.qs[2].ID, 0, ErrNotVisited},
		{"unknown question", uuid.New(), 0, ErrUnknownQuestion},
		{"negative option", h.qs[0].ID, -1, ErrOptionOutOfRange},
		{"option past the end", h.qs[0].ID, 4, ErrOptionOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := h.ctl.Answer(tt.id, tt.option); !errors.Is(err, tt.want) {
				t.Errorf("Answer = %v, want %v", err, tt.want)
			}
		})
	}

	if err := h.ctl.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := h.ctl.AnswerCurrent(1); err != nil {
		t.Fatalf("AnswerCurrent: %v", err)
	}
	// earlier questions stay editable
	if err := h.ctl.Answer(h.qs[0].ID, 2); err != nil {
		t.Fatalf("re-answer visited question: %v", err)
	}

	answers := h.ctl.Answers()
	if answers[h.qs[0].ID] != 2 || answers[h.qs[1].ID] != 1 || len(answers) != 2 {
		t.Errorf("answers = %v", answers)
	}

	if err := h.ctl.Clear(h.qs[1].ID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := h.ctl.Answers()[h.qs[1].ID]; ok {
		t.Error("answer still present after Clear")
	}
}

func TestNavigationStaysInBounds(t *testing.T) {
	h := newHarness(t, 3, 5)
	h.start()
	defer h.ctl.Discard()

	if err := h.ctl.Prev(); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Prev at first = %v, want ErrOutOfRange", err)
	}
	if err := h.ctl.GoTo(2); err != nil {
		t.Fatalf("GoTo(2): %v", err)
	}
	if err := h.ctl.Next(); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Next at last = %v, want ErrOutOfRange", err)
	}
	if err := h.ctl.GoTo(-1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("GoTo(-1) = %v, want ErrOutOfRange", err)
	}
	snap := h.ctl.Snapshot()
	if snap.Index != 2 || snap.Question.ID != h.qs[2].ID {
		t.Errorf("snapshot index = %d, want 2", snap.Index)
	}
	if snap.Selected != model.Unanswered {
		t.Errorf("selected = %d, want unanswered", snap.Selected)
	}

	// jumping ahead marks the question as shown
	if err := h.ctl.Answer(h.qs[2].ID, 0); err != nil {
		t.Errorf("Answer after GoTo: %v", err)
	}
	if err := h.ctl.Answer(h.qs[1].ID, 0); !errors.Is(err, ErrNotVisited) {
		t.Errorf("Answer skipped question = %v, want ErrNotVisited", err)
	}
}

func TestDiscardSendsNothing(t *testing.T) {
	h := newHarness(t, 2, 1)
	h.start()
	h.advance(5)

	h.ctl.Discard()
	if h.ctl.State() != StateDiscarded {
		t.Fatalf("state = %v, want discarded", h.ctl.State())
	}
	if !h.clock.ticker(t).stopped.Load() {
		t.Error("ticker not stopped on discard")
	}
	if err := h.ctl.Finish(context.Background()); !errors.Is(err, ErrNotActive) {
		t.Errorf("Finish after discard = %v, want ErrNotActive", err)
	}
	if got := len(h.sub.requests()); got != 0 {
		t.Errorf("submissions = %d, want 0", got)
	}
}

func TestCancelledContextDiscards(t *testing.T) {
	h := newHarness(t, 2, 1)
	ctx, cancel := context.WithCancel(context.Background())
	if err := h.ctl.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	h.waitFor(func(ev Event) bool { return ev.Kind == EventStateChanged && ev.State == StateDiscarded })
	if got := len(h.sub.requests()); got != 0 {
		t.Errorf("submissions = %d, want 0", got)
	}
}
