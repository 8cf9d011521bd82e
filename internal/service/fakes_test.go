package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iqscaler/iqscaler-backend/internal/certificate"
	"github.com/iqscaler/iqscaler-backend/internal/mail"
	"github.com/iqscaler/iqscaler-backend/internal/model"
	"github.com/iqscaler/iqscaler-backend/internal/payment"
	"github.com/iqscaler/iqscaler-backend/internal/repository"
)

// ─── Users ───────────────────────────────────────────────────────────────────

type fakeUsers struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*model.User
	users []*model.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[uuid.UUID]*model.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
		if existing.Username == u.Username {
			return repository.ErrDuplicateUsername
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.byID[u.ID] = &cp
	f.users = append(f.users, &cp)
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) List(_ context.Context, _ string, limit, offset int) ([]model.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.User{}
	for i := offset; i < len(f.users) && i < offset+limit; i++ {
		out = append(out, *f.users[i])
	}
	return out, len(f.users), nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id uuid.UUID, role model.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	return nil
}

// ─── Questions ───────────────────────────────────────────────────────────────

type fakeQuestions struct {
	mu        sync.Mutex
	questions map[uuid.UUID]model.Question
}

func newFakeQuestions(qs ...model.Question) *fakeQuestions {
	f := &fakeQuestions{questions: map[uuid.UUID]model.Question{}}
	for _, q := range qs {
		f.questions[q.ID] = q
	}
	return f
}

func (f *fakeQuestions) Create(_ context.Context, q *model.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q.ID = uuid.New()
	f.questions[q.ID] = *q
	return nil
}

func (f *fakeQuestions) Update(_ context.Context, q *model.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.questions[q.ID]; !ok {
		return repository.ErrNotFound
	}
	f.questions[q.ID] = *q
	return nil
}

func (f *fakeQuestions) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.questions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.questions, id)
	return nil
}

func (f *fakeQuestions) GetByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &q, nil
}

func (f *fakeQuestions) List(ctx context.Context, _ string, _ model.Difficulty, _, _ int) ([]model.Question, int, error) {
	all, _ := f.ListAll(ctx)
	return all, len(all), nil
}

func (f *fakeQuestions) ListAll(context.Context) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Question, 0, len(f.questions))
	for _, q := range f.questions {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (f *fakeQuestions) ListByIDs(_ context.Context, ids []uuid.UUID) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Question{}
	for _, id := range ids {
		if q, ok := f.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuestions) Categories(context.Context) ([]model.CategoryCount, error) {
	return nil, nil
}

// ─── Test configuration ──────────────────────────────────────────────────────

type fakeConfigStore struct {
	cfg     *model.TestConfig
	upserts int
}

func (f *fakeConfigStore) Get(context.Context) (*model.TestConfig, error) {
	if f.cfg == nil {
		return nil, repository.ErrNotFound
	}
	cp := *f.cfg
	return &cp, nil
}

func (f *fakeConfigStore) Upsert(_ context.Context, cfg *model.TestConfig) error {
	f.upserts++
	cp := *cfg
	f.cfg = &cp
	return nil
}

type fakeConfigCache struct {
	cfg *model.TestConfig
	err error
}

func (f *fakeConfigCache) TestConfig(context.Context) (*model.TestConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cfg, nil
}

func (f *fakeConfigCache) SetTestConfig(_ context.Context, cfg model.TestConfig) error {
	if f.err != nil {
		return f.err
	}
	f.cfg = &cfg
	return nil
}

func (f *fakeConfigCache) InvalidateTestConfig(context.Context) error {
	f.cfg = nil
	return nil
}

type staticConfig model.TestConfig

func (s staticConfig) Get(context.Context) (model.TestConfig, error) {
	return model.TestConfig(s), nil
}

// ─── Issued sets & leaderboard ───────────────────────────────────────────────

type fakeIssued struct {
	mu   sync.Mutex
	sets map[uuid.UUID][]uuid.UUID
	ttls map[uuid.UUID]time.Duration
}

func newFakeIssued() *fakeIssued {
	return &fakeIssued{sets: map[uuid.UUID][]uuid.UUID{}, ttls: map[uuid.UUID]time.Duration{}}
}

func (f *fakeIssued) SaveIssued(_ context.Context, userID uuid.UUID, ids []uuid.UUID, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets[userID] = append([]uuid.UUID(nil), ids...)
	f.ttls[userID] = ttl
	return nil
}

func (f *fakeIssued) TakeIssued(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := f.sets[userID]
	delete(f.sets, userID)
	return ids, nil
}

type fakeQueue struct {
	entries []model.LeaderboardEntry
}

func (f *fakeQueue) Enqueue(_ context.Context, e model.LeaderboardEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

type fakeBoard struct {
	entries []model.LeaderboardEntry
	err     error
	resets  int
}

func (f *fakeBoard) Top(_ context.Context, n int) ([]model.LeaderboardEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.entries) > n {
		return f.entries[:n], nil
	}
	return f.entries, nil
}

func (f *fakeBoard) Reset(_ context.Context, entries []model.LeaderboardEntry) error {
	f.resets++
	f.entries = append([]model.LeaderboardEntry(nil), entries...)
	return nil
}

// ─── Results ─────────────────────────────────────────────────────────────────

type fakeResults struct {
	mu        sync.Mutex
	createErr error
	results   map[uuid.UUID]*model.Result
	users     map[uuid.UUID]model.User
	board     []model.LeaderboardEntry
}

func newFakeResults() *fakeResults {
	return &fakeResults{results: map[uuid.UUID]*model.Result{}, users: map[uuid.UUID]model.User{}}
}

func (f *fakeResults) add(res model.Result, owner model.User) *model.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	res.UserID = owner.ID
	f.results[res.ID] = &res
	f.users[owner.ID] = owner
	return &res
}

func (f *fakeResults) Create(_ context.Context, res *model.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	res.ID = uuid.New()
	res.CreatedAt = time.Now()
	cp := *res
	f.results[res.ID] = &cp
	return nil
}

func (f *fakeResults) GetByID(_ context.Context, id uuid.UUID) (*model.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.results[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (f *fakeResults) GetWithUser(_ context.Context, id uuid.UUID) (*model.ResultWithUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.results[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := f.users[res.UserID]
	return &model.ResultWithUser{Result: *res, UserName: u.Name, Username: u.Username, Email: u.Email}, nil
}

func (f *fakeResults) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]model.Result, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Result{}
	for _, res := range f.results {
		if res.UserID == userID {
			out = append(out, *res)
		}
	}
	return out, len(out), nil
}

func (f *fakeResults) Leaderboard(context.Context, int) ([]model.LeaderboardEntry, error) {
	return f.board, nil
}

func (f *fakeResults) purchased(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.results[id].CertificatePurchased
}

// ─── Payments ────────────────────────────────────────────────────────────────

type fakeOrders struct {
	mu      sync.Mutex
	orders  map[string]*model.PaymentOrder
	results *fakeResults
	settled int
}

func newFakeOrders(results *fakeResults) *fakeOrders {
	return &fakeOrders{orders: map[string]*model.PaymentOrder{}, results: results}
}

func (f *fakeOrders) Create(_ context.Context, o *model.PaymentOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
	cp := *o
	f.orders[o.OrderID] = &cp
	return nil
}

func (f *fakeOrders) GetByOrderID(_ context.Context, orderID string) (*model.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) Settle(_ context.Context, orderID string) (bool, error) {
	f.mu.Lock()
	o := f.orders[orderID]
	o.Status = model.PaymentPaid
	f.mu.Unlock()

	f.results.mu.Lock()
	defer f.results.mu.Unlock()
	res := f.results.results[o.ResultID]
	if res.CertificatePurchased {
		return false, nil
	}
	res.CertificatePurchased = true
	f.settled++
	return true, nil
}

func (f *fakeOrders) MarkFailed(_ context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[orderID]; ok && o.Status == model.PaymentPending {
		o.Status = model.PaymentFailed
	}
	return nil
}

func (f *fakeOrders) only() *model.PaymentOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		return o
	}
	return nil
}

const testServerKey = "SB-Mid-server-test"

type fakeGateway struct {
	createErr error
	statuses  map[string]payment.Status
	created   []payment.Order
}

func (f *fakeGateway) CreateTransaction(_ context.Context, o payment.Order) (*payment.Transaction, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, o)
	return &payment.Transaction{Token: "snap-token", RedirectURL: "https://pay.example/" + o.OrderID}, nil
}

func (f *fakeGateway) TransactionStatus(_ context.Context, orderID string) (*payment.Status, error) {
	st, ok := f.statuses[orderID]
	if !ok {
		return nil, errors.New("transaction not found")
	}
	return &st, nil
}

func (f *fakeGateway) VerifySignature(s payment.Status) bool {
	return payment.VerifySignature(s, testServerKey)
}

// signedStatus builds a gateway status with a valid signature.
func signedStatus(orderID, txStatus, gross string) payment.Status {
	st := payment.Status{OrderID: orderID, StatusCode: "200", GrossAmount: gross, TransactionStatus: txStatus}
	st.SignatureKey = payment.Signature(st.OrderID, st.StatusCode, st.GrossAmount, testServerKey)
	return st
}

// ─── Auth & certificates ─────────────────────────────────────────────────────

type fakeDenylist struct {
	revoked map[string]time.Duration
}

func (f *fakeDenylist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if f.revoked == nil {
		f.revoked = map[string]time.Duration{}
	}
	f.revoked[jti] = ttl
	return nil
}

func (f *fakeDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := f.revoked[jti]
	return ok, nil
}

type fakeRenderer struct {
	rendered []certificate.Data
}

func (f *fakeRenderer) Render(d certificate.Data) ([]byte, error) {
	f.rendered = append(f.rendered, d)
	return []byte("%PDF-1.3 fake"), nil
}

// ─── Builders ────────────────────────────────────────────────────────────────

func newQuestion(d model.Difficulty, correct int) model.Question {
	return model.Question{
		ID:                 uuid.New(),
		Text:               "Which comes next?",
		Options:            model.Options{{Text: "A"}, {Text: "B"}, {Text: "C"}, {Text: "D"}},
		CorrectAnswerIndex: correct,
		Difficulty:         d,
		Category:           "sequences",
	}
}

func newUser(name string) model.User {
	return model.User{ID: uuid.New(), Name: name, Username: name, Email: name + "@example.com", Role: model.RoleUser}
}

// ─── Password reset & mail ───────────────────────────────────────────────────

type fakeResetTokens struct {
	mu     sync.Mutex
	tokens map[string]uuid.UUID
	ttls   map[string]time.Duration
}

func newFakeResetTokens() *fakeResetTokens {
	return &fakeResetTokens{tokens: map[string]uuid.UUID{}, ttls: map[string]time.Duration{}}
}

func (f *fakeResetTokens) SaveResetToken(_ context.Context, tokenHash string, userID uuid.UUID, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[tokenHash] = userID
	f.ttls[tokenHash] = ttl
	return nil
}

func (f *fakeResetTokens) TakeResetToken(_ context.Context, tokenHash string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.tokens[tokenHash]
	delete(f.tokens, tokenHash)
	return id, nil
}

type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, m mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}
