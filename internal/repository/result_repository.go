package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iqscaler/iqscaler-backend/internal/model"
)

// ResultRepository handles test result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

const resultColumns = `r.id, r.user_id, r.question_ids, r.total_score, r.max_score, r.questions_attempted,
	r.correct_answers, r.total_questions, r.time_taken_seconds, r.certificate_purchased, r.created_at`

func resultDest(res *model.Result) []interface{} {
	return []interface{}{
		&res.ID, &res.UserID, &res.QuestionIDs, &res.TotalScore, &res.MaxScore, &res.QuestionsAttempted,
		&res.CorrectAnswers, &res.TotalQuestions, &res.TimeTakenSeconds, &res.CertificatePurchased, &res.CreatedAt,
	}
}

// Create inserts a new result. The certificate flag always starts false.
func (r *ResultRepository) Create(ctx context.Context, res *model.Result) error {
	res.CertificatePurchased = false
	return r.pool.QueryRow(ctx,
		`INSERT INTO results (user_id, question_ids, total_score, max_score, questions_attempted,
		                      correct_answers, total_questions, time_taken_seconds)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		res.UserID, res.QuestionIDs, res.TotalScore, res.MaxScore, res.QuestionsAttempted,
		res.CorrectAnswers, res.TotalQuestions, res.TimeTakenSeconds,
	).Scan(&res.ID, &res.CreatedAt)
}

// GetByID retrieves a result.
func (r *ResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	res := &model.Result{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM results r WHERE r.id = $1`, id,
	).Scan(resultDest(res)...)
	if err != nil {
		return nil, notFound(err)
	}
	return res, nil
}

// GetWithUser retrieves a result joined with its owner's names.
func (r *ResultRepository) GetWithUser(ctx context.Context, id uuid.UUID) (*model.ResultWithUser, error) {
	res := &model.ResultWithUser{}
	dest := append(resultDest(&res.Result), &res.UserName, &res.Username, &res.Email)
	err := r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+`, u.name, u.username, u.email
		 FROM results r JOIN users u ON u.id = r.user_id
		 WHERE r.id = $1`, id,
	).Scan(dest...)
	if err != nil {
		return nil, notFound(err)
	}
	return res, nil
}

// ListByUser returns a page of a user's results, newest first, with the total count.
func (r *ResultRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Result, int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+`, COUNT(*) OVER()
		 FROM results r
		 WHERE r.user_id = $1
		 ORDER BY r.created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results := []model.Result{}
	total := 0
	for rows.Next() {
		var res model.Result
		if err := rows.Scan(append(resultDest(&res), &total)...); err != nil {
			return nil, 0, err
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}

// Leaderboard returns each user's best result, highest first. Ties keep the
// earlier test.
func (r *ResultRepository) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, username, total_score, id, created_at FROM (
		     SELECT DISTINCT ON (r.user_id) r.user_id, u.username, r.total_score, r.id, r.created_at
		     FROM results r JOIN users u ON u.id = r.user_id
		     ORDER BY r.user_id, r.total_score DESC, r.created_at ASC
		 ) best
		 ORDER BY total_score DESC, created_at ASC
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.LeaderboardEntry, error) {
		var e model.LeaderboardEntry
		err := row.Scan(&e.UserID, &e.Username, &e.MaxScore, &e.ResultID, &e.TestDate)
		return e, err
	})
}
