package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iqscaler/iqscaler-backend/internal/model"
)

// QuestionRepository handles question bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, text, image_url, options, correct_answer_index, difficulty, category, created_at, updated_at`

func scanQuestion(row pgx.Row, q *model.Question) error {
	return row.Scan(&q.ID, &q.Text, &q.ImageURL, &q.Options, &q.CorrectAnswerIndex, &q.Difficulty, &q.Category, &q.CreatedAt, &q.UpdatedAt)
}

func collectQuestions(rows pgx.Rows) ([]model.Question, error) {
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var q model.Question
		if err := scanQuestion(rows, &q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (text, image_url, options, correct_answer_index, difficulty, category)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		q.Text, q.ImageURL, q.Options, q.CorrectAnswerIndex, q.Difficulty, q.Category,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// Update replaces the content of an existing question.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE questions
		 SET text = $1, image_url = $2, options = $3, correct_answer_index = $4, difficulty = $5, category = $6,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $7
		 RETURNING created_at, updated_at`,
		q.Text, q.ImageURL, q.Options, q.CorrectAnswerIndex, q.Difficulty, q.Category, q.ID,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
	return notFound(err)
}

// Delete removes a question.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a single question.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id,
	), q)
	if err != nil {
		return nil, notFound(err)
	}
	return q, nil
}

// List returns a filtered page of questions, newest first, with the total match count.
func (r *QuestionRepository) List(ctx context.Context, category string, difficulty model.Difficulty, limit, offset int) ([]model.Question, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions
		 WHERE ($1 = '' OR category = $1) AND ($2 = '' OR difficulty = $2)`,
		category, string(difficulty),
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE ($1 = '' OR category = $1) AND ($2 = '' OR difficulty = $2)
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		category, string(difficulty), limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	questions, err := collectQuestions(rows)
	return questions, total, err
}

// ListAll returns the whole bank. Test generation draws from it.
func (r *QuestionRepository) ListAll(ctx context.Context) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions`)
	if err != nil {
		return nil, err
	}
	return collectQuestions(rows)
}

// ListByIDs returns the questions with the given ids. Unknown ids are skipped.
func (r *QuestionRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	if len(ids) == 0 {
		return []model.Question{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, err
	}
	return collectQuestions(rows)
}

// Categories returns every category with its question count.
func (r *QuestionRepository) Categories(ctx context.Context) ([]model.CategoryCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category, COUNT(*) FROM questions GROUP BY category ORDER BY category`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []model.CategoryCount{}
	for rows.Next() {
		var c model.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
