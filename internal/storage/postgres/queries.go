package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

type questionRow struct {
	ID           string
	QuestionText string
	Options      []byte
	CareerImpact []byte
}

const getQuestion = `-- name: GetQuestion :one
SELECT id, question_text, options, career_impact
FROM questions
WHERE id = $1
`

func (q *Queries) GetQuestion(ctx context.Context, id string) (questionRow, error) {
	row := q.db.QueryRowContext(ctx, getQuestion, id)
	var i questionRow
	err := row.Scan(&i.ID, &i.QuestionText, &i.Options, &i.CareerImpact)
	return i, err
}

const listQuestions = `-- name: ListQuestions :many
SELECT id, question_text, options, career_impact
FROM questions
ORDER BY id
`

func (q *Queries) ListQuestions(ctx context.Context) ([]questionRow, error) {
	rows, err := q.db.QueryContext(ctx, listQuestions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []questionRow
	for rows.Next() {
		var i questionRow
		if err := rows.Scan(&i.ID, &i.QuestionText, &i.Options, &i.CareerImpact); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type courseRow struct {
	ID                      string
	Title                   string
	Description             string
	Provider                string
	URL                     string
	AssociatedProfessionIDs []string
}

const listCourses = `-- name: ListCourses :many
SELECT id, title, description, provider, url, associated_profession_ids
FROM courses
ORDER BY id
`

func (q *Queries) ListCourses(ctx context.Context) ([]courseRow, error) {
	rows, err := q.db.QueryContext(ctx, listCourses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []courseRow
	for rows.Next() {
		var i courseRow
		if err := rows.Scan(
			&i.ID,
			&i.Title,
			&i.Description,
			&i.Provider,
			&i.URL,
			pq.Array(&i.AssociatedProfessionIDs),
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertResult = `-- name: UpsertResult :one
INSERT INTO quiz_results (
user_id, career_recommendation, profession_ids, suitable_courses, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (user_id)
DO UPDATE SET
    career_recommendation = EXCLUDED.career_recommendation,
    profession_ids = EXCLUDED.profession_ids,
    suitable_courses = EXCLUDED.suitable_courses,
    updated_at = EXCLUDED.updated_at
RETURNING updated_at
`

type UpsertResultParams struct {
	UserID               string
	CareerRecommendation string
	ProfessionIDs        []string
	SuitableCourses      json.RawMessage
}

func (q *Queries) UpsertResult(ctx context.Context, arg UpsertResultParams) (time.Time, error) {
	row := q.db.QueryRowContext(ctx, upsertResult,
		arg.UserID,
		arg.CareerRecommendation,
		pq.Array(arg.ProfessionIDs),
		[]byte(arg.SuitableCourses),
	)
	var updatedAt time.Time
	err := row.Scan(&updatedAt)
	return updatedAt, err
}

type resultRow struct {
	CareerRecommendation string
	ProfessionIDs        []string
	SuitableCourses      []byte
	UpdatedAt            time.Time
}

const getResult = `-- name: GetResult :one
SELECT career_recommendation, profession_ids, suitable_courses, updated_at
FROM quiz_results
WHERE user_id = $1
`

func (q *Queries) GetResult(ctx context.Context, userID string) (resultRow, error) {
	row := q.db.QueryRowContext(ctx, getResult, userID)
	var i resultRow
	err := row.Scan(
		&i.CareerRecommendation,
		pq.Array(&i.ProfessionIDs),
		&i.SuitableCourses,
		&i.UpdatedAt,
	)
	return i, err
}
