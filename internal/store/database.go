package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"faqchat/internal/db"
)

// DatabaseStore keeps the catalogue in the question_groups and questions
// tables.
type DatabaseStore struct {
	db *db.DB
}

var _ Catalog = (*DatabaseStore)(nil)

// NewDatabaseStore creates a new database store
func NewDatabaseStore(database *db.DB) *DatabaseStore {
	return &DatabaseStore{db: database}
}

func (ds *DatabaseStore) Questions(ctx context.Context) ([]string, error) {
	rows, err := ds.db.QueryContext(ctx, `SELECT question FROM questions ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list questions")
	}
	defer rows.Close()

	questions := []string{}
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, errors.Wrap(err, "failed to scan question")
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to list questions")
	}
	return questions, nil
}

func (ds *DatabaseStore) Answer(ctx context.Context, question string) (Entry, error) {
	query := ds.db.Rebind(`
		SELECT q.question, q.answer, q.pictures_links, g.name
		FROM questions q
		LEFT JOIN question_groups g ON g.id = q.question_group
		WHERE q.question = ?
	`)

	var (
		e        Entry
		pictures sql.NullString
		group    sql.NullString
	)
	err := ds.db.QueryRowContext(ctx, query, question).Scan(&e.Question, &e.Answer, &pictures, &group)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, errors.Wrapf(ErrQuestionNotFound, "%q", question)
	}
	if err != nil {
		return Entry{}, errors.Wrap(err, "failed to get answer")
	}

	e.Group = group.String
	e.Pictures = splitPictures(pictures.String)
	return e, nil
}

func (ds *DatabaseStore) Upsert(ctx context.Context, e Entry) error {
	if err := validate(e); err != nil {
		return err
	}

	tx, err := ds.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var groupID sql.NullInt64
	if e.Group != "" {
		if _, err := tx.ExecContext(ctx,
			ds.db.Rebind(`INSERT INTO question_groups (name) VALUES (?) ON CONFLICT (name) DO NOTHING`),
			e.Group,
		); err != nil {
			return errors.Wrap(err, "failed to save group")
		}
		if err := tx.QueryRowContext(ctx,
			ds.db.Rebind(`SELECT id FROM question_groups WHERE name = ?`),
			e.Group,
		).Scan(&groupID); err != nil {
			return errors.Wrap(err, "failed to resolve group")
		}
	}

	var pictures sql.NullString
	if len(e.Pictures) > 0 {
		pictures = sql.NullString{String: joinPictures(e.Pictures), Valid: true}
	}

	query := ds.db.Rebind(`
		INSERT INTO questions (question_group, question, answer, pictures_links)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (question)
		DO UPDATE SET
			question_group = excluded.question_group,
			answer = excluded.answer,
			pictures_links = excluded.pictures_links
	`)
	if _, err := tx.ExecContext(ctx, query, groupID, e.Question, e.Answer, pictures); err != nil {
		return errors.Wrap(err, "failed to save question")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit question")
	}
	return nil
}
