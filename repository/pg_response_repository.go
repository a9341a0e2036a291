package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"screener/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS questionnaire_responses (
	id bigserial primary key,
	section text not null,
	question_text text not null,
	answer integer not null,
	timestamp bigint not null,
	questionnaire_type text not null,
	user_email text not null
);

CREATE INDEX IF NOT EXISTS idx_type_user ON questionnaire_responses(questionnaire_type, user_email);
`

const pgSelectColumns = `id, section, question_text, answer, timestamp, questionnaire_type, user_email`

// PGResponseRepository stores responses in PostgreSQL through a pgx pool.
type PGResponseRepository struct {
	pool *pgxpool.Pool
}

// NewPGResponseRepository connects to url and makes sure the schema exists.
func NewPGResponseRepository(ctx context.Context, url string) (*PGResponseRepository, error) {
	if url == "" {
		return nil, errors.New("postgres DSN is required")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create questionnaire_responses: %w", err)
	}
	log.Println("INFO: [PGResponseRepository] Connected and schema ensured.")
	return &PGResponseRepository{pool: pool}, nil
}

func (r *PGResponseRepository) Close() {
	r.pool.Close()
}

func (r *PGResponseRepository) InsertOne(record *models.ResponseRecord) (uint, error) {
	if record == nil {
		return 0, errors.New("record cannot be nil")
	}
	ctx := context.Background()
	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO questionnaire_responses (section, question_text, answer, timestamp, questionnaire_type, user_email)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		record.Section, record.QuestionText, record.Answer, record.Timestamp, record.QuestionnaireType, record.UserEmail,
	).Scan(&id)
	if err != nil {
		log.Printf("ERROR: [PGResponseRepository] Failed to insert response for user '%s': %v", record.UserEmail, err)
		return 0, fmt.Errorf("insert response: %w", err)
	}
	record.ID = uint(id)
	return record.ID, nil
}

func (r *PGResponseRepository) InsertMany(records []*models.ResponseRecord) error {
	if len(records) == 0 {
		return nil
	}
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, rec := range records {
		if rec == nil {
			return errors.New("batch contains a nil record")
		}
		batch.Queue(`
INSERT INTO questionnaire_responses (section, question_text, answer, timestamp, questionnaire_type, user_email)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
			rec.Section, rec.QuestionText, rec.Answer, rec.Timestamp, rec.QuestionnaireType, rec.UserEmail)
	}
	br := tx.SendBatch(ctx, batch)
	for _, rec := range records {
		var id int64
		if err := br.QueryRow().Scan(&id); err != nil {
			br.Close()
			log.Printf("ERROR: [PGResponseRepository] Batch insert of %d responses failed: %v", len(records), err)
			return fmt.Errorf("insert batch of %d responses: %w", len(records), err)
		}
		rec.ID = uint(id)
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch insert: %w", err)
	}
	log.Printf("INFO: [PGResponseRepository] Inserted batch of %d responses.", len(records))
	return nil
}

func (r *PGResponseRepository) FetchAll() ([]*models.ResponseRecord, error) {
	return r.query(`SELECT ` + pgSelectColumns + ` FROM questionnaire_responses ORDER BY id`)
}

func (r *PGResponseRepository) DeleteAll() (int64, error) {
	tag, err := r.pool.Exec(context.Background(), `DELETE FROM questionnaire_responses`)
	if err != nil {
		return 0, fmt.Errorf("delete responses: %w", err)
	}
	log.Printf("INFO: [PGResponseRepository] Deleted %d responses.", tag.RowsAffected())
	return tag.RowsAffected(), nil
}

func (r *PGResponseRepository) FetchByUser(userEmail string) ([]*models.ResponseRecord, error) {
	return r.query(`SELECT `+pgSelectColumns+` FROM questionnaire_responses
WHERE user_email = $1 ORDER BY timestamp DESC, id DESC`, userEmail)
}

func (r *PGResponseRepository) CountByTypeAndUser(questionnaireType, userEmail string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(context.Background(), `
SELECT COUNT(*) FROM questionnaire_responses WHERE questionnaire_type = $1 AND user_email = $2`,
		questionnaireType, userEmail).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return n, nil
}

func (r *PGResponseRepository) query(sql string, args ...any) ([]*models.ResponseRecord, error) {
	rows, err := r.pool.Query(context.Background(), sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[models.ResponseRecord])
	if err != nil {
		return nil, fmt.Errorf("scan responses: %w", err)
	}
	return records, nil
}
