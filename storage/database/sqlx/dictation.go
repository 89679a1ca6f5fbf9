package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/romangrishanov/ditado/core"
	"github.com/romangrishanov/ditado/core/dictation"
)

type dictationRow struct {
	ID          string     `db:"id"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Audio       null.Bytes `db:"audio"`
	AudioMime   string     `db:"audio_mime"`
	IsActive    bool       `db:"is_active"`
	AuthorID    string     `db:"author_id"`
	AuthorName  string     `db:"author_name"`
	CreatedAt   null.Time  `db:"created_at"`
	UpdatedAt   null.Time  `db:"updated_at"`
}

func (row dictationRow) toDictation() dictation.Dictation {
	return dictation.Dictation{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Audio:       row.Audio.Bytes,
		AudioMime:   row.AudioMime,
		IsActive:    row.IsActive,
		AuthorID:    row.AuthorID,
		AuthorName:  row.AuthorName,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}

type segmentRow struct {
	ID          string `db:"id"`
	DictationID string `db:"dictation_id"`
	Ord         int    `db:"ord"`
	Kind        string `db:"kind"`
	Content     string `db:"content"`
}

type attemptRow struct {
	ID          string    `db:"id"`
	DictationID string    `db:"dictation_id"`
	StudentID   string    `db:"student_id"`
	Score       float64   `db:"score"`
	SubmittedAt null.Time `db:"submitted_at"`
}

type attemptAnswerRow struct {
	AttemptID string `db:"attempt_id"`
	SegmentID string `db:"segment_id"`
	Expected  string `db:"expected"`
	Provided  string `db:"provided"`
	Correct   bool   `db:"correct"`
	ErrorKind string `db:"error_kind"`
}

const dictationSelect = `
	SELECT d.id, d.title, d.description, d.audio, d.audio_mime, d.is_active, d.author_id,
	       u.name AS author_name, d.created_at, d.updated_at
	FROM dictation d
	JOIN "user" u ON u.id = d.author_id`

type dictationRepository struct {
	db *sqlx.DB
}

var _ dictation.Repository = (*dictationRepository)(nil)

func NewDictationRepository(db *sqlx.DB) *dictationRepository {
	return &dictationRepository{db: db}
}

func (repo *dictationRepository) CreateDictation(ctx context.Context, d dictation.Dictation) (dictation.Dictation, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return dictation.Dictation{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO dictation (id, title, description, audio, audio_mime, is_active, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.Title, d.Description, d.Audio, d.AudioMime, d.IsActive, d.AuthorID, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return dictation.Dictation{}, errors.Wrap(err, "creating dictation")
	}

	if err = insertSegments(ctx, tx, d.ID, d.Segments); err != nil {
		return dictation.Dictation{}, err
	}

	if err = tx.Commit(); err != nil {
		return dictation.Dictation{}, errors.Wrap(err, "committing transaction")
	}
	return d, nil
}

func insertSegments(ctx context.Context, tx *sqlx.Tx, dictationID string, segments []dictation.Segment) error {
	for _, seg := range segments {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO dictation_segment (id, dictation_id, ord, kind, content)
			VALUES ($1, $2, $3, $4, $5)`,
			seg.ID, dictationID, seg.Order, string(seg.Kind), seg.Content,
		)
		if err != nil {
			return errors.Wrap(err, "creating segment")
		}
	}
	return nil
}

func (repo *dictationRepository) GetDictationByID(ctx context.Context, id string) (dictation.Dictation, error) {
	var row dictationRow
	if err := repo.db.GetContext(ctx, &row, dictationSelect+" WHERE d.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return dictation.Dictation{}, dictation.ErrNotFound
		}
		return dictation.Dictation{}, errors.Wrap(err, "getting dictation")
	}
	d := row.toDictation()

	var err error
	if d.Segments, err = repo.segments(ctx, id); err != nil {
		return dictation.Dictation{}, err
	}
	if d.Categories, err = repo.categories(ctx, id); err != nil {
		return dictation.Dictation{}, err
	}
	return d, nil
}

func (repo *dictationRepository) segments(ctx context.Context, dictationID string) ([]dictation.Segment, error) {
	var rows []segmentRow
	err := repo.db.SelectContext(ctx, &rows,
		"SELECT * FROM dictation_segment WHERE dictation_id = $1 ORDER BY ord", dictationID)
	if err != nil {
		return nil, errors.Wrap(err, "getting segments")
	}

	segments := make([]dictation.Segment, 0, len(rows))
	for _, row := range rows {
		segments = append(segments, dictation.Segment{
			ID:          row.ID,
			DictationID: row.DictationID,
			Order:       row.Ord,
			Kind:        dictation.SegmentKind(row.Kind),
			Content:     row.Content,
		})
	}
	return segments, nil
}

func (repo *dictationRepository) categories(ctx context.Context, dictationID string) ([]dictation.CategoryRef, error) {
	var refs []dictation.CategoryRef
	err := repo.db.SelectContext(ctx, &refs, `
		SELECT c.id, c.name
		FROM dictation_category dc
		JOIN category c ON c.id = dc.category_id
		WHERE dc.dictation_id = $1
		ORDER BY c.name`, dictationID)
	if err != nil {
		return nil, errors.Wrap(err, "getting dictation categories")
	}
	return refs, nil
}

func (repo *dictationRepository) FilterDictations(ctx context.Context, filter dictation.QueryFilter, orderings ...core.DBOrdering) ([]dictation.Dictation, error) {
	query := dictationSelect
	var conds []string
	var args []interface{}

	if filter.Search != "" {
		conds = append(conds, "(d.title ILIKE ? OR d.description ILIKE ?)")
		search := "%" + filter.Search + "%"
		args = append(args, search, search)
	}
	if filter.CategoryID != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM dictation_category dc WHERE dc.dictation_id = d.id AND dc.category_id = ?)")
		args = append(args, filter.CategoryID)
	}
	if filter.AuthorID != "" {
		conds = append(conds, "d.author_id = ?")
		args = append(args, filter.AuthorID)
	}
	if filter.IsActive != nil {
		conds = append(conds, "d.is_active = ?")
		args = append(args, *filter.IsActive)
	}
	if !filter.CreatedFrom.IsZero() {
		conds = append(conds, "d.created_at >= ?")
		args = append(args, filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		conds = append(conds, "d.created_at <= ?")
		args = append(args, filter.CreatedTo)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderBy(orderings, "d.created_at DESC")

	var rows []dictationRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering dictations")
	}

	// listing skips segments and audio details by design of the list endpoints
	dictations := make([]dictation.Dictation, 0, len(rows))
	for _, row := range rows {
		dictations = append(dictations, row.toDictation())
	}
	return dictations, nil
}

func (repo *dictationRepository) UpdateDictation(ctx context.Context, d dictation.Dictation, isActive *bool) (dictation.Dictation, error) {
	orig, err := repo.GetDictationByID(ctx, d.ID)
	if err != nil {
		return dictation.Dictation{}, err
	}

	merged := orig
	if d.Title != "" {
		merged.Title = d.Title
	}
	if d.Description != "" {
		merged.Description = d.Description
	}
	if d.Audio != nil {
		merged.Audio = d.Audio
		merged.AudioMime = d.AudioMime
	}
	if isActive != nil {
		merged.IsActive = *isActive
	}
	if !d.UpdatedAt.IsZero() {
		merged.UpdatedAt = d.UpdatedAt
	}

	// segments are never touched here; attempt answers reference them
	_, err = repo.db.ExecContext(ctx, `
		UPDATE dictation
		SET title = $2, description = $3, audio = $4, audio_mime = $5, is_active = $6, updated_at = $7
		WHERE id = $1`,
		merged.ID, merged.Title, merged.Description, merged.Audio, merged.AudioMime, merged.IsActive, merged.UpdatedAt,
	)
	if err != nil {
		return dictation.Dictation{}, errors.Wrap(err, "updating dictation")
	}
	return merged, nil
}

func (repo *dictationRepository) SetDictationCategories(ctx context.Context, id string, categoryIDs []string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, "DELETE FROM dictation_category WHERE dictation_id = $1", id); err != nil {
		return errors.Wrap(err, "clearing dictation categories")
	}
	for _, catID := range categoryIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO dictation_category (dictation_id, category_id) VALUES ($1, $2)", id, catID)
		if err != nil {
			return errors.Wrap(err, "setting dictation categories")
		}
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo *dictationRepository) DeleteDictationsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In("DELETE FROM dictation WHERE id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting dictations")
	}
	return nil
}

func (repo *dictationRepository) CreateAttempt(ctx context.Context, att dictation.Attempt) (dictation.Attempt, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return dictation.Attempt{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO attempt (id, dictation_id, student_id, score, submitted_at)
		VALUES ($1, $2, $3, $4, $5)`,
		att.ID, att.DictationID, att.StudentID, att.Score, att.SubmittedAt,
	)
	if err != nil {
		return dictation.Attempt{}, errors.Wrap(err, "creating attempt")
	}

	for _, ans := range att.Answers {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO attempt_answer (attempt_id, segment_id, expected, provided, correct, error_kind)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			att.ID, ans.SegmentID, ans.Expected, ans.Provided, ans.Correct, string(ans.ErrorKind),
		)
		if err != nil {
			return dictation.Attempt{}, errors.Wrap(err, "creating attempt answer")
		}
	}

	if err = tx.Commit(); err != nil {
		return dictation.Attempt{}, errors.Wrap(err, "committing transaction")
	}
	return att, nil
}

func (repo *dictationRepository) FilterAttempts(ctx context.Context, filter dictation.AttemptFilter) ([]dictation.Attempt, error) {
	query := "SELECT * FROM attempt"
	var conds []string
	var args []interface{}

	if filter.DictationID != "" {
		conds = append(conds, "dictation_id = ?")
		args = append(args, filter.DictationID)
	}
	if filter.StudentID != "" {
		conds = append(conds, "student_id = ?")
		args = append(args, filter.StudentID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY submitted_at"

	var rows []attemptRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering attempts")
	}

	attempts := make([]dictation.Attempt, 0, len(rows))
	for _, row := range rows {
		att := dictation.Attempt{
			ID:          row.ID,
			DictationID: row.DictationID,
			StudentID:   row.StudentID,
			Score:       row.Score,
			SubmittedAt: row.SubmittedAt.Time,
		}
		answers, err := repo.answers(ctx, att.ID)
		if err != nil {
			return nil, err
		}
		att.Answers = answers
		attempts = append(attempts, att)
	}
	return attempts, nil
}

func (repo *dictationRepository) answers(ctx context.Context, attemptID string) ([]dictation.AttemptAnswer, error) {
	var rows []attemptAnswerRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT aa.* FROM attempt_answer aa
		JOIN dictation_segment s ON s.id = aa.segment_id
		WHERE aa.attempt_id = $1
		ORDER BY s.ord`, attemptID)
	if err != nil {
		return nil, errors.Wrap(err, "getting attempt answers")
	}

	answers := make([]dictation.AttemptAnswer, 0, len(rows))
	for _, row := range rows {
		answers = append(answers, dictation.AttemptAnswer{
			SegmentID: row.SegmentID,
			Expected:  row.Expected,
			Provided:  row.Provided,
			Correct:   row.Correct,
			ErrorKind: dictation.ErrorKind(row.ErrorKind),
		})
	}
	return answers, nil
}
