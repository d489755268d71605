// Package sqlite provides a SQLite-backed candidate store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/skilltier/internal/adapters/repository"
	"github.com/okian/skilltier/internal/adapters/repository/sqlite/migrations"
	"github.com/okian/skilltier/internal/domain/model"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists candidates and skills in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var _ repository.Store = (*Store)(nil)

const candidateColumns = `id, email, first_name, last_name, phone, location, years_of_experience,
	status, tier, tier_score, notification_sent, created_at, updated_at`

const skillColumns = `id, candidate_id, skill_name, proficiency, years_used, created_at`

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite candidate store at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer connection serialises the conditional updates.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateCandidate inserts one candidate row.
func (s *Store) CreateCandidate(ctx context.Context, c model.Candidate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("candidate id is required: %w", model.ErrInvalid)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	if c.Status == "" {
		c.Status = model.StatusRegistered
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO candidates (
		   id, email, first_name, last_name, phone, location, years_of_experience,
		   status, tier, tier_score, notification_sent, seq, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		   (SELECT COALESCE(MAX(seq), 0) + 1 FROM candidates), ?, ?)`,
		c.ID,
		strings.ToLower(c.Email),
		c.FirstName,
		c.LastName,
		nullString(c.Phone),
		nullString(c.Location),
		c.YearsOfExperience,
		string(c.Status),
		nullInt(c.Tier),
		nullFloat(c.TierScore),
		boolInt(c.NotificationSent),
		toMillis(c.CreatedAt),
		toMillis(c.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("candidate with email %s: %w", c.Email, repository.ErrConflict)
		}
		return fmt.Errorf("create candidate: %w", err)
	}
	return nil
}

// GetCandidate returns one candidate with its skills.
func (s *Store) GetCandidate(ctx context.Context, id string) (model.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return model.Candidate{}, err
	}
	c, err := scanCandidate(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Candidate{}, fmt.Errorf("candidate %s: %w", id, repository.ErrNotFound)
		}
		return model.Candidate{}, fmt.Errorf("get candidate: %w", err)
	}
	if c.Skills, err = s.candidateSkills(ctx, id); err != nil {
		return model.Candidate{}, err
	}
	return c, nil
}

// ListCandidates returns a filtered page ordered newest first.
func (s *Store) ListCandidates(ctx context.Context, f model.ListFilter) ([]model.Candidate, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	where, args := filterClause(f)

	var total int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM candidates`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count candidates: %w", err)
	}

	skip := f.Skip
	if skip < 0 {
		skip = 0
	}
	limit := -1
	if f.Take > 0 {
		limit = f.Take
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates`+where+
			` ORDER BY created_at DESC, seq DESC LIMIT ? OFFSET ?`,
		append(args, limit, skip)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list candidates: %w", err)
	}
	out := make([]model.Candidate, 0)
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			_ = rows.Close()
			return nil, 0, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, 0, fmt.Errorf("iterate candidates: %w", err)
	}
	_ = rows.Close()

	// Skills are loaded after the cursor is released; the pool holds one connection.
	for i := range out {
		if out[i].Skills, err = s.candidateSkills(ctx, out[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

// UpdateCandidate applies a partial update inside one transaction.
func (s *Store) UpdateCandidate(ctx context.Context, id string, u model.CandidateUpdate) (model.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return model.Candidate{}, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return model.Candidate{}, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	c, err := scanCandidate(tx.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Candidate{}, fmt.Errorf("candidate %s: %w", id, repository.ErrNotFound)
		}
		return model.Candidate{}, fmt.Errorf("load candidate: %w", err)
	}
	c = u.Apply(c)
	c.UpdatedAt = s.now()

	if _, err := tx.ExecContext(ctx,
		`UPDATE candidates SET first_name = ?, last_name = ?, phone = ?, location = ?,
		   years_of_experience = ?, updated_at = ? WHERE id = ?`,
		c.FirstName, c.LastName, nullString(c.Phone), nullString(c.Location),
		c.YearsOfExperience, toMillis(c.UpdatedAt), id,
	); err != nil {
		return model.Candidate{}, fmt.Errorf("update candidate: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Candidate{}, fmt.Errorf("commit update: %w", err)
	}
	return s.GetCandidate(ctx, id)
}

// DeleteCandidate removes a candidate; its skills go with it.
func (s *Store) DeleteCandidate(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM skills WHERE candidate_id = ?`, id); err != nil {
		return fmt.Errorf("delete skills: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM candidates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	} else if n == 0 {
		return fmt.Errorf("candidate %s: %w", id, repository.ErrNotFound)
	}
	return tx.Commit()
}

// CountCandidates returns the number of candidate rows.
func (s *Store) CountCandidates(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM candidates`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count candidates: %w", err)
	}
	return n, nil
}

// ApplyAssessment writes tier, score and status in a single statement.
func (s *Store) ApplyAssessment(ctx context.Context, id string, tier int, score float64) (model.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return model.Candidate{}, err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE candidates SET tier = ?, tier_score = ?, status = ?, updated_at = ? WHERE id = ?`,
		tier, score, string(model.StatusTierAssigned), toMillis(s.now()), id,
	)
	if err != nil {
		return model.Candidate{}, fmt.Errorf("apply assessment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Candidate{}, fmt.Errorf("apply assessment: %w", err)
	}
	if n == 0 {
		return model.Candidate{}, fmt.Errorf("candidate %s: %w", id, repository.ErrNotFound)
	}
	return s.GetCandidate(ctx, id)
}

// MarkNotified sets notification_sent only when it is still 0.
func (s *Store) MarkNotified(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE candidates SET notification_sent = 1, updated_at = ?
		 WHERE id = ? AND notification_sent = 0`,
		toMillis(s.now()), id,
	)
	if err != nil {
		return false, fmt.Errorf("mark notified: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark notified: %w", err)
	}
	if n == 1 {
		return true, nil
	}
	var found int
	err = s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM candidates WHERE id = ?`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("candidate %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("mark notified: %w", err)
	}
	return false, nil
}

// AddSkill inserts one skill for an existing candidate.
func (s *Store) AddSkill(ctx context.Context, sk model.Skill) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(sk.ID) == "" {
		return fmt.Errorf("skill id is required: %w", model.ErrInvalid)
	}
	if sk.CreatedAt.IsZero() {
		sk.CreatedAt = s.now()
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add skill: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var found int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM candidates WHERE id = ?`, sk.CandidateID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("candidate %s: %w", sk.CandidateID, repository.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check candidate: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO skills (id, candidate_id, skill_name, proficiency, years_used, seq, created_at)
		 VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM skills), ?)`,
		sk.ID, sk.CandidateID, sk.Name, sk.Proficiency, sk.YearsUsed, toMillis(sk.CreatedAt),
	); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("skill %s: %w", sk.ID, repository.ErrConflict)
		}
		return fmt.Errorf("add skill: %w", err)
	}
	return tx.Commit()
}

// GetSkill returns one skill by id.
func (s *Store) GetSkill(ctx context.Context, id string) (model.Skill, error) {
	if err := ctx.Err(); err != nil {
		return model.Skill{}, err
	}
	sk, err := scanSkill(s.sqlDB.QueryRowContext(ctx, `SELECT `+skillColumns+` FROM skills WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Skill{}, fmt.Errorf("skill %s: %w", id, repository.ErrNotFound)
		}
		return model.Skill{}, fmt.Errorf("get skill: %w", err)
	}
	return sk, nil
}

// ListSkills returns a candidate's skills by proficiency descending.
func (s *Store) ListSkills(ctx context.Context, candidateID string) ([]model.Skill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.querySkills(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE candidate_id = ? ORDER BY proficiency DESC, seq ASC`,
		candidateID)
}

// UpdateSkill applies a partial update inside one transaction.
func (s *Store) UpdateSkill(ctx context.Context, id string, u model.SkillUpdate) (model.Skill, error) {
	if err := ctx.Err(); err != nil {
		return model.Skill{}, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return model.Skill{}, fmt.Errorf("begin update skill: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sk, err := scanSkill(tx.QueryRowContext(ctx, `SELECT `+skillColumns+` FROM skills WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Skill{}, fmt.Errorf("skill %s: %w", id, repository.ErrNotFound)
		}
		return model.Skill{}, fmt.Errorf("load skill: %w", err)
	}
	sk = u.Apply(sk)
	if _, err := tx.ExecContext(ctx,
		`UPDATE skills SET skill_name = ?, proficiency = ?, years_used = ? WHERE id = ?`,
		sk.Name, sk.Proficiency, sk.YearsUsed, id,
	); err != nil {
		return model.Skill{}, fmt.Errorf("update skill: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Skill{}, fmt.Errorf("commit update skill: %w", err)
	}
	return sk, nil
}

// DeleteSkill removes one skill.
func (s *Store) DeleteSkill(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM skills WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete skill: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete skill: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("skill %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

// AllSkills returns every skill row.
func (s *Store) AllSkills(ctx context.Context) ([]model.Skill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.querySkills(ctx, `SELECT `+skillColumns+` FROM skills ORDER BY seq ASC`)
}

func (s *Store) candidateSkills(ctx context.Context, candidateID string) ([]model.Skill, error) {
	return s.querySkills(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE candidate_id = ? ORDER BY seq ASC`, candidateID)
}

func (s *Store) querySkills(ctx context.Context, query string, args ...any) ([]model.Skill, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query skills: %w", err)
	}
	defer rows.Close()

	out := make([]model.Skill, 0)
	for rows.Next() {
		sk, err := scanSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		out = append(out, sk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate skills: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (model.Candidate, error) {
	var (
		c         model.Candidate
		phone     sql.NullString
		location  sql.NullString
		status    string
		tier      sql.NullInt64
		score     sql.NullFloat64
		notified  int64
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(
		&c.ID, &c.Email, &c.FirstName, &c.LastName, &phone, &location, &c.YearsOfExperience,
		&status, &tier, &score, &notified, &createdAt, &updatedAt,
	); err != nil {
		return model.Candidate{}, err
	}
	c.Phone = phone.String
	c.Location = location.String
	c.Status = model.Status(status)
	if tier.Valid {
		t := int(tier.Int64)
		c.Tier = &t
	}
	if score.Valid {
		sc := score.Float64
		c.TierScore = &sc
	}
	c.NotificationSent = notified != 0
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	c.Skills = []model.Skill{}
	return c, nil
}

func scanSkill(row rowScanner) (model.Skill, error) {
	var (
		sk        model.Skill
		createdAt int64
	)
	if err := row.Scan(&sk.ID, &sk.CandidateID, &sk.Name, &sk.Proficiency, &sk.YearsUsed, &createdAt); err != nil {
		return model.Skill{}, err
	}
	sk.CreatedAt = fromMillis(createdAt)
	return sk, nil
}

// filterClause renders the search and tier predicates of f.
func filterClause(f model.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Tier != nil {
		conds = append(conds, "tier = ?")
		args = append(args, *f.Tier)
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		conds = append(conds,
			`(LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func nullString(v string) sql.NullString {
	v = strings.TrimSpace(v)
	return sql.NullString{String: v, Valid: v != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
