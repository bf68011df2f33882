package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"jobboard/review-service/internal/review"
)

// Connection is the subset of *pgxpool.Pool used by PostgresStore.
type Connection interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ Connection = (*pgxpool.Pool)(nil)

// PostgresStore persists applications in PostgreSQL.
type PostgresStore struct {
	conn Connection
}

// NewPostgresStore returns a store backed by conn.
func NewPostgresStore(conn Connection) *PostgresStore {
	return &PostgresStore{conn: conn}
}

const selectApplications = `
	SELECT id, job_id, job_title, company_id,
	       candidate_id, candidate_name, candidate_email, candidate_location,
	       status, cover_letter, resume_ref, applied_at, updated_at
	FROM applications`

// applicationRow is the flat database shape of an application.
type applicationRow struct {
	ID                string    `db:"id"`
	JobID             string    `db:"job_id"`
	JobTitle          string    `db:"job_title"`
	CompanyID         string    `db:"company_id"`
	CandidateID       string    `db:"candidate_id"`
	CandidateName     string    `db:"candidate_name"`
	CandidateEmail    string    `db:"candidate_email"`
	CandidateLocation string    `db:"candidate_location"`
	Status            string    `db:"status"`
	CoverLetter       *string   `db:"cover_letter"`
	ResumeRef         *string   `db:"resume_ref"`
	AppliedAt         time.Time `db:"applied_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

type historyRow struct {
	ApplicationID string    `db:"application_id"`
	FromStatus    string    `db:"from_status"`
	ToStatus      string    `db:"to_status"`
	ChangedAt     time.Time `db:"changed_at"`
}

// mapRow is the SQL ingestion boundary: status spelling is normalised here.
func mapRow(r applicationRow) (review.Application, error) {
	st, err := review.NormalizeStatus(r.Status)
	if err != nil {
		return review.Application{}, fmt.Errorf("application %s: %w", r.ID, err)
	}
	return review.Application{
		ID:        r.ID,
		JobID:     r.JobID,
		JobTitle:  r.JobTitle,
		CompanyID: r.CompanyID,
		Candidate: review.Candidate{
			ID:       r.CandidateID,
			Name:     r.CandidateName,
			Email:    r.CandidateEmail,
			Location: r.CandidateLocation,
		},
		Status:      st,
		CoverLetter: r.CoverLetter,
		ResumeRef:   r.ResumeRef,
		AppliedAt:   r.AppliedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}, nil
}

// whereClause renders f as SQL conditions with positional arguments.
func whereClause(f review.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.CandidateID != "" {
		add("candidate_id = $%d", f.CandidateID)
	}
	if f.CompanyID != "" {
		add("company_id = $%d", f.CompanyID)
	}
	if f.JobID != "" {
		add("job_id = $%d", f.JobID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+likeEscaper.Replace(q)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(candidate_name ILIKE $%[1]d OR candidate_email ILIKE $%[1]d OR candidate_location ILIKE $%[1]d OR job_title ILIKE $%[1]d)", n))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List implements review.Store.
func (p *PostgresStore) List(ctx context.Context, f review.Filter) ([]review.Application, error) {
	where, args := whereClause(f)
	var rows []applicationRow
	err := pgxscan.Select(ctx, p.conn, &rows, selectApplications+where+" ORDER BY applied_at DESC, id ASC", args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	apps := make([]review.Application, 0, len(rows))
	for _, r := range rows {
		a, err := mapRow(r)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, nil
}

// Get implements review.Store.
func (p *PostgresStore) Get(ctx context.Context, id string) (review.Application, error) {
	return getApplication(ctx, p.conn, id)
}

func getApplication(ctx context.Context, q pgxscan.Querier, id string) (review.Application, error) {
	var row applicationRow
	if err := pgxscan.Get(ctx, q, &row, selectApplications+" WHERE id = $1", id); err != nil {
		if pgxscan.NotFound(err) {
			return review.Application{}, review.ErrNotFound
		}
		return review.Application{}, fmt.Errorf("get application %s: %w", id, err)
	}
	return mapRow(row)
}

// UpdateStatus implements review.Store. The status overwrite and its
// history entry are written in one transaction.
func (p *PostgresStore) UpdateStatus(ctx context.Context, id string, to review.Status, at time.Time, check review.Policy) (app review.Application, from review.Status, err error) {
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return review.Application{}, "", fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var current string
	if err = tx.QueryRow(ctx, `SELECT status FROM applications WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return review.Application{}, "", review.ErrNotFound
		}
		return review.Application{}, "", fmt.Errorf("select status: %w", err)
	}
	if from, err = review.NormalizeStatus(current); err != nil {
		return review.Application{}, "", fmt.Errorf("application %s: %w", id, err)
	}
	if check != nil {
		if err = check(from, to); err != nil {
			return review.Application{}, "", err
		}
	}

	if from != to {
		if _, err = tx.Exec(ctx,
			`UPDATE applications SET status = $1, updated_at = $2 WHERE id = $3`,
			string(to), at, id,
		); err != nil {
			return review.Application{}, "", fmt.Errorf("update status: %w", err)
		}
		if _, err = tx.Exec(ctx,
			`INSERT INTO application_history (application_id, from_status, to_status, changed_at)
			 VALUES ($1, $2, $3, $4)`,
			id, string(from), string(to), at,
		); err != nil {
			return review.Application{}, "", fmt.Errorf("insert history: %w", err)
		}
	}

	if app, err = getApplication(ctx, tx, id); err != nil {
		return review.Application{}, "", err
	}
	if err = tx.Commit(ctx); err != nil {
		return review.Application{}, "", fmt.Errorf("commit: %w", err)
	}
	return app, from, nil
}

// History implements review.Store.
func (p *PostgresStore) History(ctx context.Context, id string) ([]review.HistoryEntry, error) {
	var rows []historyRow
	err := pgxscan.Select(ctx, p.conn, &rows,
		`SELECT application_id, from_status, to_status, changed_at
		 FROM application_history WHERE application_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return lo.Map(rows, func(r historyRow, _ int) review.HistoryEntry {
		return review.HistoryEntry{
			ApplicationID: r.ApplicationID,
			From:          review.Status(r.FromStatus),
			To:            review.Status(r.ToStatus),
			At:            r.ChangedAt.UTC(),
		}
	}), nil
}

// Insert implements review.Store.
func (p *PostgresStore) Insert(ctx context.Context, a review.Application) error {
	if err := validate(a); err != nil {
		return err
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.AppliedAt
	}
	tag, err := p.conn.Exec(ctx,
		`INSERT INTO applications (id, job_id, job_title, company_id,
		        candidate_id, candidate_name, candidate_email, candidate_location,
		        status, cover_letter, resume_ref, applied_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO NOTHING`,
		a.ID, a.JobID, a.JobTitle, a.CompanyID,
		a.Candidate.ID, a.Candidate.Name, a.Candidate.Email, a.Candidate.Location,
		string(a.Status), a.CoverLetter, a.ResumeRef, a.AppliedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("insert %s: %w", a.ID, review.ErrConflict)
	}
	return nil
}
