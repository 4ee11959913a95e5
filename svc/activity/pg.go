package activity

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/audit"
)

// Querier is the subset of pgxpool.Pool the storage uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const table = "tenant_activity"

var (
	psql    = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	columns = []string{"id", "tenant_id", "user_id", "action", "resource", "resource_id", "result", "error", "request_id", "created_at"}
)

// PGStorage is an audit.Storage and audit.StorageCounter on PostgreSQL.
type PGStorage struct {
	db Querier
}

func NewPGStorage(db Querier) *PGStorage {
	return &PGStorage{db: db}
}

func (s *PGStorage) Store(ctx context.Context, events ...audit.Event) error {
	if len(events) == 0 {
		return nil
	}
	q := psql.Insert(table).Columns(columns...)
	for _, e := range events {
		if err := validate(e); err != nil {
			return err
		}
		q = q.Values(e.ID, e.TenantID, e.UserID, e.Action, e.Resource, e.ResourceID,
			string(e.Result), e.Error, e.RequestID, e.CreatedAt)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build activity insert: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

func (s *PGStorage) Query(ctx context.Context, c audit.Criteria) ([]audit.Event, error) {
	query, args, err := selectEvents(c).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build activity query: %w", err)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (audit.Event, error) {
		var (
			e      audit.Event
			result string
		)
		err := row.Scan(&e.ID, &e.TenantID, &e.UserID, &e.Action, &e.Resource, &e.ResourceID,
			&result, &e.Error, &e.RequestID, &e.CreatedAt)
		e.Result = audit.Result(result)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	return events, nil
}

func (s *PGStorage) Count(ctx context.Context, c audit.Criteria) (int64, error) {
	query, args, err := where(psql.Select("count(*)").From(table), c).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build activity count: %w", err)
	}
	var n int64
	if err := s.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count activity: %w", err)
	}
	return n, nil
}

func selectEvents(c audit.Criteria) sq.SelectBuilder {
	q := where(psql.Select(columns...).From(table), c).
		OrderBy("created_at DESC", "seq DESC")
	if c.Limit > 0 {
		q = q.Limit(uint64(c.Limit))
	}
	if c.Offset > 0 {
		q = q.Offset(uint64(c.Offset))
	}
	return q
}

func where(q sq.SelectBuilder, c audit.Criteria) sq.SelectBuilder {
	if c.TenantID != "" {
		q = q.Where(sq.Eq{"tenant_id": c.TenantID})
	}
	if c.UserID != "" {
		q = q.Where(sq.Eq{"user_id": c.UserID})
	}
	if c.Action != "" {
		q = q.Where(sq.Eq{"action": c.Action})
	}
	if !c.StartTime.IsZero() {
		q = q.Where(sq.GtOrEq{"created_at": c.StartTime})
	}
	if !c.EndTime.IsZero() {
		q = q.Where(sq.Lt{"created_at": c.EndTime})
	}
	return q
}
