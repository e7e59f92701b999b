package observability

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ObserveDB times one logical repository operation and counts failures by
// class. op is the "<table>.<action>" label the repos pass in.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start).Seconds()

	if err != nil {
		p.DbErrorsTotal.WithLabelValues(op, dbErrClass(err)).Inc()
		p.DbQueryDuration.WithLabelValues(op, "error").Observe(elapsed)
		return err
	}

	p.DbQueryDuration.WithLabelValues(op, "ok").Observe(elapsed)
	return nil
}

// dbErrClass buckets the failures this schema can produce: the unique index
// on users.email and the post_likes primary key raise 23505, the post_likes
// foreign keys raise 23503, and a blown statement deadline is 57014 or a
// context error depending on who cancelled first.
func dbErrClass(err error) string {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return "unique_violation"
		case "23503":
			return "foreign_key_violation"
		case "57014":
			return "query_canceled"
		default:
			return "pg_" + pgErr.Code
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout"
	}

	if strings.Contains(strings.ToLower(err.Error()), "connection") {
		return "connection"
	}

	return "other"
}
