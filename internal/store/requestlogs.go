package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/karan-callify/backend/internal/reqlog"
)

const (
	DefaultLogLimit = 100
	MaxLogLimit     = 1000
)

// LogFilter narrows QueryRequestLogs. Empty fields match everything.
type LogFilter struct {
	Path      string // case-insensitive substring
	JobID     string
	RequestID string
	Limit     int
}

// InsertRequestLog writes one request and its buffered log entries.
func (s *Store) InsertRequestLog(ctx context.Context, rec reqlog.Record) error {
	logs, err := json.Marshal(rec.Logs)
	if err != nil {
		return fmt.Errorf("marshal logs: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO api_logs (request_id, job_id, path, method, status_code, logs, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7)`,
		rec.RequestID, rec.JobID, rec.Path, rec.Method, rec.StatusCode, logs, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert api log: %w", err)
	}
	return nil
}

// QueryRequestLogs returns matching records, newest first.
func (s *Store) QueryRequestLogs(ctx context.Context, f LogFilter) ([]reqlog.Record, error) {
	query, args := buildLogQuery(f)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query api logs: %w", err)
	}
	defer rows.Close()

	out := []reqlog.Record{}
	for rows.Next() {
		var (
			rec   reqlog.Record
			jobID *string
			logs  []byte
		)
		if err := rows.Scan(&rec.RequestID, &jobID, &rec.Path, &rec.Method, &rec.StatusCode, &logs, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan api log: %w", err)
		}
		if jobID != nil {
			rec.JobID = *jobID
		}
		if err := json.Unmarshal(logs, &rec.Logs); err != nil {
			return nil, fmt.Errorf("decode logs for %s: %w", rec.RequestID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func buildLogQuery(f LogFilter) (string, []any) {
	var where []string
	args := pgx.NamedArgs{}
	if f.Path != "" {
		where = append(where, "path ILIKE '%' || @path || '%'")
		args["path"] = f.Path
	}
	if f.JobID != "" {
		where = append(where, "job_id = @job_id")
		args["job_id"] = f.JobID
	}
	if f.RequestID != "" {
		where = append(where, "request_id::text = @request_id")
		args["request_id"] = f.RequestID
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	if limit > MaxLogLimit {
		limit = MaxLogLimit
	}
	args["limit"] = limit

	var sb strings.Builder
	sb.WriteString("SELECT request_id::text, job_id, path, method, status_code, logs, created_at FROM api_logs")
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC LIMIT @limit")
	return sb.String(), []any{args}
}
