package store

import (
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestBuildLogQuery_NoFilters(t *testing.T) {
	q, args := buildLogQuery(LogFilter{})
	want := "SELECT request_id::text, job_id, path, method, status_code, logs, created_at FROM api_logs ORDER BY created_at DESC LIMIT @limit"
	if q != want {
		t.Errorf("query = %q", q)
	}
	named := args[0].(pgx.NamedArgs)
	if named["limit"] != DefaultLogLimit {
		t.Errorf("expected default limit, got %v", named["limit"])
	}
}

func TestBuildLogQuery_AllFilters(t *testing.T) {
	q, args := buildLogQuery(LogFilter{Path: "convocall", JobID: "42", RequestID: "abc", Limit: 5000})
	for _, frag := range []string{
		"path ILIKE '%' || @path || '%'",
		"job_id = @job_id",
		"request_id::text = @request_id",
		" AND ",
	} {
		if !strings.Contains(q, frag) {
			t.Errorf("query missing %q: %s", frag, q)
		}
	}
	named := args[0].(pgx.NamedArgs)
	if named["limit"] != MaxLogLimit {
		t.Errorf("expected limit clamped to %d, got %v", MaxLogLimit, named["limit"])
	}
	if named["path"] != "convocall" || named["job_id"] != "42" || named["request_id"] != "abc" {
		t.Errorf("unexpected args: %v", named)
	}
}

