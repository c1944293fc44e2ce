//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
)

// DecodeJSON reads and decodes a JSON response body into dst.
func DecodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
}

// AssertStatus checks that the response has the expected HTTP status code.
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// ErrorBody is the decoded error envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Fields  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"fields"`
}

// HasField reports whether field appears among the field errors.
func (b ErrorBody) HasField(field string) bool {
	for _, f := range b.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// AssertError checks the status and error code and returns the decoded body.
func AssertError(t *testing.T, resp *http.Response, status int, code string) ErrorBody {
	t.Helper()
	AssertStatus(t, resp, status)
	var body ErrorBody
	DecodeJSON(t, resp, &body)
	if body.Code != code {
		t.Errorf("expected error code %q, got %q (message: %s)", code, body.Code, body.Message)
	}
	return body
}

// CountReferees returns the number of rows in referees.
func CountReferees(t *testing.T, env *TestEnv) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	if err := env.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM referees").Scan(&count); err != nil {
		t.Fatalf("CountReferees: %v", err)
	}
	return count
}

// OutboxEventTypes returns the event types recorded for a referee, oldest first.
func OutboxEventTypes(t *testing.T, env *TestEnv, refereeID uuid.UUID) []string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := env.Pool.Query(ctx,
		"SELECT event_type FROM referee_outbox WHERE aggregate_id = $1 ORDER BY id", refereeID.String())
	if err != nil {
		t.Fatalf("OutboxEventTypes: %v", err)
	}
	defer rows.Close()

	types := make([]string, 0)
	for rows.Next() {
		var et string
		if err := rows.Scan(&et); err != nil {
			t.Fatalf("OutboxEventTypes: scan: %v", err)
		}
		types = append(types, et)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("OutboxEventTypes: %v", err)
	}
	return types
}
