//go:build integration

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sgad/referee-service/internal/domain"
)

func (env *TestEnv) do(method, path string, body io.Reader) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest(method, env.Server.URL+path, body)
	if err != nil {
		env.t.Fatalf("%s %s: new request: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func (env *TestEnv) encode(method, path string, body interface{}) io.Reader {
	env.t.Helper()
	if raw, ok := body.(string); ok {
		return strings.NewReader(raw)
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		env.t.Fatalf("%s %s: encode: %v", method, path, err)
	}
	return &buf
}

// GET performs a GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	return env.do(http.MethodGet, path, nil)
}

// POST sends body as JSON. A string body is sent verbatim.
func (env *TestEnv) POST(path string, body interface{}) *http.Response {
	env.t.Helper()
	return env.do(http.MethodPost, path, env.encode(http.MethodPost, path, body))
}

// PUT sends body as JSON. A string body is sent verbatim.
func (env *TestEnv) PUT(path string, body interface{}) *http.Response {
	env.t.Helper()
	return env.do(http.MethodPut, path, env.encode(http.MethodPut, path, body))
}

// DELETE performs a DELETE request.
func (env *TestEnv) DELETE(path string) *http.Response {
	env.t.Helper()
	return env.do(http.MethodDelete, path, nil)
}

// OPTIONS performs an OPTIONS request.
func (env *TestEnv) OPTIONS(path string) *http.Response {
	env.t.Helper()
	return env.do(http.MethodOptions, path, nil)
}

// RefereeBody returns a valid create payload with a fresh user_id.
func RefereeBody(license string) map[string]interface{} {
	return map[string]interface{}{
		"user_id":             uuid.New().String(),
		"license_number":      license,
		"specialties":         []string{"football"},
		"certification_level": "national",
	}
}

// CreateReferee posts body and fails the test unless the referee is created.
func (env *TestEnv) CreateReferee(body map[string]interface{}) domain.Referee {
	env.t.Helper()
	resp := env.POST("/referees/", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		env.t.Fatalf("CreateReferee: expected 201, got %d: %s", resp.StatusCode, raw)
	}

	var ref domain.Referee
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil {
		env.t.Fatalf("CreateReferee: decode: %v", err)
	}
	return ref
}

// RefereePath returns /referees/{id}.
func RefereePath(id fmt.Stringer) string {
	return "/referees/" + id.String()
}
