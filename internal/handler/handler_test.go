package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sgad/referee-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- RespondJSON Tests ---

func TestRespondJSON(t *testing.T) {
	t.Run("200 with body", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("201 with body", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondJSON(w, http.StatusCreated, map[string]int{"id": 42})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("204 with nil body", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondJSON(w, http.StatusNoContent, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

// --- RespondError Tests ---

func TestRespondError(t *testing.T) {
	t.Run("AppError maps to correct status", func(t *testing.T) {
		tests := []struct {
			err        *domain.AppError
			wantStatus int
			wantCode   string
		}{
			{domain.ErrRefereeNotFound(), 404, "NOT_FOUND"},
			{domain.ErrValidation("bad input"), 422, "VALIDATION_ERROR"},
			{domain.ErrConflict("duplicate"), 409, "CONFLICT"},
			{domain.ErrInternal("oops", nil), 500, "INTERNAL_ERROR"},
		}

		for _, tt := range tests {
			t.Run(tt.wantCode, func(t *testing.T) {
				w := httptest.NewRecorder()
				RespondError(w, tt.err)
				assert.Equal(t, tt.wantStatus, w.Code)

				var body map[string]interface{}
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, tt.wantCode, body["code"])
				assert.NotContains(t, body, "fields")
			})
		}
	})

	t.Run("field errors are included", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondError(w, domain.ErrValidationFields([]domain.FieldError{
			{Field: "license_number", Message: "is required"},
		}))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var body struct {
			Code   string              `json:"code"`
			Fields []domain.FieldError `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		require.Len(t, body.Fields, 1)
		assert.Equal(t, "license_number", body.Fields[0].Field)
	})

	t.Run("generic error returns 500", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondError(w, assert.AnError)
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "INTERNAL_ERROR", body["code"])
		assert.Equal(t, "internal server error", body["message"])
	})
}

// --- DecodeJSON Tests ---

func TestDecodeJSON(t *testing.T) {
	t.Run("valid JSON body", func(t *testing.T) {
		body := bytes.NewBufferString(`{"name":"test","value":42}`)
		r := httptest.NewRequest(http.MethodPost, "/", body)
		var dst struct {
			Name  string `json:"name"`
			Value int    `json:"value"`
		}
		require.NoError(t, DecodeJSON(r, &dst))
		assert.Equal(t, "test", dst.Name)
		assert.Equal(t, 42, dst.Value)
	})

	t.Run("invalid JSON returns error", func(t *testing.T) {
		body := bytes.NewBufferString(`{invalid`)
		r := httptest.NewRequest(http.MethodPost, "/", body)
		var dst map[string]interface{}
		err := DecodeJSON(r, &dst)
		require.Error(t, err)
	})

	t.Run("trailing data returns error", func(t *testing.T) {
		for _, raw := range []string{`{"name":"x"}garbage`, `{"name":"x"}{"name":"y"}`, `{"name":"x"}}`} {
			r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(raw))
			var dst struct {
				Name string `json:"name"`
			}
			assert.Error(t, DecodeJSON(r, &dst), raw)
		}
	})

	t.Run("trailing whitespace is fine", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{\"name\":\"x\"}\n  "))
		var dst struct {
			Name string `json:"name"`
		}
		require.NoError(t, DecodeJSON(r, &dst))
		assert.Equal(t, "x", dst.Name)
	})

	t.Run("unknown field returns error", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"x","extra":1}`))
		var dst struct {
			Name string `json:"name"`
		}
		require.Error(t, DecodeJSON(r, &dst))
	})

	t.Run("body exceeding 1MiB returns error", func(t *testing.T) {
		bigBody := `{"name":"` + strings.Repeat("x", 1<<20+1) + `"}`
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(bigBody))
		var dst map[string]interface{}
		err := DecodeJSON(r, &dst)
		require.Error(t, err)
	})
}

// --- ClientIP Tests ---

func TestClientIP(t *testing.T) {
	t.Run("X-Forwarded-For single IP", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", "1.2.3.4")
		assert.Equal(t, "1.2.3.4", ClientIP(r))
	})

	t.Run("X-Forwarded-For multiple IPs takes first", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8, 9.10.11.12")
		assert.Equal(t, "1.2.3.4", ClientIP(r))
	})

	t.Run("X-Forwarded-For with spaces", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", "  1.2.3.4  ")
		assert.Equal(t, "1.2.3.4", ClientIP(r))
	})

	t.Run("no X-Forwarded-For uses RemoteAddr", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "10.0.0.1:54321"
		assert.Equal(t, "10.0.0.1", ClientIP(r))
	})

	t.Run("RemoteAddr without port", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "10.0.0.1"
		// No colon, returns full string
		assert.Equal(t, "10.0.0.1", ClientIP(r))
	})
}

// --- RequestID Middleware Tests ---

func TestRequestID(t *testing.T) {
	t.Run("generates ID when none provided", func(t *testing.T) {
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := GetRequestID(r.Context())
			assert.NotEmpty(t, id)
			w.WriteHeader(http.StatusOK)
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("uses provided X-Request-ID", func(t *testing.T) {
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := GetRequestID(r.Context())
			assert.Equal(t, "my-custom-id", id)
			w.WriteHeader(http.StatusOK)
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", "my-custom-id")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, "my-custom-id", w.Header().Get("X-Request-ID"))
	})
}

func TestGetRequestID_EmptyContext(t *testing.T) {
	id := GetRequestID(context.Background())
	assert.Empty(t, id)
}

// --- JSONContentType Middleware Tests ---

func TestJSONContentType(t *testing.T) {
	handler := JSONContentType(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

// --- CORS Middleware Tests ---

func TestCORSWithOrigins(t *testing.T) {
	t.Run("sets CORS headers", func(t *testing.T) {
		handler := CORSWithOrigins("*")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "GET")
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
		assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Request-ID")
	})

	t.Run("OPTIONS returns 204", func(t *testing.T) {
		handler := CORSWithOrigins("https://example.com")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		r := httptest.NewRequest(http.MethodOptions, "/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("specific origin", func(t *testing.T) {
		handler := CORSWithOrigins("https://sgad.example.org")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, "https://sgad.example.org", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("list echoes matching origin", func(t *testing.T) {
		handler := CORSWithOrigins("https://a.example.org, https://b.example.org")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "https://b.example.org")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, "https://b.example.org", w.Header().Get("Access-Control-Allow-Origin"))

		r = httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "https://evil.example.org")
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

// --- Health Tests ---

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		w := httptest.NewRecorder()
		HealthHandler(pingFunc(func(context.Context) error { return nil }))(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "healthy")
	})

	t.Run("unhealthy", func(t *testing.T) {
		w := httptest.NewRecorder()
		HealthHandler(pingFunc(func(context.Context) error { return assert.AnError }))(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "unhealthy")
	})
}

func TestRootHandler(t *testing.T) {
	w := httptest.NewRecorder()
	RootHandler(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "Referee Management Service", body["message"])
	assert.Equal(t, "active", body["status"])
}

// --- Recovery Middleware Tests ---

func TestRecovery(t *testing.T) {
	t.Run("recovers from panic", func(t *testing.T) {
		logger := noopLogger()
		handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("something went wrong")
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		// Should not panic
		assert.NotPanics(t, func() {
			handler.ServeHTTP(w, r)
		})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	})

	t.Run("passes through without panic", func(t *testing.T) {
		logger := noopLogger()
		handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"ok":true}`))
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

// --- responseWriter Tests ---

func TestResponseWriter_CapturesStatus(t *testing.T) {
	w := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: w, status: 200}

	rw.WriteHeader(http.StatusNotFound)
	assert.Equal(t, 404, rw.status)
	assert.Equal(t, 404, w.Code)
}

// --- RefereeHandler Tests ---

type fakeRefereeService struct {
	create      func(ctx context.Context, input domain.RefereeCreate) (*domain.Referee, error)
	list        func(ctx context.Context) ([]domain.Referee, error)
	getByID     func(ctx context.Context, id uuid.UUID) (*domain.Referee, error)
	getByUserID func(ctx context.Context, userID uuid.UUID) (*domain.Referee, error)
	update      func(ctx context.Context, id uuid.UUID, input domain.RefereeUpdate) (*domain.Referee, error)
	delete      func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeRefereeService) Create(ctx context.Context, input domain.RefereeCreate) (*domain.Referee, error) {
	return f.create(ctx, input)
}

func (f *fakeRefereeService) List(ctx context.Context) ([]domain.Referee, error) {
	return f.list(ctx)
}

func (f *fakeRefereeService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Referee, error) {
	return f.getByID(ctx, id)
}

func (f *fakeRefereeService) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Referee, error) {
	return f.getByUserID(ctx, userID)
}

func (f *fakeRefereeService) Update(ctx context.Context, id uuid.UUID, input domain.RefereeUpdate) (*domain.Referee, error) {
	return f.update(ctx, id, input)
}

func (f *fakeRefereeService) Delete(ctx context.Context, id uuid.UUID) error {
	return f.delete(ctx, id)
}

func refereeRouter(svc RefereeService) http.Handler {
	r := chi.NewRouter()
	r.Route("/referees", NewRefereeHandler(svc, noopLogger()).Routes)
	return r
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, rdr))
	return w
}

func sampleReferee() *domain.Referee {
	return &domain.Referee{
		ID:                 uuid.New(),
		UserID:             uuid.New(),
		LicenseNumber:      "LIC-001",
		Specialties:        []string{"football"},
		CertificationLevel: "national",
		IsAvailable:        true,
	}
}

func TestRefereeHandler_Create(t *testing.T) {
	ref := sampleReferee()
	var got domain.RefereeCreate
	h := refereeRouter(&fakeRefereeService{
		create: func(_ context.Context, input domain.RefereeCreate) (*domain.Referee, error) {
			got = input
			return ref, nil
		},
	})

	body := `{"user_id":"` + ref.UserID.String() + `","license_number":"LIC-001","specialties":["football"],"certification_level":"national"}`
	w := serve(h, http.MethodPost, "/referees/", body)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "LIC-001", got.LicenseNumber)

	var out domain.Referee
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.Equal(t, ref.ID, out.ID)
	assert.True(t, out.IsAvailable)
}

func TestRefereeHandler_CreateWithoutTrailingSlash(t *testing.T) {
	h := refereeRouter(&fakeRefereeService{
		create: func(context.Context, domain.RefereeCreate) (*domain.Referee, error) {
			return sampleReferee(), nil
		},
	})
	w := serve(h, http.MethodPost, "/referees", `{"license_number":"X"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRefereeHandler_CreateMalformedBody(t *testing.T) {
	called := false
	h := refereeRouter(&fakeRefereeService{
		create: func(context.Context, domain.RefereeCreate) (*domain.Referee, error) {
			called = true
			return nil, nil
		},
	})

	w := serve(h, http.MethodPost, "/referees/", `{"license_number":`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.False(t, called)
}

func TestRefereeHandler_CreateTrailingData(t *testing.T) {
	called := false
	h := refereeRouter(&fakeRefereeService{
		create: func(context.Context, domain.RefereeCreate) (*domain.Referee, error) {
			called = true
			return sampleReferee(), nil
		},
	})

	w := serve(h, http.MethodPost, "/referees/", `{"license_number":"X"}{"license_number":"Y"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.False(t, called)
}

func TestRefereeHandler_CreateConflict(t *testing.T) {
	h := refereeRouter(&fakeRefereeService{
		create: func(context.Context, domain.RefereeCreate) (*domain.Referee, error) {
			return nil, domain.ErrConflict("license_number already registered")
		},
	})

	w := serve(h, http.MethodPost, "/referees/", `{"license_number":"LIC-001"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRefereeHandler_List(t *testing.T) {
	t.Run("empty list is an array", func(t *testing.T) {
		h := refereeRouter(&fakeRefereeService{
			list: func(context.Context) ([]domain.Referee, error) { return []domain.Referee{}, nil },
		})
		w := serve(h, http.MethodGet, "/referees/", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("internal error", func(t *testing.T) {
		h := refereeRouter(&fakeRefereeService{
			list: func(context.Context) ([]domain.Referee, error) {
				return nil, domain.ErrInternal("failed to list referees", assert.AnError)
			},
		})
		w := serve(h, http.MethodGet, "/referees/", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), assert.AnError.Error())
	})
}

func TestRefereeHandler_GetByID(t *testing.T) {
	ref := sampleReferee()
	h := refereeRouter(&fakeRefereeService{
		getByID: func(_ context.Context, id uuid.UUID) (*domain.Referee, error) {
			if id == ref.ID {
				return ref, nil
			}
			return nil, domain.ErrRefereeNotFound()
		},
	})

	t.Run("found", func(t *testing.T) {
		w := serve(h, http.MethodGet, "/referees/"+ref.ID.String(), "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		w := serve(h, http.MethodGet, "/referees/"+uuid.New().String(), "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, domain.MsgRefereeNotFound, body["message"])
	})

	t.Run("invalid id", func(t *testing.T) {
		w := serve(h, http.MethodGet, "/referees/not-a-uuid", "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "referee_id")
	})
}

func TestRefereeHandler_GetByUserID(t *testing.T) {
	ref := sampleReferee()
	var got uuid.UUID
	h := refereeRouter(&fakeRefereeService{
		getByUserID: func(_ context.Context, userID uuid.UUID) (*domain.Referee, error) {
			got = userID
			return ref, nil
		},
	})

	w := serve(h, http.MethodGet, "/referees/user/"+ref.UserID.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ref.UserID, got)

	w = serve(h, http.MethodGet, "/referees/user/nope", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRefereeHandler_Update(t *testing.T) {
	ref := sampleReferee()
	var got domain.RefereeUpdate
	h := refereeRouter(&fakeRefereeService{
		update: func(_ context.Context, id uuid.UUID, input domain.RefereeUpdate) (*domain.Referee, error) {
			got = input
			ref.IsAvailable = false
			return ref, nil
		},
	})

	w := serve(h, http.MethodPut, "/referees/"+ref.ID.String(), `{"is_available":false,"bank_name":null}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, got.IsAvailable.Set)
	assert.False(t, got.IsAvailable.Value)
	assert.True(t, got.BankName.Null)
	assert.False(t, got.LicenseNumber.Set)

	var out domain.Referee
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.False(t, out.IsAvailable)
}

func TestRefereeHandler_Delete(t *testing.T) {
	id := uuid.New()
	h := refereeRouter(&fakeRefereeService{
		delete: func(_ context.Context, got uuid.UUID) error {
			if got == id {
				return nil
			}
			return domain.ErrRefereeNotFound()
		},
	})

	w := serve(h, http.MethodDelete, "/referees/"+id.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"`+domain.MsgRefereeDeleted+`"}`, w.Body.String())

	w = serve(h, http.MethodDelete, "/referees/"+uuid.New().String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// helper

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
