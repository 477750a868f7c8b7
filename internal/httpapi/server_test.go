package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-digest/internal/agent"
	"github.com/hal9000y/gmail-digest/internal/digest"
)

type digesterMock struct {
	GenerateFunc func(ctx context.Context, emailCount int) (*digest.Result, error)

	calls []int
}

func (m *digesterMock) Generate(ctx context.Context, emailCount int) (*digest.Result, error) {
	m.calls = append(m.calls, emailCount)
	return m.GenerateFunc(ctx, emailCount)
}

func doRequest(t *testing.T, s *Server, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestServerGenerateDigest(t *testing.T) {
	mock := &digesterMock{GenerateFunc: func(_ context.Context, emailCount int) (*digest.Result, error) {
		return &digest.Result{
			RunID:  "run-1",
			Stage:  agent.StageFormatted,
			Digest: "# Newsletter Digest\n\nAll quiet this week.",
		}, nil
	}}
	s := NewServer(mock)

	rec := doRequest(t, s, http.MethodPost, "/generate-digest", `{"emailCount":5}`, map[string]string{
		echo.HeaderOrigin: "http://extension.example",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","digest":"# Newsletter Digest\n\nAll quiet this week."}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, []int{5}, mock.calls)
}

func TestServerGenerateDigestNoBody(t *testing.T) {
	mock := &digesterMock{GenerateFunc: func(_ context.Context, emailCount int) (*digest.Result, error) {
		return &digest.Result{Digest: "# Newsletter Digest\n"}, nil
	}}
	s := NewServer(mock)

	rec := doRequest(t, s, http.MethodPost, "/generate-digest", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{0}, mock.calls, "missing emailCount should defer to the service default")
}

func TestServerGenerateDigestErrors(t *testing.T) {
	for _, tc := range []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "rejected count",
			err:      fmt.Errorf("%w: email count must be between 1 and 100, got 1000", agent.ErrConfiguration),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "busy",
			err:      digest.ErrBusy,
			wantCode: http.StatusTooManyRequests,
		},
		{
			name:     "run failure",
			err:      fmt.Errorf("run run-9: %w: gemini unreachable", agent.ErrModel),
			wantCode: http.StatusInternalServerError,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			mock := &digesterMock{GenerateFunc: func(context.Context, int) (*digest.Result, error) {
				return nil, tc.err
			}}
			s := NewServer(mock)

			rec := doRequest(t, s, http.MethodPost, "/generate-digest", `{"emailCount":3}`, nil)

			require.Equal(t, tc.wantCode, rec.Code)
			var resp statusResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, statusError, resp.Status)
			assert.Equal(t, tc.err.Error(), resp.Message)
			assert.Empty(t, resp.Digest)
		})
	}
}

func TestServerGenerateDigestBadBody(t *testing.T) {
	mock := &digesterMock{GenerateFunc: func(context.Context, int) (*digest.Result, error) {
		return nil, fmt.Errorf("must not run")
	}}
	s := NewServer(mock)

	rec := doRequest(t, s, http.MethodPost, "/generate-digest", `{"emailCount":"ten"}`, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"invalid request body"}`, rec.Body.String())
	assert.Empty(t, mock.calls)
}

func TestServerHealth(t *testing.T) {
	s := NewServer(&digesterMock{})

	rec := doRequest(t, s, http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestServerPreflight(t *testing.T) {
	s := NewServer(&digesterMock{})

	rec := doRequest(t, s, http.MethodOptions, "/generate-digest", "", map[string]string{
		echo.HeaderOrigin:                     "http://extension.example",
		echo.HeaderAccessControlRequestMethod: http.MethodPost,
	})

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodPost)
}

func TestServerMount(t *testing.T) {
	s := NewServer(&digesterMock{})
	s.Mount("/metrics", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("metrics ok"))
	}))

	rec := doRequest(t, s, http.MethodGet, "/metrics", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "metrics ok", rec.Body.String())
}

func TestServerUnknownRoute(t *testing.T) {
	s := NewServer(&digesterMock{})

	rec := doRequest(t, s, http.MethodGet, "/nope", "", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, statusError, resp.Status)
}
