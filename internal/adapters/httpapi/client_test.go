package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		base    string
		path    string
		want    string
		wantErr string
	}{
		{name: "plain", base: "http://localhost:8000", path: "/auth/me", want: "http://localhost:8000/auth/me"},
		{name: "trailing slashes", base: "http://localhost:8000///", path: "auth/me", want: "http://localhost:8000/auth/me"},
		{name: "base with prefix", base: "https://api.example.com/v1/", path: "/ocr", want: "https://api.example.com/v1/ocr"},
		{name: "keeps trailing path slash", base: "http://h", path: "/scan-history/", want: "http://h/scan-history/"},
		{name: "empty base", base: " ", path: "/x", wantErr: "base url is required"},
		{name: "bad scheme", base: "ftp://h", path: "/x", wantErr: "http or https"},
		{name: "no host", base: "http://", path: "/x", wantErr: "host is required"},
		{name: "empty path", base: "http://h", path: "", wantErr: "path is required"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := BuildURL(tc.base, tc.path)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDoSendsHeadersAndDecodesJSON(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/echo", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, err := uuid.Parse(r.Header.Get(RequestIDHeader))
		assert.NoError(t, err)
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	}))
	t.Cleanup(server.Close)

	body, contentType, err := JSONBody(map[string]string{"a": "b"})
	require.NoError(t, err)

	var out struct {
		Value string `json:"value"`
	}
	client := Client{BaseURL: server.URL, HTTPClient: server.Client()}
	err = client.Do(context.Background(), Request{
		Op: "echo", Method: http.MethodPost, Path: "/echo",
		Body: body, ContentType: contentType, BearerToken: "tok",
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Value)
}

func TestDoMapsStatusErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/unauthorized":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("boom"))
		}
	}))
	t.Cleanup(server.Close)

	client := Client{BaseURL: server.URL, HTTPClient: server.Client()}

	err := client.Do(context.Background(), Request{Op: "me", Method: http.MethodGet, Path: "/unauthorized"}, nil)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Equal(t, "Could not validate credentials", statusErr.Body)

	err = client.Do(context.Background(), Request{Op: "me", Method: http.MethodGet, Path: "/other"}, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)
	assert.EqualError(t, err, "me: status 500: boom")
}

func TestDoRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not-json`))
	}))
	t.Cleanup(server.Close)

	var out map[string]any
	client := Client{BaseURL: server.URL, HTTPClient: server.Client()}
	err := client.Do(context.Background(), Request{Op: "me", Method: http.MethodGet, Path: "/"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode me response")
}

func TestDoTimesOutWithoutCallerDeadline(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	client := Client{BaseURL: server.URL, HTTPClient: server.Client(), RequestTimeout: 20 * time.Millisecond}
	err := client.Do(context.Background(), Request{Op: "slow", Method: http.MethodGet, Path: "/"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slow")
}
