package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newGeminiForTest(t *testing.T, handler http.Handler) *GeminiService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewGeminiServiceWithBaseURL("test-key", srv.URL, slog.Default())
	require.NoError(t, err)
	return svc
}

func TestNewGeminiService_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiService("   ", slog.Default())
	require.ErrorContains(t, err, "GEMINI_API_KEY")
}

func TestProbe_FallsBackToSecondModel(t *testing.T) {
	req := require.New(t)
	svc := newGeminiForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "gemini-1.5-flash") {
			http.Error(w, `{"error":{"message":"model not found"}}`, http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"API test successful"}]}}]}`)
	}))

	health := svc.Probe(context.Background())
	req.True(health.Available)
	req.Equal("gemini-1.5-pro", health.Model)
}

func TestProbe_ReportsUnavailableWhenAllModelsFail(t *testing.T) {
	req := require.New(t)
	svc := newGeminiForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))

	health := svc.Probe(context.Background())
	req.False(health.Available)
	req.Error(health.Err)
}

func TestProbe_TreatsEmbeddedErrorAsFailure(t *testing.T) {
	req := require.New(t)
	svc := newGeminiForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 status but an error payload, as the API does for some quota
		// conditions.
		fmt.Fprint(w, `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`)
	}))

	health := svc.Probe(context.Background())
	req.False(health.Available)
	req.ErrorContains(health.Err, "quota exceeded")
}

func TestStreamCompletion_RelaysFragments(t *testing.T) {
	req := require.New(t)
	svc := newGeminiForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Contains(r.URL.Path, ":streamGenerateContent")
		req.Equal("sse", r.URL.Query().Get("alt"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"candidates":[{"content":{"parts":[{"text":"Hello "}]}}]}`+"\n\n")
		fmt.Fprint(w, "data: not-json-keepalive\n\n")
		fmt.Fprint(w, `data: {"candidates":[{"content":{"parts":[{"text":"there."}]}}]}`+"\n\n")
	}))

	var fragments []string
	err := svc.StreamCompletion(context.Background(), "gemini-1.5-flash", "prompt", func(fragment string) error {
		fragments = append(fragments, fragment)
		return nil
	})
	req.NoError(err)
	req.Equal([]string{"Hello ", "there."}, fragments)
}

func TestStreamCompletion_ErrorStatus(t *testing.T) {
	req := require.New(t)
	svc := newGeminiForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))

	err := svc.StreamCompletion(context.Background(), "gemini-1.5-flash", "prompt", func(string) error { return nil })
	req.ErrorContains(err, "status 401")
}
