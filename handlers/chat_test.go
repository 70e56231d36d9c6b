package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"serenify/client"
	"serenify/services"
	"serenify/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

// fakeCompleter scripts the hosted-model boundary.
type fakeCompleter struct {
	health    services.UpstreamHealth
	fragments []string
	streamErr error
}

func (f *fakeCompleter) Probe(ctx context.Context) services.UpstreamHealth {
	return f.health
}

func (f *fakeCompleter) StreamCompletion(ctx context.Context, model, prompt string, onFragment func(string) error) error {
	for _, fragment := range f.fragments {
		if err := onFragment(fragment); err != nil {
			return err
		}
	}
	return f.streamErr
}

func newTestHandler(t *testing.T, completer services.Completer) (*ChatHandler, *store.ConversationStore, *gin.Engine) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := store.NewConversationStore(db, slog.Default())
	h := NewChatHandler(s, completer, nil, slog.Default())
	h.wordDelay = time.Millisecond
	return h, s, NewRouter(h)
}

func postChat(router *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, body string) string {
	t.Helper()
	text, err := client.DecodeEventStream(context.Background(), strings.NewReader(body), nil)
	require.NoError(t, err)
	return text
}

func Test_Completion_RejectsEmptyMessages(t *testing.T) {
	req := require.New(t)
	_, _, router := newTestHandler(t, &fakeCompleter{})

	for _, body := range []string{`{"messages":[]}`, `{}`, `not json`} {
		w := postChat(router, body)
		req.Equal(http.StatusBadRequest, w.Code)
		req.Contains(w.Body.String(), "error")
	}
}

func Test_Completion_LiveStream(t *testing.T) {
	req := require.New(t)
	fake := &fakeCompleter{
		health:    services.UpstreamHealth{Available: true, Model: "gemini-1.5-flash"},
		fragments: []string{"You are ", "not alone."},
	}
	_, _, router := newTestHandler(t, fake)

	w := postChat(router, `{"messages":[{"role":"user","content":"I feel low"}]}`)
	req.Equal(http.StatusOK, w.Code)
	req.Equal("text/event-stream", w.Header().Get("Content-Type"))
	req.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))

	body := w.Body.String()
	req.True(strings.HasSuffix(body, "data: [DONE]\n\n"))
	req.Equal("You are not alone.", decodeBody(t, body))
}

func Test_Completion_FallbackStreamWhenProbeFails(t *testing.T) {
	req := require.New(t)
	fake := &fakeCompleter{health: services.UpstreamHealth{Err: errors.New("quota exceeded")}}
	_, _, router := newTestHandler(t, fake)

	w := postChat(router, `{"messages":[{"role":"user","content":"I feel low"}]}`)
	req.Equal(http.StatusOK, w.Code)
	req.Equal("text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	req.True(strings.HasSuffix(body, "data: [DONE]\n\n"))

	// One pool phrase, delivered as multiple word-boundary events.
	text := decodeBody(t, body)
	req.True(lo.Contains(services.FallbackResponses, text))
	events := strings.Count(body, "data: ")
	req.Equal(len(strings.Split(text, " "))+1, events) // words + sentinel
}

func Test_Completion_FallbackWhenStreamFailsBeforeFirstFragment(t *testing.T) {
	req := require.New(t)
	fake := &fakeCompleter{
		health:    services.UpstreamHealth{Available: true, Model: "gemini-1.5-flash"},
		streamErr: errors.New("connection reset"),
	}
	_, _, router := newTestHandler(t, fake)

	w := postChat(router, `{"messages":[{"role":"user","content":"I feel low"}]}`)
	req.Equal(http.StatusOK, w.Code)
	req.True(lo.Contains(services.FallbackResponses, decodeBody(t, w.Body.String())))
}

func Test_Completion_MidStreamErrorTerminatesEarly(t *testing.T) {
	req := require.New(t)
	fake := &fakeCompleter{
		health:    services.UpstreamHealth{Available: true, Model: "gemini-1.5-flash"},
		fragments: []string{"Take a deep "},
		streamErr: errors.New("connection reset"),
	}
	_, _, router := newTestHandler(t, fake)

	w := postChat(router, `{"messages":[{"role":"user","content":"I feel low"}]}`)
	req.Equal(http.StatusOK, w.Code)

	// The partial live stream ends with the sentinel; no fallback phrase is
	// appended once streaming has begun.
	body := w.Body.String()
	req.True(strings.HasSuffix(body, "data: [DONE]\n\n"))
	req.Equal("Take a deep ", decodeBody(t, body))
}

func Test_Completion_PreflightAllowed(t *testing.T) {
	req := require.New(t)
	_, _, router := newTestHandler(t, &fakeCompleter{})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	router.ServeHTTP(w, r)

	req.Equal(http.StatusOK, w.Code)
	req.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))
	req.Contains(w.Header().Get("Access-Control-Allow-Methods"), "POST")
}
