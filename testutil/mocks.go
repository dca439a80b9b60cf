// Package testutil provides mock servers and database fixtures shared
// across package tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// MockTubeServer creates a test server that mocks the public YouTube
// web endpoints (watch pages and the live chat continuation API).
type MockTubeServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockTubeServer creates a new mock server. Handlers are keyed by
// URL path; unknown paths get 404.
func NewMockTubeServer(t *testing.T) *MockTubeServer {
	t.Helper()
	m := &MockTubeServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if handler, ok := m.Handlers[key]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockWatchPage serves a minimal live watch page at path carrying the
// given live id, API key, client version, and continuation token.
func (m *MockTubeServer) MockWatchPage(path, liveID, apiKey, clientVersion, continuation string) {
	m.Handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, WatchPageHTML(liveID, apiKey, clientVersion, continuation))
	}
}

// MockChatResponse serves a continuation response built from raw
// actions JSON and the next continuation token.
func (m *MockTubeServer) MockChatResponse(nextToken string, actionsJSON ...string) {
	m.Handlers["/youtubei/v1/live_chat/get_live_chat"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, ChatResponseJSON(nextToken, actionsJSON...))
	}
}

// WatchPageHTML builds a minimal watch page the bootstrap extractor
// accepts.
func WatchPageHTML(liveID, apiKey, clientVersion, continuation string) string {
	return fmt.Sprintf(`<html><head>
<link rel="canonical" href="https://www.youtube.com/watch?v=%s">
</head><body>
<script>
var cfg = {"INNERTUBE_API_KEY":"%s","INNERTUBE_CONTEXT_CLIENT_VERSION":"x","clientVersion":"%s"};
var ytInitialData = {"continuation":"%s"};
</script>
</body></html>`, liveID, apiKey, clientVersion, continuation)
}

// ChatResponseJSON builds a continuation response body. An empty
// nextToken omits the continuation block, signaling end of stream.
func ChatResponseJSON(nextToken string, actionsJSON ...string) string {
	actions := "[" + joinJSON(actionsJSON) + "]"
	cont := ""
	if nextToken != "" {
		cont = fmt.Sprintf(`"continuations":[{"invalidationContinuationData":{"continuation":"%s"}}],`, nextToken)
	}
	return fmt.Sprintf(`{"continuationContents":{"liveChatContinuation":{%s"actions":%s}}}`, cont, actions)
}

// TextActionJSON builds an addChatItemAction carrying one plain text
// message.
func TextActionJSON(id, author, text string) string {
	return fmt.Sprintf(`{"addChatItemAction":{"item":{"liveChatTextMessageRenderer":{
		"id":"%s",
		"authorName":{"simpleText":"%s"},
		"authorExternalChannelId":"UCmock",
		"message":{"runs":[{"text":"%s"}]},
		"timestampUsec":"1700000000000000"
	}}}}`, id, author, text)
}

func joinJSON(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}
