package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/TD21forever/buling/internal/analyzer"
	"github.com/TD21forever/buling/internal/chat"
	"github.com/TD21forever/buling/internal/config"
	"github.com/TD21forever/buling/internal/db"
	"github.com/TD21forever/buling/internal/upstream"
)

// fakeUpstream serves canned completions and streams.
type fakeUpstream struct {
	reply     string
	stream    string
	err       error
	lastTurns []chat.Turn
}

func (f *fakeUpstream) Complete(_ context.Context, turns []chat.Turn, _ string) (*upstream.Response, error) {
	f.lastTurns = turns
	if f.err != nil {
		return nil, f.err
	}
	resp := &upstream.Response{}
	resp.Choices = []upstream.Choice{{Message: upstream.Message{Role: "assistant", Content: f.reply}}}
	return resp, nil
}

func (f *fakeUpstream) StreamComplete(_ context.Context, turns []chat.Turn, _ string) (io.ReadCloser, error) {
	f.lastTurns = turns
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.stream)), nil
}

func testServer(t *testing.T, api *fakeUpstream) *httptest.Server {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	an := analyzer.New(api, "")

	srv := NewServer(database, cfg, api, an, "127.0.0.1", 0)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestInspirationLifecycle(t *testing.T) {
	ts := testServer(t, &fakeUpstream{})

	// Create
	resp := postJSON(t, ts.URL+"/api/inspirations", map[string]any{
		"title":      "周末木工",
		"content":    "做一个小书架",
		"categories": []string{"creation"},
		"tags":       []string{"木工"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var created struct {
		Inspiration struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"inspiration"`
	}
	decodeJSON(t, resp, &created)
	if created.Inspiration.ID == "" {
		t.Fatal("created inspiration has no ID")
	}

	// List
	resp, err := http.Get(ts.URL + "/api/inspirations?category=creation")
	if err != nil {
		t.Fatalf("GET list failed: %v", err)
	}
	var listed struct {
		Inspirations []json.RawMessage `json:"inspirations"`
	}
	decodeJSON(t, resp, &listed)
	if len(listed.Inspirations) != 1 {
		t.Errorf("listed %d inspirations, want 1", len(listed.Inspirations))
	}

	// Update
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/inspirations/"+created.Inspiration.ID,
		strings.NewReader(`{"title":"新标题"}`))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT failed: %v", err)
	}
	var updated struct {
		Inspiration struct {
			Title string `json:"title"`
		} `json:"inspiration"`
	}
	decodeJSON(t, resp, &updated)
	if updated.Inspiration.Title != "新标题" {
		t.Errorf("title = %q, want 新标题", updated.Inspiration.Title)
	}

	// Delete
	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/inspirations/"+created.Inspiration.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete status = %d, want 200", resp.StatusCode)
	}

	// Gone
	resp, err = http.Get(ts.URL + "/api/inspirations/" + created.Inspiration.ID)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", resp.StatusCode)
	}
	var errBody struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeJSON(t, resp, &errBody)
	if errBody.Error.Code != "NOT_FOUND" {
		t.Errorf("error code = %q, want NOT_FOUND", errBody.Error.Code)
	}
}

func TestBatchTagsEndpoint(t *testing.T) {
	ts := testServer(t, &fakeUpstream{})

	resp := postJSON(t, ts.URL+"/api/inspirations", map[string]any{
		"title": "t", "content": "c",
	})
	var created struct {
		Inspiration struct {
			ID string `json:"id"`
		} `json:"inspiration"`
	}
	decodeJSON(t, resp, &created)

	resp = postJSON(t, ts.URL+"/api/inspirations/tags", map[string]any{
		"action":         "add",
		"inspirationIds": []string{created.Inspiration.ID},
		"tags":           []string{"go"},
	})
	var batch struct {
		Succeeded int `json:"succeeded"`
	}
	decodeJSON(t, resp, &batch)
	if batch.Succeeded != 1 {
		t.Errorf("succeeded = %d, want 1", batch.Succeeded)
	}

	resp, err := http.Get(ts.URL + "/api/inspirations/tags")
	if err != nil {
		t.Fatalf("GET tags failed: %v", err)
	}
	var counts struct {
		Tags []struct {
			Tag   string `json:"tag"`
			Count int    `json:"count"`
		} `json:"tags"`
	}
	decodeJSON(t, resp, &counts)
	if len(counts.Tags) != 1 || counts.Tags[0].Tag != "go" {
		t.Errorf("tags = %+v, want [go/1]", counts.Tags)
	}
}

func TestInspirationHTML(t *testing.T) {
	ts := testServer(t, &fakeUpstream{})

	resp := postJSON(t, ts.URL+"/api/inspirations", map[string]any{
		"title": "t", "content": "# 标题\n\n正文",
	})
	var created struct {
		Inspiration struct {
			ID string `json:"id"`
		} `json:"inspiration"`
	}
	decodeJSON(t, resp, &created)

	resp, err := http.Get(ts.URL + "/api/inspirations/" + created.Inspiration.ID + "/html")
	if err != nil {
		t.Fatalf("GET html failed: %v", err)
	}
	defer resp.Body.Close()
	html, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(html), "<h1") {
		t.Errorf("rendered html missing heading:\n%s", html)
	}
}

func TestAnalyzeEndpoint_FallsBackOffline(t *testing.T) {
	ts := testServer(t, &fakeUpstream{err: fmt.Errorf("no network")})

	resp := postJSON(t, ts.URL+"/api/inspiration/analyze", map[string]any{
		"content": "短想法。后面还有更多内容",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 even when upstream is down", resp.StatusCode)
	}
	var out struct {
		Analysis struct {
			Title      string   `json:"title"`
			Categories []string `json:"categories"`
			Tags       []string `json:"tags"`
		} `json:"analysis"`
	}
	decodeJSON(t, resp, &out)
	if out.Analysis.Title == "" {
		t.Error("fallback analysis has empty title")
	}
	if len(out.Analysis.Categories) != 1 || out.Analysis.Categories[0] != "creation" {
		t.Errorf("categories = %v, want [creation]", out.Analysis.Categories)
	}
}

func TestChat_PersistsWhenSessionGiven(t *testing.T) {
	api := &fakeUpstream{reply: "你好"}
	ts := testServer(t, api)

	resp := postJSON(t, ts.URL+"/api/chat-sessions", map[string]any{})
	var created struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	decodeJSON(t, resp, &created)

	resp = postJSON(t, ts.URL+"/api/chat", map[string]any{
		"messages":  []map[string]string{{"role": "user", "content": "在吗"}},
		"sessionId": created.Session.ID,
	})
	var chatOut struct {
		Message string `json:"message"`
	}
	decodeJSON(t, resp, &chatOut)
	if chatOut.Message != "你好" {
		t.Errorf("message = %q, want 你好", chatOut.Message)
	}

	// The system prompt is prepended upstream but never persisted.
	if len(api.lastTurns) != 2 || api.lastTurns[0].Role != chat.RoleSystem {
		t.Fatalf("upstream turns = %+v, want system prompt first", api.lastTurns)
	}

	resp, err := http.Get(ts.URL + "/api/chat-sessions/" + created.Session.ID)
	if err != nil {
		t.Fatalf("GET session failed: %v", err)
	}
	var got struct {
		Session struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		} `json:"session"`
	}
	decodeJSON(t, resp, &got)
	if len(got.Session.Messages) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(got.Session.Messages))
	}
	if got.Session.Messages[0].Role != "user" || got.Session.Messages[1].Content != "你好" {
		t.Errorf("messages = %+v", got.Session.Messages)
	}
}

func TestChat_AutoAnalyzeAtThreshold(t *testing.T) {
	// Each chat turn persists two messages; the default threshold of six is
	// reached on the third turn, which distills the session once.
	api := &fakeUpstream{reply: `{"title":"自动提炼","summary":"总结","categories":["work"],"tags":["对话"]}`}
	ts := testServer(t, api)

	resp := postJSON(t, ts.URL+"/api/chat-sessions", map[string]any{})
	var created struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	decodeJSON(t, resp, &created)

	for i := 0; i < 4; i++ {
		resp = postJSON(t, ts.URL+"/api/chat", map[string]any{
			"messages":  []map[string]string{{"role": "user", "content": "继续聊"}},
			"sessionId": created.Session.ID,
		})
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/api/chat-sessions/" + created.Session.ID)
	if err != nil {
		t.Fatalf("GET session failed: %v", err)
	}
	var got struct {
		Session struct {
			InspirationID string `json:"inspiration_id"`
		} `json:"session"`
	}
	decodeJSON(t, resp, &got)
	if got.Session.InspirationID == "" {
		t.Fatal("session not linked after reaching the analyze threshold")
	}

	// The fourth turn is past the threshold but must not distill again.
	resp, err = http.Get(ts.URL + "/api/inspirations")
	if err != nil {
		t.Fatalf("GET inspirations failed: %v", err)
	}
	var listed struct {
		Inspirations []struct {
			Title string `json:"title"`
		} `json:"inspirations"`
	}
	decodeJSON(t, resp, &listed)
	if len(listed.Inspirations) != 1 {
		t.Fatalf("distilled %d inspirations, want 1", len(listed.Inspirations))
	}
	if listed.Inspirations[0].Title != "自动提炼" {
		t.Errorf("title = %q, want 自动提炼", listed.Inspirations[0].Title)
	}
}

func TestChatStream_RelaysAndPersists(t *testing.T) {
	upstreamSSE := "data: {\"choices\":[{\"delta\":{\"content\":\"你\"}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"好\"}}]}\n" +
		"data: [DONE]\n"
	api := &fakeUpstream{stream: upstreamSSE}
	ts := testServer(t, api)

	resp := postJSON(t, ts.URL+"/api/chat-sessions", map[string]any{})
	var created struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	decodeJSON(t, resp, &created)

	resp = postJSON(t, ts.URL+"/api/chat/stream", map[string]any{
		"messages":  []map[string]string{{"role": "user", "content": "在吗"}},
		"sessionId": created.Session.ID,
	})
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	want := "data: {\"content\":\"你\"}\n\ndata: {\"content\":\"好\"}\n\n"
	if string(body) != want {
		t.Errorf("stream body = %q, want %q", body, want)
	}

	resp, err := http.Get(ts.URL + "/api/chat-sessions/" + created.Session.ID)
	if err != nil {
		t.Fatalf("GET session failed: %v", err)
	}
	var got struct {
		Session struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		} `json:"session"`
	}
	decodeJSON(t, resp, &got)
	if len(got.Session.Messages) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(got.Session.Messages))
	}
	if got.Session.Messages[1].Content != "你好" {
		t.Errorf("assistant content = %q, want 你好", got.Session.Messages[1].Content)
	}
}

func TestChat_InvalidMessages(t *testing.T) {
	ts := testServer(t, &fakeUpstream{reply: "x"})

	resp := postJSON(t, ts.URL+"/api/chat", map[string]any{"messages": []any{}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty messages status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/chat", map[string]any{
		"messages": []map[string]string{{"role": "robot", "content": "x"}},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad role status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestChat_UpstreamFailure(t *testing.T) {
	ts := testServer(t, &fakeUpstream{err: fmt.Errorf("connection refused")})

	resp := postJSON(t, ts.URL+"/api/chat", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "在吗"}},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError && resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 5xx", resp.StatusCode)
	}
}

func TestSaveSessionEndpoint(t *testing.T) {
	api := &fakeUpstream{reply: `{"title":"想法","summary":"总结","categories":["work"],"tags":["计划"]}`}
	ts := testServer(t, api)

	resp := postJSON(t, ts.URL+"/api/chat-sessions", map[string]any{"title": "讨论"})
	var created struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	decodeJSON(t, resp, &created)

	resp = postJSON(t, ts.URL+"/api/chat-sessions/"+created.Session.ID+"/save", map[string]any{
		"messages": []map[string]string{
			{"role": "user", "content": "我有个想法"},
			{"role": "assistant", "content": "说说看"},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save status = %d, want 200", resp.StatusCode)
	}
	var out struct {
		Session struct {
			InspirationID string `json:"inspiration_id"`
		} `json:"session"`
		Inspiration struct {
			Title string `json:"title"`
		} `json:"inspiration"`
	}
	decodeJSON(t, resp, &out)
	if out.Inspiration.Title != "想法" {
		t.Errorf("inspiration title = %q, want 想法", out.Inspiration.Title)
	}
	if out.Session.InspirationID == "" {
		t.Error("session not linked to inspiration")
	}
}

func TestSecurityHeaders(t *testing.T) {
	ts := testServer(t, &fakeUpstream{})

	resp, err := http.Get(ts.URL + "/api/inspirations")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}
