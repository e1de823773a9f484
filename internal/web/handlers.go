package web

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/TD21forever/buling/internal/analyzer"
	"github.com/TD21forever/buling/internal/chat"
	"github.com/TD21forever/buling/internal/config"
	"github.com/TD21forever/buling/internal/errors"
	"github.com/TD21forever/buling/internal/ops"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	api      Upstream
	analyzer *analyzer.Analyzer
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.NewInvalidRequest("invalid JSON body: " + err.Error())
	}
	return nil
}

// queryInt parses an integer query parameter, returning 0 when absent.
func queryInt(r *http.Request, key string) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// HandleListInspirations serves GET /api/inspirations.
func (h *Handlers) HandleListInspirations(w http.ResponseWriter, r *http.Request) {
	out, err := ops.ListInspirations(r.Context(), h.db, ops.ListInput{
		Category: r.URL.Query().Get("category"),
		Tag:      r.URL.Query().Get("tag"),
		Search:   r.URL.Query().Get("search"),
		Limit:    queryInt(r, "limit"),
		Offset:   queryInt(r, "offset"),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleSaveInspiration serves POST /api/inspirations.
func (h *Handlers) HandleSaveInspiration(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title      string   `json:"title"`
		Content    string   `json:"content"`
		Summary    string   `json:"summary"`
		Categories []string `json:"categories"`
		Tags       []string `json:"tags"`
	}
	if err := decodeBody(r, &body); err != nil {
		renderError(w, err)
		return
	}

	insp, err := ops.SaveInspiration(r.Context(), h.db, ops.SaveInspirationInput{
		Title:      body.Title,
		Content:    body.Content,
		Summary:    body.Summary,
		Categories: body.Categories,
		Tags:       body.Tags,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, map[string]any{"inspiration": insp})
}

// HandleGetInspiration serves GET /api/inspirations/{id}.
func (h *Handlers) HandleGetInspiration(w http.ResponseWriter, r *http.Request) {
	insp, err := ops.GetInspiration(r.Context(), h.db, r.PathValue("id"))
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"inspiration": insp})
}

// HandleUpdateInspiration serves PUT /api/inspirations/{id}.
func (h *Handlers) HandleUpdateInspiration(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title      *string   `json:"title"`
		Content    *string   `json:"content"`
		Summary    *string   `json:"summary"`
		Categories *[]string `json:"categories"`
		Tags       *[]string `json:"tags"`
	}
	if err := decodeBody(r, &body); err != nil {
		renderError(w, err)
		return
	}

	insp, err := ops.UpdateInspiration(r.Context(), h.db, ops.UpdateInspirationInput{
		ID:         r.PathValue("id"),
		Title:      body.Title,
		Content:    body.Content,
		Summary:    body.Summary,
		Categories: body.Categories,
		Tags:       body.Tags,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"inspiration": insp})
}

// HandleDeleteInspiration serves DELETE /api/inspirations/{id}.
func (h *Handlers) HandleDeleteInspiration(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	count, err := ops.DeleteInspirations(r.Context(), h.db, []string{id})
	if err != nil {
		renderError(w, err)
		return
	}
	if count == 0 {
		renderError(w, errors.NewNotFound(id))
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"deleted": count})
}

// HandleDeleteInspirations serves DELETE /api/inspirations with an ids body.
func (h *Handlers) HandleDeleteInspirations(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := decodeBody(r, &body); err != nil {
		renderError(w, err)
		return
	}

	count, err := ops.DeleteInspirations(r.Context(), h.db, body.IDs)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"deleted": count})
}

// batchBody is the wire shape shared by the batch endpoints.
type batchBody struct {
	Action         string   `json:"action"`
	InspirationIDs []string `json:"inspirationIds"`
	Categories     []string `json:"categories"`
	Tags           []string `json:"tags"`
}

// HandleBatch serves POST /api/inspirations/batch.
func (h *Handlers) HandleBatch(w http.ResponseWriter, r *http.Request) {
	var body batchBody
	if err := decodeBody(r, &body); err != nil {
		renderError(w, err)
		return
	}

	out, err := ops.BatchUpdate(r.Context(), h.db, ops.BatchInput{
		Action:     ops.BatchAction(body.Action),
		IDs:        body.InspirationIDs,
		Categories: body.Categories,
		Tags:       body.Tags,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleBatchTags serves POST /api/inspirations/tags: bulk tag updates with
// add/remove/replace actions.
func (h *Handlers) HandleBatchTags(w http.ResponseWriter, r *http.Request) {
	h.batchShorthand(w, r, map[string]ops.BatchAction{
		"add":     ops.BatchAddTags,
		"remove":  ops.BatchRemoveTags,
		"replace": ops.BatchReplaceTags,
	})
}

// HandleBatchCategories serves POST /api/inspirations/categories: bulk
// category updates with add/remove/replace actions.
func (h *Handlers) HandleBatchCategories(w http.ResponseWriter, r *http.Request) {
	h.batchShorthand(w, r, map[string]ops.BatchAction{
		"add":     ops.BatchAddCategories,
		"remove":  ops.BatchRemoveCategories,
		"replace": ops.BatchReplaceCategories,
	})
}

func (h *Handlers) batchShorthand(w http.ResponseWriter, r *http.Request, actions map[string]ops.BatchAction) {
	var body batchBody
	if err := decodeBody(r, &body); err != nil {
		renderError(w, err)
		return
	}

	action, ok := actions[body.Action]
	if !ok {
		renderError(w, errors.NewInvalidRequest("unknown action: "+body.Action))
		return
	}

	out, err := ops.BatchUpdate(r.Context(), h.db, ops.BatchInput{
		Action:     action,
		IDs:        body.InspirationIDs,
		Categories: body.Categories,
		Tags:       body.Tags,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleTagCounts serves GET /api/inspirations/tags.
func (h *Handlers) HandleTagCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := ops.TagCounts(r.Context(), h.db)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"tags": counts})
}

// HandleCategoryCounts serves GET /api/inspirations/categories.
func (h *Handlers) HandleCategoryCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := ops.CategoryCounts(r.Context(), h.db)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"categories": counts})
}

// HandleInspirationHTML serves GET /api/inspirations/{id}/html: the record's
// content rendered as HTML for preview and export surfaces.
func (h *Handlers) HandleInspirationHTML(w http.ResponseWriter, r *http.Request) {
	insp, err := ops.GetInspiration(r.Context(), h.db, r.PathValue("id"))
	if err != nil {
		renderError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(renderMarkdown(insp.Content)))
}

// HandleListSessions serves GET /api/chat-sessions.
func (h *Handlers) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := ops.ListSessions(r.Context(), h.db)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// HandleCreateSession serves POST /api/chat-sessions.
func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := decodeBody(r, &body); err != nil {
		renderError(w, err)
		return
	}

	session, err := ops.CreateSession(r.Context(), h.db, body.Title)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, map[string]any{"session": session})
}

// HandleGetSession serves GET /api/chat-sessions/{id}.
func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := ops.GetSession(r.Context(), h.db, r.PathValue("id"))
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"session": session})
}

// HandleDeleteSession serves DELETE /api/chat-sessions/{id}.
func (h *Handlers) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := ops.DeleteSession(r.Context(), h.db, r.PathValue("id")); err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// HandleSaveSession serves POST /api/chat-sessions/{id}/save: the transcript
// is replaced wholesale and distilled into a linked inspiration.
func (h *Handlers) HandleSaveSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title    string      `json:"title"`
		Messages []chat.Turn `json:"messages"`
	}
	if err := decodeBody(r, &body); err != nil {
		renderError(w, err)
		return
	}

	out, err := ops.SaveSession(r.Context(), h.db, h.analyzer, ops.SaveSessionInput{
		SessionID: r.PathValue("id"),
		Title:     body.Title,
		Turns:     body.Messages,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}
