package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/TD21forever/buling/internal/errors"
)

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderError writes a structured error response.
func renderError(w http.ResponseWriter, err error) {
	var bErr *errors.BulingError
	if !stderrors.As(err, &bErr) {
		bErr = errors.NewInternal(err)
	}

	renderJSON(w, bErr.Status, map[string]any{
		"error": map[string]any{
			"code":    string(bErr.Code),
			"message": bErr.Message,
			"status":  bErr.Status,
			"details": bErr.Details,
		},
	})
}

// renderMarkdown converts markdown text to HTML using goldmark.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}
