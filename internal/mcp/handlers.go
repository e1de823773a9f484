package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/TD21forever/buling/internal/analyzer"
	"github.com/TD21forever/buling/internal/config"
	"github.com/TD21forever/buling/internal/errors"
	"github.com/TD21forever/buling/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	analyzer *analyzer.Analyzer
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, an *analyzer.Analyzer) *Handlers {
	return &Handlers{db: db, cfg: cfg, analyzer: an}
}

// Request types for each tool

// SaveRequest represents the arguments for inspiration_save.
type SaveRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Summary    string   `json:"summary,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// AnalyzeRequest represents the arguments for inspiration_analyze.
type AnalyzeRequest struct {
	Content string `json:"content"`
}

// ListRequest represents the arguments for inspiration_list.
type ListRequest struct {
	Category string `json:"category,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// SearchRequest represents the arguments for inspiration_search.
type SearchRequest struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// UpdateRequest represents the arguments for inspiration_update.
type UpdateRequest struct {
	ID         string    `json:"id"`
	Title      *string   `json:"title,omitempty"`
	Content    *string   `json:"content,omitempty"`
	Summary    *string   `json:"summary,omitempty"`
	Categories *[]string `json:"categories,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
}

// DeleteRequest represents the arguments for inspiration_delete.
type DeleteRequest struct {
	IDs []string `json:"ids"`
}

// Handler implementations

// HandleSave handles the inspiration_save tool call.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.SaveInspiration(ctx, h.db, ops.SaveInspirationInput{
		Title:      input.Title,
		Content:    input.Content,
		Summary:    input.Summary,
		Categories: input.Categories,
		Tags:       input.Tags,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleAnalyze handles the inspiration_analyze tool call.
func (h *Handlers) HandleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AnalyzeRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.Content == "" {
		return errorResult(errors.NewInvalidRequest("content is required")), nil
	}

	return successResult(h.analyzer.Analyze(ctx, input.Content))
}

// HandleList handles the inspiration_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ListInspirations(ctx, h.db, ops.ListInput{
		Category: input.Category,
		Tag:      input.Tag,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSearch handles the inspiration_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.Query == "" {
		return errorResult(errors.NewInvalidRequest("query is required")), nil
	}

	result, err := ops.ListInspirations(ctx, h.db, ops.ListInput{
		Search: input.Query,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleUpdate handles the inspiration_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.UpdateInspiration(ctx, h.db, ops.UpdateInspirationInput{
		ID:         input.ID,
		Title:      input.Title,
		Content:    input.Content,
		Summary:    input.Summary,
		Categories: input.Categories,
		Tags:       input.Tags,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the inspiration_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	count, err := ops.DeleteInspirations(ctx, h.db, input.IDs)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"deleted": count})
}

// HandleTags handles the inspiration_tags tool call.
func (h *Handlers) HandleTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	counts, err := ops.TagCounts(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"tags": counts})
}

// HandleCategories handles the inspiration_categories tool call.
func (h *Handlers) HandleCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	counts, err := ops.CategoryCounts(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"categories": counts})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if bErr, ok := err.(*errors.BulingError); ok {
		errorObj := map[string]any{
			"code":    bErr.Code,
			"message": bErr.Message,
			"status":  bErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if bErr.Code != errors.ErrInternal && bErr.Details != nil {
			errorObj["details"] = bErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
