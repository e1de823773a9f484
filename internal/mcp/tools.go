package mcp

import "github.com/mark3labs/mcp-go/mcp"

var saveToolDef = mcp.NewTool("inspiration_save",
	mcp.WithDescription("Save an inspiration with title, content, and optional summary, categories, and tags."),
	mcp.WithString("title", mcp.Required(), mcp.Description("Short title, truncated to 50 characters.")),
	mcp.WithString("content", mcp.Required(), mcp.Description("Full inspiration text.")),
	mcp.WithString("summary", mcp.Description("One-paragraph summary, truncated to 200 characters.")),
	mcp.WithArray("categories", mcp.Description("Categories from: work, life, creation, learning. Unknown values are dropped; empty defaults to creation.")),
	mcp.WithArray("tags", mcp.Description("Up to 5 tags.")),
)

var analyzeToolDef = mcp.NewTool("inspiration_analyze",
	mcp.WithDescription("Analyze free-form content into a structured inspiration: title, summary, categories, tags. Always returns a result; falls back to content-derived heuristics when the model is unavailable."),
	mcp.WithString("content", mcp.Required(), mcp.Description("Content to analyze.")),
)

var listToolDef = mcp.NewTool("inspiration_list",
	mcp.WithDescription("List inspirations newest-first, optionally filtered by category or tag."),
	mcp.WithString("category", mcp.Description("Filter by category: work, life, creation, learning.")),
	mcp.WithString("tag", mcp.Description("Filter by exact tag.")),
	mcp.WithNumber("limit", mcp.Description("Page size, default 20, max 100.")),
	mcp.WithNumber("offset", mcp.Description("Pagination offset.")),
)

var searchToolDef = mcp.NewTool("inspiration_search",
	mcp.WithDescription("Search inspirations by keyword across title, content, and summary."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Search term.")),
	mcp.WithNumber("limit", mcp.Description("Page size, default 20, max 100.")),
	mcp.WithNumber("offset", mcp.Description("Pagination offset.")),
)

var updateToolDef = mcp.NewTool("inspiration_update",
	mcp.WithDescription("Update fields of an existing inspiration. Omitted fields are unchanged."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Inspiration ID.")),
	mcp.WithString("title", mcp.Description("New title.")),
	mcp.WithString("content", mcp.Description("New content.")),
	mcp.WithString("summary", mcp.Description("New summary.")),
	mcp.WithArray("categories", mcp.Description("Replacement categories.")),
	mcp.WithArray("tags", mcp.Description("Replacement tags, up to 5.")),
)

var deleteToolDef = mcp.NewTool("inspiration_delete",
	mcp.WithDescription("Delete one or more inspirations by ID."),
	mcp.WithArray("ids", mcp.Required(), mcp.Description("Inspiration IDs to delete.")),
)

var tagsToolDef = mcp.NewTool("inspiration_tags",
	mcp.WithDescription("List all tags in use with their frequencies, most frequent first."),
)

var categoriesToolDef = mcp.NewTool("inspiration_categories",
	mcp.WithDescription("List the four categories with usage counts and display labels."),
)
