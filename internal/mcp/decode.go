package mcp

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/TD21forever/buling/internal/errors"
)

// decode maps a tool call's arguments onto a typed input struct. Mistyped
// fields come back as INVALID_REQUEST so callers see the standard error
// payload instead of a raw decode failure.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var input T
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return input, errors.NewInvalidRequest("invalid arguments: " + err.Error())
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return input, errors.NewInvalidRequest("invalid arguments: " + err.Error())
	}
	return input, nil
}
