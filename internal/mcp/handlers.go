package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/lifeline/internal/errors"
	"github.com/hpungsan/lifeline/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	env *ops.Env
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(env *ops.Env) *Handlers {
	return &Handlers{env: env}
}

// Request types for each tool

// SaveRequest represents the arguments for save.
type SaveRequest struct {
	Cwd   string `json:"cwd,omitempty"`
	Focus string `json:"focus,omitempty"`
}

// CwdRequest represents the arguments for tools that only take a project directory.
type CwdRequest struct {
	Cwd string `json:"cwd,omitempty"`
}

// ExportRequest represents the arguments for export.
type ExportRequest struct {
	Cwd    string `json:"cwd,omitempty"`
	Format string `json:"format,omitempty"`
	Out    string `json:"out,omitempty"`
}

// ListRequest represents the arguments for list.
type ListRequest struct {
	Cwd    string `json:"cwd,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// PruneRequest represents the arguments for prune.
type PruneRequest struct {
	Cwd  string `json:"cwd,omitempty"`
	Keep int    `json:"keep"`
}

// Handler implementations

// HandleSave handles the save tool call.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Save(ctx, h.env, ops.SaveInput{
		Cwd:   input.Cwd,
		Focus: input.Focus,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleShow handles the show tool call.
func (h *Handlers) HandleShow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CwdRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Show(ops.ShowInput{Cwd: input.Cwd})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	format, err := ops.ParseExportFormat(input.Format)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Export(ops.ExportInput{
		Cwd:    input.Cwd,
		Format: format,
		Out:    input.Out,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDoctor handles the doctor tool call.
func (h *Handlers) HandleDoctor(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CwdRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Doctor(ctx, h.env, ops.DoctorInput{Cwd: input.Cwd})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.env, ops.ListInput{
		Cwd:    input.Cwd,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePrune handles the prune tool call.
func (h *Handlers) HandlePrune(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PruneRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Prune(ctx, h.env, ops.PruneInput{
		Cwd:  input.Cwd,
		Keep: input.Keep,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if lErr, ok := errors.As(err); ok {
		errorObj := map[string]any{
			"code":    lErr.Code,
			"message": lErr.Message,
			"status":  lErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like SQL errors
		if lErr.Code != errors.ErrInternal && lErr.Details != nil {
			errorObj["details"] = lErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
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
