package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/threads/internal/config"
	"github.com/hpungsan/threads/internal/errors"
	"github.com/hpungsan/threads/internal/ops"
	"github.com/hpungsan/threads/internal/query"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db     *sql.DB
	cfg    *config.Config
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{db: db, cfg: cfg, logger: logger}
}

// Request types for each tool

// CreateRequest represents the arguments for thread_create.
type CreateRequest struct {
	Kind   string   `json:"kind,omitempty"`
	Title  string   `json:"title"`
	Body   string   `json:"body,omitempty"`
	Labels []string `json:"labels,omitempty"`
	Author *string  `json:"author,omitempty"`
}

// FetchRequest represents the arguments for thread_fetch.
type FetchRequest struct {
	ID             string `json:"id"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
	IncludeBody    *bool  `json:"include_body,omitempty"`
}

// UpdateRequest represents the arguments for thread_update.
type UpdateRequest struct {
	ID     string    `json:"id"`
	Title  *string   `json:"title,omitempty"`
	Body   *string   `json:"body,omitempty"`
	Labels *[]string `json:"labels,omitempty"`
	Author *string   `json:"author,omitempty"`
}

// SetStatusRequest represents the arguments for thread_set_status.
type SetStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// DeleteRequest represents the arguments for thread_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// ListRequest represents the arguments for thread_list.
type ListRequest struct {
	Query          *string `json:"query,omitempty"`
	Kind           string  `json:"kind,omitempty"`
	Limit          int     `json:"limit,omitempty"`
	Offset         int     `json:"offset,omitempty"`
	IncludeDeleted bool    `json:"include_deleted,omitempty"`
}

// BulkStatusRequest represents the arguments for thread_bulk_status.
type BulkStatusRequest struct {
	Query  string `json:"query"`
	Kind   string `json:"kind,omitempty"`
	Status string `json:"status"`
}

// ExportRequest represents the arguments for thread_export.
type ExportRequest struct {
	Path           string `json:"path,omitempty"`
	Query          string `json:"query,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// ImportRequest represents the arguments for thread_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// PurgeRequest represents the arguments for thread_purge.
type PurgeRequest struct {
	OlderThanDays *int `json:"older_than_days,omitempty"`
}

// ParseRequest represents the arguments for query_parse.
type ParseRequest struct {
	Query string `json:"query"`
}

// WithValuesRequest represents the arguments for query_with_values.
type WithValuesRequest struct {
	Query   string        `json:"query"`
	Updates query.Updates `json:"updates"`
}

// MatchesRequest represents the arguments for query_matches.
type MatchesRequest struct {
	Query  string          `json:"query"`
	Values query.Predicate `json:"values"`
}

// Handler implementations

// HandleCreate handles the thread_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Create(ctx, h.db, h.cfg, ops.CreateInput{
		Kind:   input.Kind,
		Title:  input.Title,
		Body:   input.Body,
		Labels: input.Labels,
		Author: input.Author,
	})
	if err != nil {
		return h.errorResult("thread_create", err), nil
	}

	return successResult(result)
}

// HandleFetch handles the thread_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Fetch(ctx, h.db, ops.FetchInput{
		ID:             input.ID,
		IncludeDeleted: input.IncludeDeleted,
		IncludeBody:    input.IncludeBody,
	})
	if err != nil {
		return h.errorResult("thread_fetch", err), nil
	}

	return successResult(result)
}

// HandleUpdate handles the thread_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Update(ctx, h.db, h.cfg, ops.UpdateInput{
		ID:     input.ID,
		Title:  input.Title,
		Body:   input.Body,
		Labels: input.Labels,
		Author: input.Author,
	})
	if err != nil {
		return h.errorResult("thread_update", err), nil
	}

	return successResult(result)
}

// HandleSetStatus handles the thread_set_status tool call.
func (h *Handlers) HandleSetStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetStatusRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SetStatus(ctx, h.db, ops.SetStatusInput{
		ID:     input.ID,
		Status: input.Status,
	})
	if err != nil {
		return h.errorResult("thread_set_status", err), nil
	}

	return successResult(result)
}

// HandleDelete handles the thread_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(ctx, h.db, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return h.errorResult("thread_delete", err), nil
	}

	return successResult(result)
}

// HandleList handles the thread_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.db, h.cfg, ops.ListInput{
		Query:          input.Query,
		Kind:           input.Kind,
		Limit:          input.Limit,
		Offset:         input.Offset,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return h.errorResult("thread_list", err), nil
	}

	return successResult(result)
}

// HandleBulkStatus handles the thread_bulk_status tool call.
func (h *Handlers) HandleBulkStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BulkStatusRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.BulkSetStatus(ctx, h.db, ops.BulkSetStatusInput{
		Query:  input.Query,
		Kind:   input.Kind,
		Status: input.Status,
	})
	if err != nil {
		return h.errorResult("thread_bulk_status", err), nil
	}

	return successResult(result)
}

// HandleExport handles the thread_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{
		Path:           input.Path,
		Query:          input.Query,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return h.errorResult("thread_export", err), nil
	}

	return successResult(result)
}

// HandleImport handles the thread_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.db, h.cfg, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return h.errorResult("thread_import", err), nil
	}

	return successResult(result)
}

// HandlePurge handles the thread_purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PurgeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Purge(ctx, h.db, ops.PurgeInput{OlderThanDays: input.OlderThanDays})
	if err != nil {
		return h.errorResult("thread_purge", err), nil
	}

	return successResult(result)
}

// HandleParse handles the query_parse tool call.
func (h *Handlers) HandleParse(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ParseRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return successResult(ops.ParseQuery(ops.ParseQueryInput{Query: input.Query}))
}

// HandleWithValues handles the query_with_values tool call.
func (h *Handlers) HandleWithValues(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[WithValuesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return successResult(ops.QueryWithValues(ops.QueryWithValuesInput{
		Query:   input.Query,
		Updates: input.Updates,
	}))
}

// HandleMatches handles the query_matches tool call.
func (h *Handlers) HandleMatches(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MatchesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if len(input.Values) == 0 {
		return errorResult(errors.NewInvalidRequest("values must name at least one field")), nil
	}
	return successResult(ops.QueryMatches(ops.QueryMatchesInput{
		Query:  input.Query,
		Values: input.Values,
	}))
}

// Result helpers

// errorResult logs internal failures before converting err to a tool result.
func (h *Handlers) errorResult(tool string, err error) *mcp.CallToolResult {
	if tErr, ok := errors.As(err); !ok || tErr.Code == errors.ErrInternal {
		h.logger.Error("tool failed", zap.String("tool", tool), zap.Error(err))
	}
	return errorResult(err)
}

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if tErr, ok := errors.As(err); ok {
		message := tErr.Message
		// Keep context added by wrapping, e.g. "line 3: ..."
		if err.Error() != tErr.Error() {
			message = err.Error()
		}
		errorObj := map[string]any{
			"code":    tErr.Code,
			"message": message,
			"status":  tErr.Status,
		}
		if tErr.Code != errors.ErrInternal && tErr.Details != nil {
			errorObj["details"] = tErr.Details
		}
		if tErr.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
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
