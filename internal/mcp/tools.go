package mcp

import "github.com/mark3labs/mcp-go/mcp"

const queryDescription = "Threads query, e.g. `is:thread is:open label:perf`. " +
	"Terms are `field:value`, `-field:value` to negate, or free text matched against title and body."

var createToolDef = mcp.NewTool("thread_create",
	mcp.WithDescription("Create a thread, check or codemod. New items start open."),
	mcp.WithString("title", mcp.Required(), mcp.Description("Title, whitespace collapsed")),
	mcp.WithString("kind", mcp.Description("Kind of item"), mcp.Enum("thread", "check", "codemod")),
	mcp.WithString("body", mcp.Description("Markdown body")),
	mcp.WithArray("labels", mcp.Description("Labels, lowercased and de-duplicated"), mcp.WithStringItems()),
	mcp.WithString("author", mcp.Description("Author handle")),
)

var fetchToolDef = mcp.NewTool("thread_fetch",
	mcp.WithDescription("Fetch a thread by ID."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("Thread ID")),
	mcp.WithBoolean("include_deleted", mcp.Description("Return soft-deleted threads too")),
	mcp.WithBoolean("include_body", mcp.Description("Include the body (default true)")),
)

var updateToolDef = mcp.NewTool("thread_update",
	mcp.WithDescription("Update the title, body, labels or author of a thread. Omitted fields are left alone."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Thread ID")),
	mcp.WithString("title", mcp.Description("New title")),
	mcp.WithString("body", mcp.Description("New markdown body")),
	mcp.WithArray("labels", mcp.Description("Replacement labels"), mcp.WithStringItems()),
	mcp.WithString("author", mcp.Description("New author; empty string clears it")),
)

var setStatusToolDef = mcp.NewTool("thread_set_status",
	mcp.WithDescription("Set a thread's status."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Thread ID")),
	mcp.WithString("status", mcp.Required(), mcp.Enum("open", "closed", "ignored")),
)

var deleteToolDef = mcp.NewTool("thread_delete",
	mcp.WithDescription("Soft-delete a thread. Use thread_purge to remove it permanently."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("Thread ID")),
)

var listToolDef = mcp.NewTool("thread_list",
	mcp.WithDescription("List threads matching a query, newest first, with per-status counts "+
		"and the header links that switch the status."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("query", mcp.Description(queryDescription+" Omit for the open items of the kind; empty matches everything.")),
	mcp.WithString("kind", mcp.Description("Restrict rows to one kind"), mcp.Enum("thread", "check", "codemod")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Page offset")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted threads")),
)

var bulkStatusToolDef = mcp.NewTool("thread_bulk_status",
	mcp.WithDescription("Set the status of every thread matching a non-empty query, in one transaction."),
	mcp.WithString("query", mcp.Required(), mcp.Description(queryDescription)),
	mcp.WithString("status", mcp.Required(), mcp.Enum("open", "closed", "ignored")),
	mcp.WithString("kind", mcp.Description("Restrict rows to one kind"), mcp.Enum("thread", "check", "codemod")),
)

var exportToolDef = mcp.NewTool("thread_export",
	mcp.WithDescription("Export threads to a JSONL file."),
	mcp.WithString("path", mcp.Description("Output path (default ~/.threads/exports/<kind>-<timestamp>.jsonl)")),
	mcp.WithString("query", mcp.Description("Only export threads matching this query")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted threads")),
)

var importToolDef = mcp.NewTool("thread_import",
	mcp.WithDescription("Import threads from a JSONL export file."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Path to the export file")),
	mcp.WithString("mode", mcp.Description("Collision handling (default error)"), mcp.Enum("error", "replace", "skip")),
)

var purgeToolDef = mcp.NewTool("thread_purge",
	mcp.WithDescription("Permanently delete soft-deleted threads."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithNumber("older_than_days", mcp.Description("Only purge threads deleted more than N days ago")),
)

var parseToolDef = mcp.NewTool("query_parse",
	mcp.WithDescription("Split a query into terms and return its canonical form."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("query", mcp.Required(), mcp.Description(queryDescription)),
)

var withValuesToolDef = mcp.NewTool("query_with_values",
	mcp.WithDescription("Replace every term of the named fields with new values. "+
		"Replaced fields move to the end of the query, in update order."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("query", mcp.Description(queryDescription)),
	mcp.WithArray("updates", mcp.Required(),
		mcp.Description("Ordered field replacements; an empty values list removes the field"),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"field":  map[string]any{"type": "string"},
				"values": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []string{"field", "values"},
		}),
	),
)

var matchesToolDef = mcp.NewTool("query_matches",
	mcp.WithDescription("Report whether a query holds every given field value."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("query", mcp.Description(queryDescription)),
	mcp.WithObject("values", mcp.Required(),
		mcp.Description("Field to value, e.g. {\"is\": \"open\"}"),
		mcp.AdditionalProperties(map[string]any{"type": "string"}),
	),
)
