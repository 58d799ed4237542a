// Package mcp exposes the lifeline operations as tools over the Model Context Protocol.
// The server speaks stdio only; stdout carries protocol frames and nothing else.
package mcp

import (
	"context"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/lifeline/internal/ops"
)

// ServerName is the implementation name reported during initialization.
const ServerName = "agent-lifeline"

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var cwdOption = mcp.WithString("cwd",
	mcp.Description("Project directory (absolute path). Defaults to the server's working directory."),
)

var saveToolDef = mcp.NewTool("lifeline_save",
	mcp.WithDescription("Capture a context snapshot of the project (git state, open tasks, execution log, recent prompts) and save it to .agent-lifeline/."),
	cwdOption,
	mcp.WithString("focus", mcp.Description("Short note about what the next session should focus on.")),
)

var showToolDef = mcp.NewTool("lifeline_show",
	mcp.WithDescription("Return the project's latest saved snapshot."),
	cwdOption,
)

var exportToolDef = mcp.NewTool("lifeline_export",
	mcp.WithDescription("Render the latest snapshot as a handoff document for the next agent. Optionally write it to a file."),
	cwdOption,
	mcp.WithString("format", mcp.Description("Document format."), mcp.Enum("md", "html")),
	mcp.WithString("out", mcp.Description("Destination file; relative paths resolve against cwd. Extension must match the format.")),
)

var doctorToolDef = mcp.NewTool("lifeline_doctor",
	mcp.WithDescription("Check that git, the agent state directory, and the snapshot store are usable."),
	cwdOption,
)

var listToolDef = mcp.NewTool("lifeline_list",
	mcp.WithDescription("List saved snapshots of the project, newest first."),
	cwdOption,
	mcp.WithNumber("limit", mcp.Description("Maximum items to return (default 20, max 100).")),
	mcp.WithNumber("offset", mcp.Description("Items to skip.")),
)

var pruneToolDef = mcp.NewTool("lifeline_prune",
	mcp.WithDescription("Delete all but the newest archived snapshots. latest.json is kept."),
	cwdOption,
	mcp.WithNumber("keep", mcp.Required(), mcp.Description("Number of archives to keep (at least 1).")),
)

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"lifeline_save": {
		def:     saveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSave },
	},
	"lifeline_show": {
		def:     showToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleShow },
	},
	"lifeline_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"lifeline_doctor": {
		def:     doctorToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDoctor },
	},
	"lifeline_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"lifeline_prune": {
		def:     pruneToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePrune },
	},
}

// AllToolNames returns every tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with the lifeline tools registered.
// Tools listed in env.Config.DisabledTools are excluded from registration.
func NewServer(env *ops.Env) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		env.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	h := NewHandlers(env)

	disabled := make(map[string]bool, len(env.Config.DisabledTools))
	for _, name := range env.Config.DisabledTools {
		disabled[name] = true
	}

	// Register tools (skip disabled)
	for name, entry := range toolRegistry {
		if disabled[name] {
			env.Logger.Debug("tool disabled", "tool", name)
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(env *ops.Env) error {
	if unknown := ValidateDisabledTools(env.Config.DisabledTools); len(unknown) > 0 {
		env.Logger.Warn("ignoring unknown disabled_tools entries", "tools", unknown)
	}
	s := NewServer(env)
	env.Logger.Info("mcp server starting", "version", env.Version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
