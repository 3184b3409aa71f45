package mcp

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/suhba/internal/config"
	"github.com/hpungsan/suhba/internal/db"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"companion", "feed", "connection", "fixture"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"companion_matches": {
		def:     matchesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMatches },
	},
	"companion_study_partners": {
		def:     studyPartnersToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStudyPartners },
	},
	"companion_mentors": {
		def:     mentorsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMentors },
	},
	"feed_for_you": {
		def:     forYouToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleForYou },
	},
	"feed_trending": {
		def:     trendingToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTrending },
	},
	"connection_request": {
		def:     requestToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRequest },
	},
	"connection_respond": {
		def:     respondToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRespond },
	},
	"connection_interact": {
		def:     interactToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleInteract },
	},
	"connection_history": {
		def:     historyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistory },
	},
	"connection_strength": {
		def:     strengthToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStrength },
	},
	"fixture_import": {
		def:     importToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
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

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "feed_trending" → "feed").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	// Build set of types for O(1) lookup
	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	// Collect tools belonging to disabled types
	tools := make([]string, 0)
	for name := range toolRegistry {
		typ := GetTypeForTool(name)
		if typeSet[typ] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with Suhba tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(store *db.Store, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"suhba",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(store, cfg)

	// Build set of disabled tools: first expand types, then add individual tools
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	// Register tools (skip disabled)
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(store *db.Store, cfg *config.Config, version string) error {
	s := NewServer(store, cfg, version)
	return server.ServeStdio(s)
}
