// Package tools exposes the tarkov client as MCP tools. Every handler
// validates its arguments, calls the client and renders Markdown; failures
// come back as tool error results rather than protocol errors.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/tarkovmcp/tarkovmcp/internal/metrics"
)

// API is the subset of *tarkov.Client the tools call.
type API interface {
	SearchItems(ctx context.Context, name, itemType string, limit int) ([]map[string]any, error)
	ItemByID(ctx context.Context, id string) (map[string]any, error)
	FleaMarket(ctx context.Context, limit int) ([]map[string]any, error)
	Barters(ctx context.Context, limit int) ([]map[string]any, error)
	Maps(ctx context.Context) ([]map[string]any, error)
	MapByName(ctx context.Context, name string) (map[string]any, error)
	Traders(ctx context.Context) ([]map[string]any, error)
	TraderByName(ctx context.Context, name string) (map[string]any, error)
	TraderItems(ctx context.Context, trader string, level int) ([]map[string]any, error)
	Quests(ctx context.Context, trader string) ([]map[string]any, error)
	QuestByID(ctx context.Context, id string) (map[string]any, error)
	SearchQuests(ctx context.Context, query string, limit int) ([]map[string]any, error)
	Ammo(ctx context.Context, caliber string) ([]map[string]any, error)
	HideoutModules(ctx context.Context) ([]map[string]any, error)
	Crafts(ctx context.Context, station string, limit int) ([]map[string]any, error)
	QuestItems(ctx context.Context, limit int) ([]map[string]any, error)
	GoonReports(ctx context.Context, limit int) ([]map[string]any, error)
}

// Logger is satisfied by *zap.Logger and by the gofulmen logging.Logger.
type Logger interface {
	Info(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
}

// Category groups tools in listings.
type Category string

const (
	CategoryItems     Category = "items"
	CategoryMarket    Category = "market"
	CategoryMaps      Category = "maps"
	CategoryTraders   Category = "traders"
	CategoryQuests    Category = "quests"
	CategoryCommunity Category = "community"
)

type runFunc func(ctx context.Context, api API, req mcp.CallToolRequest) (string, error)

// Tool is one registered MCP tool.
type Tool struct {
	Category   Category
	Definition mcp.Tool
	run        runFunc
}

// Name returns the MCP tool name.
func (t Tool) Name() string { return t.Definition.Name }

// Registry holds the tool catalog and dispatches calls by name.
type Registry struct {
	api    API
	logger Logger
	tools  []Tool
	byName map[string]Tool
}

// ErrUnknownTool is returned by Call for names outside the catalog.
var ErrUnknownTool = errors.New("unknown tool")

// NewRegistry builds the full catalog over api.
func NewRegistry(api API, logger Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{api: api, logger: logger, byName: map[string]Tool{}}
	for _, group := range [][]Tool{itemTools(), marketTools(), mapTools(), traderTools(), questTools(), communityTools()} {
		for _, tool := range group {
			r.tools = append(r.tools, tool)
			r.byName[tool.Name()] = tool
		}
	}
	return r
}

// Tools returns the catalog sorted by category then name.
func (r *Registry) Tools() []Tool {
	out := append([]Tool(nil), r.tools...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name() < out[j].Name()
	})
	return out
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	tool, ok := r.byName[name]
	return tool, ok
}

// Register adds every tool to an MCP server.
func (r *Registry) Register(s *server.MCPServer) {
	for _, tool := range r.tools {
		s.AddTool(tool.Definition, r.handler(tool))
	}
}

// Call dispatches one tool outside MCP.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	tool, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return r.handler(tool)(ctx, req)
}

func (r *Registry) handler(tool Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		callID := uuid.NewString()
		start := time.Now()

		defer func() {
			if p := recover(); p != nil {
				metrics.RecordPanic(metrics.PanicSourceTool)
				r.logger.Error("tool handler panicked",
					zap.String("tool", tool.Name()),
					zap.String("call_id", callID),
					zap.Any("panic", p))
				result, err = mcp.NewToolResultError(fmt.Sprintf("Error running %s: internal error", tool.Name())), nil
			}
		}()

		text, runErr := tool.run(ctx, r.api, req)
		elapsed := time.Since(start)
		metrics.RecordToolCall(tool.Name(), runErr == nil, elapsed)

		if runErr != nil {
			r.logger.Error("tool call failed",
				zap.String("tool", tool.Name()),
				zap.String("call_id", callID),
				zap.Any("arguments", req.GetArguments()),
				zap.Duration("elapsed", elapsed),
				zap.Error(runErr))
			metrics.RecordToolError(tool.Name(), errorCode(runErr))
			return mcp.NewToolResultError(errorText(runErr)), nil
		}

		r.logger.Info("tool call completed",
			zap.String("tool", tool.Name()),
			zap.String("call_id", callID),
			zap.Duration("elapsed", elapsed))
		return mcp.NewToolResultText(text), nil
	}
}

// ResultText concatenates the text content of a tool result.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var text string
	for _, content := range result.Content {
		switch c := content.(type) {
		case mcp.TextContent:
			text += c.Text
		case *mcp.TextContent:
			text += c.Text
		}
	}
	return text
}
