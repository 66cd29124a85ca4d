// Package mcpapi exposes board operations as MCP tools over stdio, so
// agents can read and mutate the shared board through the same backend
// contract the interactive client uses.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hylla/tavle/internal/domain"
	"github.com/hylla/tavle/internal/gateway"
)

// Config captures MCP server configuration.
type Config struct {
	ServerName    string
	ServerVersion string
}

// BoardService is the slice of the backend gateway the MCP tools need.
type BoardService interface {
	FetchBoard(ctx context.Context) (domain.Board, error)
	FetchTags(ctx context.Context) (domain.Tags, error)
	CreateCard(ctx context.Context, in gateway.CreateCardInput) (domain.Card, error)
	UpdateCard(ctx context.Context, cardID string, in gateway.UpdateCardInput) (domain.Card, error)
	MoveCard(ctx context.Context, cardID string, in gateway.MoveCardInput) (gateway.MoveResult, error)
	ArchiveCard(ctx context.Context, cardID string) (domain.Card, error)
	AddSubtask(ctx context.Context, cardID, text string) (domain.Subtask, error)
}

// Server wraps one stdio MCP server bound to a board backend.
type Server struct {
	mcpSrv *mcpserver.MCPServer
}

// NewServer builds the MCP server and registers every board tool.
func NewServer(cfg Config, svc BoardService) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("board service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerBoardTool(mcpSrv, svc)
	registerCardTools(mcpSrv, svc)
	registerSubtaskTool(mcpSrv, svc)
	registerTagTool(mcpSrv, svc)

	return &Server{mcpSrv: mcpSrv}, nil
}

// ServeStdio blocks serving MCP requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	return mcpserver.ServeStdio(s.mcpSrv)
}

// HTTPHandler exposes the same tools over a stateless streamable HTTP
// transport.
func (s *Server) HTTPHandler(endpointPath string) http.Handler {
	endpointPath = strings.TrimSpace(endpointPath)
	if endpointPath == "" {
		endpointPath = "/mcp"
	}
	endpointPath = "/" + strings.Trim(endpointPath, "/")
	return mcpserver.NewStreamableHTTPServer(
		s.mcpSrv,
		mcpserver.WithEndpointPath(endpointPath),
		mcpserver.WithStateLess(true),
	)
}

// normalizeConfig applies deterministic defaults to MCP server config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "tavle"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	return cfg
}

// registerBoardTool registers the `tavle.board` tool.
func registerBoardTool(srv *mcpserver.MCPServer, svc BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"tavle.board",
			mcp.WithDescription("Return the full board snapshot with every visible card per column."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			board, err := svc.FetchBoard(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(board)
			if err != nil {
				return nil, fmt.Errorf("encode board result: %w", err)
			}
			return result, nil
		},
	)
}

// registerCardTools registers create, update, move, and archive tools.
func registerCardTools(srv *mcpserver.MCPServer, svc BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"tavle.create_card",
			mcp.WithDescription("Create a card in a column."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Card title")),
			mcp.WithString("column", mcp.Description("Target column"), mcp.Enum(columnNames()...)),
			mcp.WithString("description", mcp.Description("Markdown description")),
			mcp.WithString("due_date", mcp.Description("Due date as YYYY-MM-DD")),
			mcp.WithNumber("estimated_time", mcp.Description("Estimate in minutes")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			in := gateway.CreateCardInput{
				Title:       title,
				Description: req.GetString("description", ""),
				Column:      domain.Column(req.GetString("column", string(domain.ColumnTodo))),
			}
			if due := req.GetString("due_date", ""); due != "" {
				in.DueDate = &due
			}
			if est := req.GetInt("estimated_time", 0); est > 0 {
				in.EstimatedTime = &est
			}
			card, err := svc.CreateCard(ctx, in)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(card)
			if err != nil {
				return nil, fmt.Errorf("encode create_card result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tavle.update_card",
			mcp.WithDescription("Update a card's title, description, due date, or estimate. Omitted fields are cleared."),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
			mcp.WithString("title", mcp.Required(), mcp.Description("New title")),
			mcp.WithString("description", mcp.Description("New markdown description")),
			mcp.WithString("due_date", mcp.Description("New due date as YYYY-MM-DD, empty clears")),
			mcp.WithNumber("estimated_time", mcp.Description("New estimate in minutes, zero clears")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			cardID, err := req.RequireString("card_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			in := gateway.UpdateCardInput{
				Title:       title,
				Description: req.GetString("description", ""),
			}
			if due := req.GetString("due_date", ""); due != "" {
				in.DueDate = &due
			}
			if est := req.GetInt("estimated_time", 0); est > 0 {
				in.EstimatedTime = &est
			}
			card, err := svc.UpdateCard(ctx, cardID, in)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(card)
			if err != nil {
				return nil, fmt.Errorf("encode update_card result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tavle.move_card",
			mcp.WithDescription("Move a card to a column and position."),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
			mcp.WithString("to_column", mcp.Required(), mcp.Description("Target column"), mcp.Enum(columnNames()...)),
			mcp.WithNumber("position", mcp.Description("Insertion index within the target column")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			cardID, err := req.RequireString("card_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			toColumn, err := req.RequireString("to_column")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			result, err := svc.MoveCard(ctx, cardID, gateway.MoveCardInput{
				ToColumn: domain.Column(toColumn),
				Position: req.GetInt("position", 0),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			encoded, err := mcp.NewToolResultJSON(result)
			if err != nil {
				return nil, fmt.Errorf("encode move_card result: %w", err)
			}
			return encoded, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tavle.archive_card",
			mcp.WithDescription("Archive a card, removing it from the visible board."),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			cardID, err := req.RequireString("card_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			card, err := svc.ArchiveCard(ctx, cardID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(card)
			if err != nil {
				return nil, fmt.Errorf("encode archive_card result: %w", err)
			}
			return result, nil
		},
	)
}

// registerSubtaskTool registers the `tavle.add_subtask` tool.
func registerSubtaskTool(srv *mcpserver.MCPServer, svc BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"tavle.add_subtask",
			mcp.WithDescription("Append a subtask to a card."),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
			mcp.WithString("text", mcp.Required(), mcp.Description("Subtask text")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			cardID, err := req.RequireString("card_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			text, err := req.RequireString("text")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			subtask, err := svc.AddSubtask(ctx, cardID, text)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(subtask)
			if err != nil {
				return nil, fmt.Errorf("encode add_subtask result: %w", err)
			}
			return result, nil
		},
	)
}

// registerTagTool registers the `tavle.list_tags` tool.
func registerTagTool(srv *mcpserver.MCPServer, svc BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"tavle.list_tags",
			mcp.WithDescription("Return the shared tag catalog."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			tags, err := svc.FetchTags(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"tags": tags,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_tags result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps gateway errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	var validationErrs validation.Errors
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, gateway.ErrNetwork):
		return mcp.NewToolResultError("network_error: " + err.Error())
	case errors.Is(err, gateway.ErrDecode):
		return mcp.NewToolResultError("decode_error: " + err.Error())
	case errors.As(err, &validationErrs):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}

// columnNames lists the valid column values for tool schemas.
func columnNames() []string {
	names := make([]string, 0, len(domain.Columns))
	for _, col := range domain.Columns {
		names = append(names, string(col))
	}
	return names
}
