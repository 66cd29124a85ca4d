package mcpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hylla/tavle/internal/domain"
	"github.com/hylla/tavle/internal/gateway"
)

// stubBoardService provides deterministic backend responses for MCP tool tests.
type stubBoardService struct {
	board       domain.Board
	tags        domain.Tags
	created     domain.Card
	updated     domain.Card
	moved       gateway.MoveResult
	archived    domain.Card
	subtask     domain.Subtask
	boardErr    error
	createErr   error
	moveErr     error
	lastCreate  gateway.CreateCardInput
	lastUpdate  gateway.UpdateCardInput
	lastMove    gateway.MoveCardInput
	lastMoveID  string
	lastArchive string
	lastSubtask string
}

func (s *stubBoardService) FetchBoard(context.Context) (domain.Board, error) {
	if s.boardErr != nil {
		return domain.Board{}, s.boardErr
	}
	return s.board, nil
}

func (s *stubBoardService) FetchTags(context.Context) (domain.Tags, error) {
	return append(domain.Tags(nil), s.tags...), nil
}

func (s *stubBoardService) CreateCard(_ context.Context, in gateway.CreateCardInput) (domain.Card, error) {
	s.lastCreate = in
	if s.createErr != nil {
		return domain.Card{}, s.createErr
	}
	return s.created, nil
}

func (s *stubBoardService) UpdateCard(_ context.Context, _ string, in gateway.UpdateCardInput) (domain.Card, error) {
	s.lastUpdate = in
	return s.updated, nil
}

func (s *stubBoardService) MoveCard(_ context.Context, cardID string, in gateway.MoveCardInput) (gateway.MoveResult, error) {
	s.lastMoveID = cardID
	s.lastMove = in
	if s.moveErr != nil {
		return gateway.MoveResult{}, s.moveErr
	}
	return s.moved, nil
}

func (s *stubBoardService) ArchiveCard(_ context.Context, cardID string) (domain.Card, error) {
	s.lastArchive = cardID
	return s.archived, nil
}

func (s *stubBoardService) AddSubtask(_ context.Context, cardID, text string) (domain.Subtask, error) {
	s.lastSubtask = cardID
	return s.subtask, nil
}

// jsonRPCResponse models minimal JSON-RPC response fields used in MCP tests.
type jsonRPCResponse struct {
	ID     float64        `json:"id"`
	Result map[string]any `json:"result"`
}

// callToolRequest constructs one deterministic tools/call JSON-RPC request payload.
func callToolRequest(id int, toolName string, arguments map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": arguments,
		},
	}
}

// toolResultText decodes the first text entry from one tool-call result payload.
func toolResultText(t *testing.T, result map[string]any) string {
	t.Helper()

	contentRaw, ok := result["content"].([]any)
	if !ok || len(contentRaw) == 0 {
		t.Fatalf("content missing in tool result: %#v", result)
	}
	first, ok := contentRaw[0].(map[string]any)
	if !ok {
		t.Fatalf("first content entry has unexpected type: %#v", contentRaw[0])
	}
	text, ok := first["text"].(string)
	if !ok {
		t.Fatalf("content text missing in tool result: %#v", first)
	}
	return text
}

// postJSONRPC sends one JSON-RPC payload and decodes the response body.
func postJSONRPC(t *testing.T, client *http.Client, url string, payload any) (*http.Response, jsonRPCResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	var decoded jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return resp, decoded
}

// initializeRequest builds a deterministic MCP initialize request payload.
func initializeRequest() map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"clientInfo": map[string]any{
				"name":    "tavle-test",
				"version": "1.0.0",
			},
		},
	}
}

// newToolServer builds a Server over the stub and exposes it via httptest.
func newToolServer(t *testing.T, svc BoardService) *httptest.Server {
	t.Helper()
	srv, err := NewServer(Config{}, svc)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	server := httptest.NewServer(srv.HTTPHandler("/mcp"))
	t.Cleanup(server.Close)
	_, _ = postJSONRPC(t, server.Client(), server.URL+"/mcp", initializeRequest())
	return server
}

func TestNewServerRequiresBoardService(t *testing.T) {
	if _, err := NewServer(Config{}, nil); err == nil {
		t.Fatal("expected error for nil board service")
	}
}

func TestServerRegistersBoardTools(t *testing.T) {
	server := newToolServer(t, &stubBoardService{})

	_, toolsResp := postJSONRPC(t, server.Client(), server.URL+"/mcp", map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/list",
	})

	toolsRaw, ok := toolsResp.Result["tools"].([]any)
	if !ok {
		t.Fatalf("tools list payload missing tools: %#v", toolsResp.Result)
	}
	toolNames := make([]string, 0, len(toolsRaw))
	for _, toolRaw := range toolsRaw {
		toolMap, ok := toolRaw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := toolMap["name"].(string)
		toolNames = append(toolNames, name)
	}
	for _, want := range []string{
		"tavle.board",
		"tavle.create_card",
		"tavle.update_card",
		"tavle.move_card",
		"tavle.archive_card",
		"tavle.add_subtask",
		"tavle.list_tags",
	} {
		if !slices.Contains(toolNames, want) {
			t.Fatalf("tool list missing %s: %#v", want, toolNames)
		}
	}
}

func TestBoardToolReturnsSnapshot(t *testing.T) {
	svc := &stubBoardService{
		board: domain.Board{
			Todo: []domain.Card{{ID: "c1", Title: "Write changelog"}},
		},
	}
	server := newToolServer(t, svc)

	_, resp := postJSONRPC(t, server.Client(), server.URL+"/mcp", callToolRequest(2, "tavle.board", nil))
	text := toolResultText(t, resp.Result)
	if !strings.Contains(text, "Write changelog") {
		t.Fatalf("board payload missing card title: %s", text)
	}
}

func TestCreateCardToolForwardsArguments(t *testing.T) {
	svc := &stubBoardService{created: domain.Card{ID: "c9", Title: "New card"}}
	server := newToolServer(t, svc)

	_, resp := postJSONRPC(t, server.Client(), server.URL+"/mcp", callToolRequest(2, "tavle.create_card", map[string]any{
		"title":          "New card",
		"column":         "in_progress",
		"due_date":       "2026-09-15",
		"estimated_time": 4,
	}))
	text := toolResultText(t, resp.Result)
	if !strings.Contains(text, "c9") {
		t.Fatalf("create result missing id: %s", text)
	}
	if svc.lastCreate.Column != domain.ColumnInProgress {
		t.Fatalf("column = %q", svc.lastCreate.Column)
	}
	if svc.lastCreate.DueDate == nil || *svc.lastCreate.DueDate != "2026-09-15" {
		t.Fatalf("due date = %v", svc.lastCreate.DueDate)
	}
	if svc.lastCreate.EstimatedTime == nil || *svc.lastCreate.EstimatedTime != 4 {
		t.Fatalf("estimate = %v", svc.lastCreate.EstimatedTime)
	}
}

func TestCreateCardToolRequiresTitle(t *testing.T) {
	server := newToolServer(t, &stubBoardService{})

	_, resp := postJSONRPC(t, server.Client(), server.URL+"/mcp", callToolRequest(2, "tavle.create_card", map[string]any{}))
	if isError, _ := resp.Result["isError"].(bool); !isError {
		t.Fatalf("expected tool error for missing title: %#v", resp.Result)
	}
}

func TestMoveCardToolForwardsColumnAndPosition(t *testing.T) {
	svc := &stubBoardService{
		moved: gateway.MoveResult{
			Card:       domain.Card{ID: "c1"},
			FromColumn: domain.ColumnTodo,
			ToColumn:   domain.ColumnDone,
		},
	}
	server := newToolServer(t, svc)

	_, resp := postJSONRPC(t, server.Client(), server.URL+"/mcp", callToolRequest(2, "tavle.move_card", map[string]any{
		"card_id":   "c1",
		"to_column": "done",
		"position":  3,
	}))
	if isError, _ := resp.Result["isError"].(bool); isError {
		t.Fatalf("unexpected tool error: %s", toolResultText(t, resp.Result))
	}
	if svc.lastMoveID != "c1" {
		t.Fatalf("card id = %q", svc.lastMoveID)
	}
	if svc.lastMove.ToColumn != domain.ColumnDone || svc.lastMove.Position != 3 {
		t.Fatalf("move input = %+v", svc.lastMove)
	}
}

func TestToolErrorsCarryTaxonomyPrefix(t *testing.T) {
	svc := &stubBoardService{boardErr: gateway.ErrNetwork}
	server := newToolServer(t, svc)

	_, resp := postJSONRPC(t, server.Client(), server.URL+"/mcp", callToolRequest(2, "tavle.board", nil))
	text := toolResultText(t, resp.Result)
	if !strings.HasPrefix(text, "network_error:") {
		t.Fatalf("expected network_error prefix, got %q", text)
	}
}

func TestListTagsToolReturnsCatalog(t *testing.T) {
	svc := &stubBoardService{tags: domain.Tags{{ID: "t1", Name: "urgent", Color: "#ef4444"}}}
	server := newToolServer(t, svc)

	_, resp := postJSONRPC(t, server.Client(), server.URL+"/mcp", callToolRequest(2, "tavle.list_tags", nil))
	text := toolResultText(t, resp.Result)
	if !strings.Contains(text, "urgent") {
		t.Fatalf("tags payload missing tag name: %s", text)
	}
}
