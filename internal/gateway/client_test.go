package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hylla/tavle/internal/domain"
)

type recordedRequest struct {
	method string
	path   string
	header http.Header
	body   []byte
}

// newRecordingServer replies with status and respBody to every request and
// records what arrived.
func newRecordingServer(t *testing.T, status int, respBody string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read request body: %v", err)
		}
		seen = append(seen, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			header: r.Header.Clone(),
			body:   body,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := New(srv.URL, WithToken("secret"), WithClientID("instance-1"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestNewRejectsEmptyBaseURL(t *testing.T) {
	if _, err := New("   "); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://127.0.0.1:5001", "ws://127.0.0.1:5001/ws"},
		{"https://board.example.com/", "wss://board.example.com/ws"},
	}
	for _, tt := range tests {
		client, err := New(tt.base)
		if err != nil {
			t.Fatalf("New(%q): %v", tt.base, err)
		}
		if got := client.WebsocketURL(); got != tt.want {
			t.Fatalf("WebsocketURL(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestFetchBoardDecodesColumns(t *testing.T) {
	srv, seen := newRecordingServer(t, http.StatusOK, `{
		"todo": [{"id": "c1", "title": "Write release notes", "tags": [{"id": "t1", "name": "docs", "color": "#fca5a5"}]}],
		"in_progress": [],
		"done": [{"id": "c2", "title": "Ship build", "due_date": "2026-08-30"}]
	}`)
	client := newTestClient(t, srv)

	board, err := client.FetchBoard(context.Background())
	if err != nil {
		t.Fatalf("FetchBoard: %v", err)
	}
	if len(board.Todo) != 1 || len(board.InProgress) != 0 || len(board.Done) != 1 {
		t.Fatalf("unexpected column sizes: %d/%d/%d", len(board.Todo), len(board.InProgress), len(board.Done))
	}
	if board.Todo[0].Tags[0].Name != "docs" {
		t.Fatalf("expected tag docs, got %q", board.Todo[0].Tags[0].Name)
	}
	if !board.Done[0].HasDueDate() || board.Done[0].DueDateValue() != "2026-08-30" {
		t.Fatal("expected due_date to survive decoding")
	}

	req := (*seen)[0]
	if req.method != http.MethodGet || req.path != "/api/board" {
		t.Fatalf("unexpected request %s %s", req.method, req.path)
	}
	if got := req.header.Get("Authorization"); got != "Bearer secret" {
		t.Fatalf("Authorization = %q", got)
	}
	if got := req.header.Get("X-Client-ID"); got != "instance-1" {
		t.Fatalf("X-Client-ID = %q", got)
	}
}

func TestCreateCardSendsCamelCaseBody(t *testing.T) {
	srv, seen := newRecordingServer(t, http.StatusCreated, `{"id": "c9", "title": "New card"}`)
	client := newTestClient(t, srv)

	due := "2026-09-15"
	est := 3
	card, err := client.CreateCard(context.Background(), CreateCardInput{
		Title:         "New card",
		Description:   "details",
		Column:        domain.ColumnTodo,
		DueDate:       &due,
		EstimatedTime: &est,
	})
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	if card.ID != "c9" {
		t.Fatalf("card id = %q", card.ID)
	}

	req := (*seen)[0]
	if req.method != http.MethodPost || req.path != "/api/cards" {
		t.Fatalf("unexpected request %s %s", req.method, req.path)
	}
	var body map[string]any
	if err := json.Unmarshal(req.body, &body); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	if body["dueDate"] != "2026-09-15" {
		t.Fatalf("dueDate = %v", body["dueDate"])
	}
	if body["estimatedTime"] != float64(3) {
		t.Fatalf("estimatedTime = %v", body["estimatedTime"])
	}
	if body["column"] != "todo" {
		t.Fatalf("column = %v", body["column"])
	}
}

func TestCreateCardRejectsEmptyTitleWithoutRequest(t *testing.T) {
	srv, seen := newRecordingServer(t, http.StatusOK, `{}`)
	client := newTestClient(t, srv)

	_, err := client.CreateCard(context.Background(), CreateCardInput{Column: domain.ColumnTodo})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(*seen) != 0 {
		t.Fatalf("expected zero requests, got %d", len(*seen))
	}
}

func TestUpdateCardNilPointersMarshalToNull(t *testing.T) {
	srv, seen := newRecordingServer(t, http.StatusOK, `{"id": "c1", "title": "Renamed"}`)
	client := newTestClient(t, srv)

	_, err := client.UpdateCard(context.Background(), "c1", UpdateCardInput{
		Title:  "Renamed",
		TagIDs: []string{"t1", "t2"},
	})
	if err != nil {
		t.Fatalf("UpdateCard: %v", err)
	}

	req := (*seen)[0]
	if req.method != http.MethodPatch || req.path != "/api/cards/c1" {
		t.Fatalf("unexpected request %s %s", req.method, req.path)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(req.body, &body); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	if string(body["dueDate"]) != "null" {
		t.Fatalf("dueDate raw = %s, want null", body["dueDate"])
	}
	if string(body["assignee"]) != "null" {
		t.Fatalf("assignee raw = %s, want null", body["assignee"])
	}
	if string(body["tagIds"]) != `["t1","t2"]` {
		t.Fatalf("tagIds raw = %s", body["tagIds"])
	}
}

func TestMoveCardPostsColumnAndPosition(t *testing.T) {
	srv, seen := newRecordingServer(t, http.StatusOK, `{
		"card": {"id": "c1", "title": "Ship build"},
		"fromColumn": "todo",
		"toColumn": "in_progress",
		"position": 2
	}`)
	client := newTestClient(t, srv)

	result, err := client.MoveCard(context.Background(), "c1", MoveCardInput{
		ToColumn: domain.ColumnInProgress,
		Position: 2,
	})
	if err != nil {
		t.Fatalf("MoveCard: %v", err)
	}
	if result.FromColumn != domain.ColumnTodo || result.ToColumn != domain.ColumnInProgress {
		t.Fatalf("unexpected columns %s -> %s", result.FromColumn, result.ToColumn)
	}
	if result.Position == nil || *result.Position != 2 {
		t.Fatalf("position = %v", result.Position)
	}

	req := (*seen)[0]
	if req.method != http.MethodPost || req.path != "/api/cards/c1/move" {
		t.Fatalf("unexpected request %s %s", req.method, req.path)
	}
	var body map[string]any
	if err := json.Unmarshal(req.body, &body); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	if body["toColumn"] != "in_progress" || body["position"] != float64(2) {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestArchiveAndUnarchivePaths(t *testing.T) {
	srv, seen := newRecordingServer(t, http.StatusOK, `{"id": "c1", "title": "Old card", "archived": true}`)
	client := newTestClient(t, srv)

	if _, err := client.ArchiveCard(context.Background(), "c1"); err != nil {
		t.Fatalf("ArchiveCard: %v", err)
	}
	if _, err := client.UnarchiveCard(context.Background(), "c1"); err != nil {
		t.Fatalf("UnarchiveCard: %v", err)
	}

	if (*seen)[0].path != "/api/cards/c1/archive" {
		t.Fatalf("archive path = %s", (*seen)[0].path)
	}
	if (*seen)[1].path != "/api/cards/c1/unarchive" {
		t.Fatalf("unarchive path = %s", (*seen)[1].path)
	}
	for _, req := range *seen {
		if req.method != http.MethodPost {
			t.Fatalf("method = %s, want POST", req.method)
		}
		if len(req.body) != 0 {
			t.Fatalf("expected empty body, got %s", req.body)
		}
	}
}

func TestSubtaskOperations(t *testing.T) {
	srv, seen := newRecordingServer(t, http.StatusOK, `{"id": "s1", "text": "Write tests", "done": false}`)
	client := newTestClient(t, srv)
	ctx := context.Background()

	if _, err := client.AddSubtask(ctx, "c1", "  Write tests  "); err != nil {
		t.Fatalf("AddSubtask: %v", err)
	}
	done := true
	if _, err := client.UpdateSubtask(ctx, "c1", "s1", SubtaskPatch{Done: &done}); err != nil {
		t.Fatalf("UpdateSubtask: %v", err)
	}
	if err := client.DeleteSubtask(ctx, "c1", "s1"); err != nil {
		t.Fatalf("DeleteSubtask: %v", err)
	}

	add := (*seen)[0]
	if add.method != http.MethodPost || add.path != "/api/cards/c1/subtasks" {
		t.Fatalf("add request %s %s", add.method, add.path)
	}
	var addBody map[string]string
	if err := json.Unmarshal(add.body, &addBody); err != nil {
		t.Fatalf("unmarshal add body: %v", err)
	}
	if addBody["text"] != "Write tests" {
		t.Fatalf("text = %q, want trimmed", addBody["text"])
	}

	patch := (*seen)[1]
	if patch.method != http.MethodPatch || patch.path != "/api/cards/c1/subtasks/s1" {
		t.Fatalf("patch request %s %s", patch.method, patch.path)
	}
	if string(patch.body) != `{"done":true}` {
		t.Fatalf("patch body = %s", patch.body)
	}

	del := (*seen)[2]
	if del.method != http.MethodDelete || del.path != "/api/cards/c1/subtasks/s1" {
		t.Fatalf("delete request %s %s", del.method, del.path)
	}
}

func TestAddSubtaskRejectsBlankText(t *testing.T) {
	srv, seen := newRecordingServer(t, http.StatusOK, `{}`)
	client := newTestClient(t, srv)

	if _, err := client.AddSubtask(context.Background(), "c1", "   "); err == nil {
		t.Fatal("expected error for blank text")
	}
	if len(*seen) != 0 {
		t.Fatalf("expected zero requests, got %d", len(*seen))
	}
}

func TestTagOperations(t *testing.T) {
	srv, seen := newRecordingServer(t, http.StatusOK, `{"id": "t1", "name": "urgent", "color": "#ef4444"}`)
	client := newTestClient(t, srv)
	ctx := context.Background()

	if _, err := client.CreateTag(ctx, TagInput{Name: "urgent", Color: "#ef4444"}); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if _, err := client.UpdateTag(ctx, "t1", TagInput{Name: "urgent", Color: "#dc2626"}); err != nil {
		t.Fatalf("UpdateTag: %v", err)
	}
	if err := client.DeleteTag(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}

	wants := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/tags"},
		{http.MethodPatch, "/api/tags/t1"},
		{http.MethodDelete, "/api/tags/t1"},
	}
	for i, want := range wants {
		got := (*seen)[i]
		if got.method != want.method || got.path != want.path {
			t.Fatalf("request %d: %s %s, want %s %s", i, got.method, got.path, want.method, want.path)
		}
	}
}

func TestCreateTagRejectsBadColor(t *testing.T) {
	srv, seen := newRecordingServer(t, http.StatusOK, `{}`)
	client := newTestClient(t, srv)

	_, err := client.CreateTag(context.Background(), TagInput{Name: "urgent", Color: "red"})
	if err == nil {
		t.Fatal("expected validation error for non-hex color")
	}
	if len(*seen) != 0 {
		t.Fatalf("expected zero requests, got %d", len(*seen))
	}
}

func TestNonSuccessStatusIsNetworkError(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusInternalServerError, `{"error": "boom"}`)
	client := newTestClient(t, srv)

	_, err := client.FetchBoard(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestRejectedConnectionIsNetworkError(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusOK, `{}`)
	base := srv.URL
	srv.Close()

	client, err := New(base)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.FetchBoard(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestMalformedBodyIsDecodeError(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusOK, `{"todo": "not a list"`)
	client := newTestClient(t, srv)

	_, err := client.FetchBoard(context.Background())
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if errors.Is(err, ErrNetwork) {
		t.Fatalf("decode failure must not be a network error: %v", err)
	}
}

func TestFetchArchivedPath(t *testing.T) {
	srv, seen := newRecordingServer(t, http.StatusOK, `[{"id": "c3", "title": "Retired", "archived": true}]`)
	client := newTestClient(t, srv)

	cards, err := client.FetchArchived(context.Background())
	if err != nil {
		t.Fatalf("FetchArchived: %v", err)
	}
	if len(cards) != 1 || !cards[0].Archived {
		t.Fatalf("unexpected archived cards %+v", cards)
	}
	if (*seen)[0].path != "/api/archived" {
		t.Fatalf("path = %s", (*seen)[0].path)
	}
}
