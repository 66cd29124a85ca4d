// Package gateway wraps every network call the client makes against the
// board backend. Each operation issues exactly one request and classifies
// failures as ErrNetwork or ErrDecode; nothing here retries.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hylla/tavle/internal/domain"
)

// defaultTimeout bounds each request; the backend is expected local or near.
const defaultTimeout = 15 * time.Second

// maxErrorBodyBytes limits how much of an error body is kept for diagnostics.
const maxErrorBodyBytes = 512

// Client talks to one board backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	clientID   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithToken sets a bearer token attached to every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithClientID overrides the generated per-process instance id.
func WithClientID(id string) Option {
	return func(c *Client) {
		if strings.TrimSpace(id) != "" {
			c.clientID = strings.TrimSpace(id)
		}
	}
}

// New builds a gateway client for the given backend base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		clientID:   uuid.NewString(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string { return c.baseURL }

// ClientID returns the instance id sent with every request.
func (c *Client) ClientID() string { return c.clientID }

// WebsocketURL derives the push-channel endpoint from the base URL.
func (c *Client) WebsocketURL() string {
	wsURL := c.baseURL + "/ws"
	if strings.HasPrefix(wsURL, "https://") {
		return "wss://" + strings.TrimPrefix(wsURL, "https://")
	}
	return "ws://" + strings.TrimPrefix(wsURL, "http://")
}

// FetchBoard fetches the full visible board snapshot.
func (c *Client) FetchBoard(ctx context.Context) (domain.Board, error) {
	var board domain.Board
	if err := c.do(ctx, http.MethodGet, "/api/board", nil, &board); err != nil {
		return domain.Board{}, fmt.Errorf("fetch board: %w", err)
	}
	return board, nil
}

// FetchUsers fetches the assignable user list.
func (c *Client) FetchUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	return users, nil
}

// FetchTags fetches the shared tag catalog.
func (c *Client) FetchTags(ctx context.Context) (domain.Tags, error) {
	var tags domain.Tags
	if err := c.do(ctx, http.MethodGet, "/api/tags", nil, &tags); err != nil {
		return nil, fmt.Errorf("fetch tags: %w", err)
	}
	return tags, nil
}

// CreateCard creates a card and returns the server's copy.
func (c *Client) CreateCard(ctx context.Context, in CreateCardInput) (domain.Card, error) {
	if err := in.Validate(); err != nil {
		return domain.Card{}, fmt.Errorf("validate create card: %w", err)
	}
	var card domain.Card
	if err := c.do(ctx, http.MethodPost, "/api/cards", in, &card); err != nil {
		return domain.Card{}, fmt.Errorf("create card: %w", err)
	}
	return card, nil
}

// UpdateCard patches card fields and returns the updated card.
func (c *Client) UpdateCard(ctx context.Context, cardID string, in UpdateCardInput) (domain.Card, error) {
	if err := in.Validate(); err != nil {
		return domain.Card{}, fmt.Errorf("validate update card: %w", err)
	}
	var card domain.Card
	if err := c.do(ctx, http.MethodPatch, "/api/cards/"+url.PathEscape(cardID), in, &card); err != nil {
		return domain.Card{}, fmt.Errorf("update card %s: %w", cardID, err)
	}
	return card, nil
}

// MoveCard moves a card to a column position.
func (c *Client) MoveCard(ctx context.Context, cardID string, in MoveCardInput) (MoveResult, error) {
	if err := in.Validate(); err != nil {
		return MoveResult{}, fmt.Errorf("validate move card: %w", err)
	}
	var result MoveResult
	if err := c.do(ctx, http.MethodPost, "/api/cards/"+url.PathEscape(cardID)+"/move", in, &result); err != nil {
		return MoveResult{}, fmt.Errorf("move card %s: %w", cardID, err)
	}
	return result, nil
}

// ArchiveCard soft-removes a card from the visible board.
func (c *Client) ArchiveCard(ctx context.Context, cardID string) (domain.Card, error) {
	var card domain.Card
	if err := c.do(ctx, http.MethodPost, "/api/cards/"+url.PathEscape(cardID)+"/archive", nil, &card); err != nil {
		return domain.Card{}, fmt.Errorf("archive card %s: %w", cardID, err)
	}
	return card, nil
}

// UnarchiveCard restores an archived card to the board.
func (c *Client) UnarchiveCard(ctx context.Context, cardID string) (domain.Card, error) {
	var card domain.Card
	if err := c.do(ctx, http.MethodPost, "/api/cards/"+url.PathEscape(cardID)+"/unarchive", nil, &card); err != nil {
		return domain.Card{}, fmt.Errorf("unarchive card %s: %w", cardID, err)
	}
	return card, nil
}

// FetchArchived lists archived cards.
func (c *Client) FetchArchived(ctx context.Context) ([]domain.Card, error) {
	var cards []domain.Card
	if err := c.do(ctx, http.MethodGet, "/api/archived", nil, &cards); err != nil {
		return nil, fmt.Errorf("fetch archived: %w", err)
	}
	return cards, nil
}

// AddSubtask appends a subtask to a card.
func (c *Client) AddSubtask(ctx context.Context, cardID, text string) (domain.Subtask, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Subtask{}, errors.New("subtask text is required")
	}
	var st domain.Subtask
	payload := map[string]string{"text": text}
	if err := c.do(ctx, http.MethodPost, "/api/cards/"+url.PathEscape(cardID)+"/subtasks", payload, &st); err != nil {
		return domain.Subtask{}, fmt.Errorf("add subtask to card %s: %w", cardID, err)
	}
	return st, nil
}

// UpdateSubtask patches a subtask's text or done flag.
func (c *Client) UpdateSubtask(ctx context.Context, cardID, subtaskID string, patch SubtaskPatch) (domain.Subtask, error) {
	var st domain.Subtask
	path := "/api/cards/" + url.PathEscape(cardID) + "/subtasks/" + url.PathEscape(subtaskID)
	if err := c.do(ctx, http.MethodPatch, path, patch, &st); err != nil {
		return domain.Subtask{}, fmt.Errorf("update subtask %s: %w", subtaskID, err)
	}
	return st, nil
}

// DeleteSubtask removes a subtask from its card.
func (c *Client) DeleteSubtask(ctx context.Context, cardID, subtaskID string) error {
	path := "/api/cards/" + url.PathEscape(cardID) + "/subtasks/" + url.PathEscape(subtaskID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete subtask %s: %w", subtaskID, err)
	}
	return nil
}

// CreateTag adds a tag to the shared catalog.
func (c *Client) CreateTag(ctx context.Context, in TagInput) (domain.Tag, error) {
	if err := in.Validate(); err != nil {
		return domain.Tag{}, fmt.Errorf("validate create tag: %w", err)
	}
	var tag domain.Tag
	if err := c.do(ctx, http.MethodPost, "/api/tags", in, &tag); err != nil {
		return domain.Tag{}, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}

// UpdateTag renames or recolors a catalog tag.
func (c *Client) UpdateTag(ctx context.Context, tagID string, in TagInput) (domain.Tag, error) {
	if err := in.Validate(); err != nil {
		return domain.Tag{}, fmt.Errorf("validate update tag: %w", err)
	}
	var tag domain.Tag
	if err := c.do(ctx, http.MethodPatch, "/api/tags/"+url.PathEscape(tagID), in, &tag); err != nil {
		return domain.Tag{}, fmt.Errorf("update tag %s: %w", tagID, err)
	}
	return tag, nil
}

// DeleteTag removes a tag from the catalog; the server strips the reference
// from every card that held it.
func (c *Client) DeleteTag(ctx context.Context, tagID string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/tags/"+url.PathEscape(tagID), nil, nil); err != nil {
		return fmt.Errorf("delete tag %s: %w", tagID, err)
	}
	return nil
}

// do issues one request. payload is JSON-encoded when non-nil; out is
// JSON-decoded from a 2xx body when non-nil.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", errors.Join(ErrNetwork, err))
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Client-ID", c.clientID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, errors.Join(ErrNetwork, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("%s %s: status %d %s: %w", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)), ErrNetwork)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, errors.Join(ErrDecode, err))
	}
	return nil
}
