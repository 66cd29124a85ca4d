package gateway

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hylla/tavle/internal/domain"
)

// hexColorPattern matches the backend's #rrggbb tag colors.
var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// validDueDate adapts domain.ValidDueDate to an ozzo rule.
func validDueDate(value any) error {
	raw, _ := value.(*string)
	if raw == nil {
		return nil
	}
	if !domain.ValidDueDate(*raw) {
		return validation.NewError("validation_due_date", "must be a calendar date in YYYY-MM-DD form")
	}
	return nil
}

// CreateCardInput is the payload for card creation. Field names follow the
// backend's request contract.
type CreateCardInput struct {
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Column        domain.Column `json:"column"`
	DueDate       *string       `json:"dueDate"`
	EstimatedTime *int          `json:"estimatedTime"`
}

// Validate checks the input before any request is issued.
func (in CreateCardInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required.Error("title is required")),
		validation.Field(&in.Column, validation.Required, validation.In(
			domain.ColumnTodo, domain.ColumnInProgress, domain.ColumnDone,
		)),
		validation.Field(&in.DueDate, validation.By(validDueDate)),
		validation.Field(&in.EstimatedTime, validation.When(in.EstimatedTime != nil, validation.Min(1))),
	)
}

// UpdateCardInput is the payload for a card PATCH. Nil pointers marshal to
// JSON null, which the backend treats as clearing the field.
type UpdateCardInput struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	DueDate       *string  `json:"dueDate"`
	EstimatedTime *int     `json:"estimatedTime"`
	Assignee      *string  `json:"assignee"`
	TagIDs        []string `json:"tagIds"`
}

// Validate checks the input before any request is issued.
func (in UpdateCardInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required.Error("title is required")),
		validation.Field(&in.DueDate, validation.By(validDueDate)),
		validation.Field(&in.EstimatedTime, validation.When(in.EstimatedTime != nil, validation.Min(1))),
	)
}

// MoveCardInput is the payload for a card move.
type MoveCardInput struct {
	ToColumn domain.Column `json:"toColumn"`
	Position int           `json:"position"`
}

// Validate checks the input before any request is issued.
func (in MoveCardInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ToColumn, validation.Required, validation.In(
			domain.ColumnTodo, domain.ColumnInProgress, domain.ColumnDone,
		)),
		validation.Field(&in.Position, validation.Min(0)),
	)
}

// TagInput is the payload for tag creation and update.
type TagInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Validate checks the input before any request is issued.
func (in TagInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required.Error("name is required")),
		validation.Field(&in.Color, validation.Required, validation.Match(hexColorPattern).Error("must be a #rrggbb color")),
	)
}

// SubtaskPatch is the payload for a subtask PATCH. Nil fields are omitted so
// the backend only touches what the client sends.
type SubtaskPatch struct {
	Text *string `json:"text,omitempty"`
	Done *bool   `json:"done,omitempty"`
}

// MoveResult is the backend's response to a move request.
type MoveResult struct {
	Card       domain.Card   `json:"card"`
	FromColumn domain.Column `json:"fromColumn"`
	ToColumn   domain.Column `json:"toColumn"`
	Position   *int          `json:"position"`
}
