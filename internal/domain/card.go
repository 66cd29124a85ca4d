package domain

import (
	"strings"
	"time"
)

// dueDateLayout is the wire format for card due dates.
const dueDateLayout = "2006-01-02"

// Subtask is owned exclusively by its parent card and managed through the
// parent's subtask endpoints.
type Subtask struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Card is one unit of work on the board. Field names follow the backend wire
// contract; optional fields are pointers so absence survives round-trips.
type Card struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	DueDate       *string   `json:"due_date"`
	Assignee      *string   `json:"assignee"`
	EstimatedTime *int      `json:"estimated_time"`
	Archived      bool      `json:"archived"`
	Subtasks      []Subtask `json:"subtasks"`
	Tags          []Tag     `json:"tags"`
}

// HasDueDate reports whether the card carries a non-empty due date.
func (c Card) HasDueDate() bool {
	return c.DueDate != nil && strings.TrimSpace(*c.DueDate) != ""
}

// DueDateValue returns the due date string, empty when unset.
func (c Card) DueDateValue() string {
	if c.DueDate == nil {
		return ""
	}
	return *c.DueDate
}

// AssigneeValue returns the assignee name, empty when unset.
func (c Card) AssigneeValue() string {
	if c.Assignee == nil {
		return ""
	}
	return *c.Assignee
}

// Overdue reports whether the card's due date lies strictly before today.
// Cards with no due date or an unparseable one are never overdue.
func (c Card) Overdue(now time.Time) bool {
	if !c.HasDueDate() {
		return false
	}
	due, err := time.Parse(dueDateLayout, strings.TrimSpace(*c.DueDate))
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return due.Before(today)
}

// TagNames returns the card's tag names in display order.
func (c Card) TagNames() []string {
	names := make([]string, 0, len(c.Tags))
	for _, tag := range c.Tags {
		names = append(names, tag.Name)
	}
	return names
}

// HasTagNamed reports whether the card displays a tag with the given name,
// compared case-insensitively. Matching is by name, not id, mirroring the
// filter contract.
func (c Card) HasTagNamed(name string) bool {
	name = strings.TrimSpace(name)
	for _, tag := range c.Tags {
		if strings.EqualFold(tag.Name, name) {
			return true
		}
	}
	return false
}

// SubtaskByID returns the subtask with the given id.
func (c Card) SubtaskByID(id string) (Subtask, bool) {
	for _, st := range c.Subtasks {
		if st.ID == id {
			return st, true
		}
	}
	return Subtask{}, false
}

// ValidDueDate reports whether raw is an actual calendar date in YYYY-MM-DD
// form. The empty string is valid (due date unset).
func ValidDueDate(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return true
	}
	_, err := time.Parse(dueDateLayout, raw)
	return err == nil
}
