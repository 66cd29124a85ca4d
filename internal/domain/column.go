package domain

import "strings"

// Column identifies one of the three fixed workflow stages.
type Column string

const (
	ColumnTodo       Column = "todo"
	ColumnInProgress Column = "in_progress"
	ColumnDone       Column = "done"
)

// Columns lists the workflow stages in board order.
var Columns = []Column{ColumnTodo, ColumnInProgress, ColumnDone}

// columnNames maps stages to their display names.
var columnNames = map[Column]string{
	ColumnTodo:       "To-Do",
	ColumnInProgress: "In Progress",
	ColumnDone:       "Done",
}

// ParseColumn normalizes raw input into a Column.
func ParseColumn(raw string) (Column, error) {
	col := Column(strings.TrimSpace(strings.ToLower(raw)))
	switch col {
	case ColumnTodo, ColumnInProgress, ColumnDone:
		return col, nil
	default:
		return "", ErrInvalidColumn
	}
}

// DisplayName returns the human-readable column title.
func (c Column) DisplayName() string {
	if name, ok := columnNames[c]; ok {
		return name
	}
	return string(c)
}

// Valid reports whether the column is one of the three fixed stages.
func (c Column) Valid() bool {
	_, ok := columnNames[c]
	return ok
}
