package domain

import "strings"

// defaultTagColor matches the backend's fallback chip color.
const defaultTagColor = "#93c5fd"

// Tag is one entry in the process-wide shared catalog, referenced by zero or
// more cards by identifier.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// DisplayColor returns the tag color, falling back to the catalog default.
func (t Tag) DisplayColor() string {
	if strings.TrimSpace(t.Color) == "" {
		return defaultTagColor
	}
	return t.Color
}

// Tags is the shared tag catalog in server order.
type Tags []Tag

// FindByName returns the first tag whose name matches case-insensitively.
// Name-based lookup is the documented contract even though duplicate display
// names make it ambiguous.
func (ts Tags) FindByName(name string) (Tag, bool) {
	name = strings.TrimSpace(name)
	for _, tag := range ts {
		if strings.EqualFold(tag.Name, name) {
			return tag, true
		}
	}
	return Tag{}, false
}

// FindByID returns the catalog tag with the given id.
func (ts Tags) FindByID(id string) (Tag, bool) {
	for _, tag := range ts {
		if tag.ID == id {
			return tag, true
		}
	}
	return Tag{}, false
}

// ResolveNames maps tag names to catalog ids, dropping names with no catalog
// entry. Duplicate ids are collapsed, preserving first-seen order.
func (ts Tags) ResolveNames(names []string) []string {
	ids := make([]string, 0, len(names))
	seen := map[string]struct{}{}
	for _, name := range names {
		tag, ok := ts.FindByName(name)
		if !ok {
			continue
		}
		if _, dup := seen[tag.ID]; dup {
			continue
		}
		seen[tag.ID] = struct{}{}
		ids = append(ids, tag.ID)
	}
	return ids
}

// Suggest returns catalog tags whose name contains the query
// case-insensitively, excluding names present in exclude. An empty query
// returns no suggestions.
func (ts Tags) Suggest(query string, exclude []string) []Tag {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	excluded := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		excluded[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	out := make([]Tag, 0, len(ts))
	for _, tag := range ts {
		lower := strings.ToLower(tag.Name)
		if _, skip := excluded[lower]; skip {
			continue
		}
		if strings.Contains(lower, query) {
			out = append(out, tag)
		}
	}
	return out
}

// User is read-only from the client's perspective; it only populates assignee
// selection.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
