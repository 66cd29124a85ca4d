package tui

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/hylla/tavle/internal/domain"
)

// filterState represents tag filter data used by this package.
type filterState struct {
	input textinput.Model

	// selected keeps insertion order and is unique by tag id.
	selected []domain.Tag

	suggestions   []domain.Tag
	suggestionIdx int
}

// newFilterState constructs filter state.
func newFilterState() filterState {
	input := textinput.New()
	input.Prompt = "filter: "
	input.Placeholder = "tag name"
	input.CharLimit = 100
	return filterState{input: input}
}

// Active reports whether any tag is selected.
func (f filterState) Active() bool {
	return len(f.selected) > 0
}

// Visible reports whether the card passes the filter. An empty selection
// keeps every card visible; otherwise the card needs a tag whose name
// matches any selected tag's name.
func (f filterState) Visible(card domain.Card) bool {
	if len(f.selected) == 0 {
		return true
	}
	for _, tag := range f.selected {
		if card.HasTagNamed(tag.Name) {
			return true
		}
	}
	return false
}

// Clear drops the whole selection.
func (f *filterState) Clear() {
	f.selected = nil
	f.input.SetValue("")
	f.suggestions = nil
	f.suggestionIdx = 0
}

// Select adds a tag to the selection unless its id is already present.
func (f *filterState) Select(tag domain.Tag) {
	for _, existing := range f.selected {
		if existing.ID == tag.ID {
			return
		}
	}
	f.selected = append(f.selected, tag)
}

// RemoveLast drops the most recently selected tag.
func (f *filterState) RemoveLast() {
	if len(f.selected) > 0 {
		f.selected = f.selected[:len(f.selected)-1]
	}
}

// refresh recomputes suggestions for the current query against the catalog,
// excluding tags already selected.
func (f *filterState) refresh(catalog domain.Tags) {
	query := strings.TrimSpace(f.input.Value())
	if query == "" {
		f.suggestions = nil
		f.suggestionIdx = 0
		return
	}
	exclude := make([]string, 0, len(f.selected))
	for _, tag := range f.selected {
		exclude = append(exclude, tag.Name)
	}
	f.suggestions = catalog.Suggest(query, exclude)
	if f.suggestionIdx >= len(f.suggestions) {
		f.suggestionIdx = 0
	}
}

// handleFilterKey drives the tag filter prompt.
func (m Model) handleFilterKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyEscape:
		m.mode = modeNone
		m.filter.input.Blur()
		m.filter.input.SetValue("")
		m.filter.suggestions = nil
		m.clampSelections()
		return m, nil

	case tea.KeyEnter:
		if m.filter.suggestionIdx < len(m.filter.suggestions) {
			m.filter.Select(m.filter.suggestions[m.filter.suggestionIdx])
			m.filter.input.SetValue("")
			m.filter.suggestions = nil
			m.filter.suggestionIdx = 0
			m.clampSelections()
		}
		return m, nil

	case tea.KeyDown:
		if len(m.filter.suggestions) > 0 {
			m.filter.suggestionIdx = (m.filter.suggestionIdx + 1) % len(m.filter.suggestions)
		}
		return m, nil

	case tea.KeyUp:
		if len(m.filter.suggestions) > 0 {
			m.filter.suggestionIdx = (m.filter.suggestionIdx + len(m.filter.suggestions) - 1) % len(m.filter.suggestions)
		}
		return m, nil

	case tea.KeyBackspace:
		if m.filter.input.Value() == "" {
			m.filter.RemoveLast()
			m.clampSelections()
			return m, nil
		}
	}

	if msg.String() == "ctrl+x" {
		m.filter.Clear()
		m.clampSelections()
		m.status = "filter cleared"
		return m, nil
	}

	var cmd tea.Cmd
	m.filter.input, cmd = m.filter.input.Update(msg)
	m.filter.refresh(m.tags)
	return m, cmd
}
