package tui

import (
	"context"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/hylla/tavle/internal/domain"
	"github.com/hylla/tavle/internal/gateway"
)

// editFields stores edit form field indexes in display order.
const (
	editFieldTitle = iota
	editFieldDescription
	editFieldDue
	editFieldEstimate
	editFieldAssignee
	editFieldTags
	editFieldCount
)

// editState represents inline edit data used by this package.
type editState struct {
	cardID string

	inputs []textinput.Model
	focus  int

	suggestions   []domain.Tag
	suggestionIdx int

	// Snapshot taken on entry; Cancel restores exactly these three fields.
	originalTitle       string
	originalDescription string
	originalDue         *string
}

// newEditState constructs edit state.
func newEditState() editState {
	return editState{}
}

// Reset drops all edit state.
func (e *editState) Reset() {
	*e = editState{}
}

// Active reports whether an edit session is open.
func (e editState) Active() bool {
	return e.cardID != ""
}

// enterEditMode seeds the edit form from the card's current values.
func (m *Model) enterEditMode(card domain.Card) {
	inputs := make([]textinput.Model, editFieldCount)
	for idx := range inputs {
		inputs[idx] = textinput.New()
		inputs[idx].CharLimit = 400
	}
	inputs[editFieldTitle].Prompt = "title: "
	inputs[editFieldDescription].Prompt = "description: "
	inputs[editFieldDue].Prompt = "due: "
	inputs[editFieldDue].Placeholder = "YYYY-MM-DD"
	inputs[editFieldEstimate].Prompt = "estimate: "
	inputs[editFieldEstimate].Placeholder = "minutes"
	inputs[editFieldAssignee].Prompt = "assignee: "
	inputs[editFieldTags].Prompt = "tags: "
	inputs[editFieldTags].Placeholder = "comma separated"

	inputs[editFieldTitle].SetValue(card.Title)
	inputs[editFieldDescription].SetValue(card.Description)
	inputs[editFieldDue].SetValue(card.DueDateValue())
	if card.EstimatedTime != nil {
		inputs[editFieldEstimate].SetValue(strconv.Itoa(*card.EstimatedTime))
	}
	inputs[editFieldAssignee].SetValue(card.AssigneeValue())
	inputs[editFieldTags].SetValue(strings.Join(card.TagNames(), ", "))
	inputs[editFieldTitle].Focus()

	m.mode = modeEdit
	m.edit = editState{
		cardID:              card.ID,
		inputs:              inputs,
		focus:               editFieldTitle,
		originalTitle:       card.Title,
		originalDescription: card.Description,
		originalDue:         card.DueDate,
	}
}

// handleEditKey drives the inline edit form.
func (m Model) handleEditKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if s := msg.String(); s == "shift+tab" || s == "backtab" {
		m.cycleEditFocus(-1)
		return m, nil
	}

	switch msg.Code {
	case tea.KeyEscape:
		return m.cancelEdit()

	case tea.KeyEnter:
		return m.saveEdit()

	case tea.KeyTab:
		if m.edit.focus == editFieldTags && len(m.edit.suggestions) > 0 {
			m.acceptSuggestion()
			return m, nil
		}
		m.cycleEditFocus(1)
		return m, nil

	case tea.KeyDown:
		if m.edit.focus == editFieldTags && len(m.edit.suggestions) > 0 {
			m.edit.suggestionIdx = (m.edit.suggestionIdx + 1) % len(m.edit.suggestions)
			return m, nil
		}
		m.cycleEditFocus(1)
		return m, nil

	case tea.KeyUp:
		if m.edit.focus == editFieldTags && len(m.edit.suggestions) > 0 {
			m.edit.suggestionIdx = (m.edit.suggestionIdx + len(m.edit.suggestions) - 1) % len(m.edit.suggestions)
			return m, nil
		}
		m.cycleEditFocus(-1)
		return m, nil
	}

	var cmd tea.Cmd
	m.edit.inputs[m.edit.focus], cmd = m.edit.inputs[m.edit.focus].Update(msg)
	if m.edit.focus == editFieldTags {
		m.refreshTagSuggestions()
	}
	return m, cmd
}

// cycleEditFocus moves focus by delta across the form fields.
func (m *Model) cycleEditFocus(delta int) {
	m.edit.inputs[m.edit.focus].Blur()
	m.edit.focus = (m.edit.focus + delta + editFieldCount) % editFieldCount
	m.edit.inputs[m.edit.focus].Focus()
	if m.edit.focus == editFieldTags {
		m.refreshTagSuggestions()
	} else {
		m.edit.suggestions = nil
		m.edit.suggestionIdx = 0
	}
}

// refreshTagSuggestions recomputes autocomplete candidates from the token
// after the last comma, excluding names already entered.
func (m *Model) refreshTagSuggestions() {
	entered, query := splitTagEntry(m.edit.inputs[editFieldTags].Value())
	if query == "" {
		m.edit.suggestions = nil
		m.edit.suggestionIdx = 0
		return
	}
	m.edit.suggestions = m.tags.Suggest(query, entered)
	if m.edit.suggestionIdx >= len(m.edit.suggestions) {
		m.edit.suggestionIdx = 0
	}
}

// acceptSuggestion replaces the trailing token with the selected suggestion.
func (m *Model) acceptSuggestion() {
	if m.edit.suggestionIdx >= len(m.edit.suggestions) {
		return
	}
	chosen := m.edit.suggestions[m.edit.suggestionIdx].Name
	entered, _ := splitTagEntry(m.edit.inputs[editFieldTags].Value())
	entered = append(entered, chosen)
	m.edit.inputs[editFieldTags].SetValue(strings.Join(entered, ", ") + ", ")
	m.edit.inputs[editFieldTags].CursorEnd()
	m.edit.suggestions = nil
	m.edit.suggestionIdx = 0
}

// splitTagEntry splits a comma separated tag field into completed names and
// the in-progress trailing token.
func splitTagEntry(raw string) (entered []string, query string) {
	parts := strings.Split(raw, ",")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if i == len(parts)-1 {
			query = part
			continue
		}
		if part != "" {
			entered = append(entered, part)
		}
	}
	return entered, query
}

// enteredTagNames returns every completed name in the tags field, including
// a non-empty trailing token.
func (m Model) enteredTagNames() []string {
	entered, query := splitTagEntry(m.edit.inputs[editFieldTags].Value())
	if query != "" {
		entered = append(entered, query)
	}
	return entered
}

// saveEdit validates and issues the card PATCH. An empty trimmed title never
// produces a request; the form stays open with focus back on the title.
func (m Model) saveEdit() (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(m.edit.inputs[editFieldTitle].Value())
	if title == "" {
		m.status = "title required"
		m.edit.inputs[m.edit.focus].Blur()
		m.edit.focus = editFieldTitle
		m.edit.inputs[editFieldTitle].Focus()
		return m, nil
	}

	in := gateway.UpdateCardInput{
		Title:       title,
		Description: strings.TrimSpace(m.edit.inputs[editFieldDescription].Value()),
		TagIDs:      m.tags.ResolveNames(m.enteredTagNames()),
	}
	if due := strings.TrimSpace(m.edit.inputs[editFieldDue].Value()); due != "" {
		in.DueDate = &due
	}
	if est, ok := parsePositiveInt(m.edit.inputs[editFieldEstimate].Value()); ok {
		in.EstimatedTime = &est
	}
	if assignee := strings.TrimSpace(m.edit.inputs[editFieldAssignee].Value()); assignee != "" {
		in.Assignee = &assignee
	}

	svc := m.svc
	cardID := m.edit.cardID
	return m, func() tea.Msg {
		card, err := svc.UpdateCard(context.Background(), cardID, in)
		if err != nil {
			return actionMsg{err: err, status: "save failed", stayEditing: true}
		}
		// Patch the local card from the response, then reconcile with a
		// fresh snapshot.
		return actionMsg{status: "card saved", patchCard: &card, exitEdit: true, reload: true}
	}
}

// cancelEdit restores the snapshot fields on the local card and reloads.
func (m Model) cancelEdit() (tea.Model, tea.Cmd) {
	if card, _, ok := m.board.FindCard(m.edit.cardID); ok {
		card.Title = m.edit.originalTitle
		card.Description = m.edit.originalDescription
		card.DueDate = m.edit.originalDue
		m.board.ReplaceCard(card)
	}
	m.exitEditMode()
	return m, m.loadBoard
}
