package tui

import (
	"context"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/hylla/tavle/internal/gateway"
)

// tagFormFields stores tag form field indexes in display order.
const (
	tagFormFieldName = iota
	tagFormFieldColor
	tagFormFieldCount
)

// handleTagManagerKey drives the tag catalog list.
func (m Model) handleTagManagerKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Code == tea.KeyEscape || msg.Text == "q":
		m.mode = modeNone
		return m, nil

	case msg.Code == tea.KeyUp || msg.Text == "k":
		if m.tagManagerIndex > 0 {
			m.tagManagerIndex--
		}
		return m, nil

	case msg.Code == tea.KeyDown || msg.Text == "j":
		if m.tagManagerIndex < len(m.tags)-1 {
			m.tagManagerIndex++
		}
		return m, nil

	case msg.Text == "n":
		m.startTagForm("", "", "#fca5a5")
		return m, nil

	case msg.Text == "e" || msg.Code == tea.KeyEnter:
		if m.tagManagerIndex >= len(m.tags) {
			return m, nil
		}
		tag := m.tags[m.tagManagerIndex]
		m.startTagForm(tag.ID, tag.Name, tag.DisplayColor())
		return m, nil

	case msg.Text == "d":
		if m.tagManagerIndex >= len(m.tags) {
			return m, nil
		}
		tag := m.tags[m.tagManagerIndex]
		svc := m.svc
		return m, func() tea.Msg {
			if err := svc.DeleteTag(context.Background(), tag.ID); err != nil {
				return actionMsg{err: err, alert: "could not delete tag " + tag.Name + ": " + err.Error()}
			}
			return actionMsg{status: "tag deleted", fullReload: true}
		}
	}
	return m, nil
}

// startTagForm seeds the tag form for create (empty id) or edit.
func (m *Model) startTagForm(id, name, color string) {
	inputs := make([]textinput.Model, tagFormFieldCount)
	for idx := range inputs {
		inputs[idx] = textinput.New()
		inputs[idx].CharLimit = 60
	}
	inputs[tagFormFieldName].Prompt = "name: "
	inputs[tagFormFieldColor].Prompt = "color: "
	inputs[tagFormFieldColor].Placeholder = "#rrggbb"
	inputs[tagFormFieldName].SetValue(name)
	inputs[tagFormFieldColor].SetValue(color)
	inputs[tagFormFieldName].Focus()

	m.mode = modeTagForm
	m.tagFormInputs = inputs
	m.tagFormFocus = tagFormFieldName
	m.tagFormEditID = id
}

// handleTagFormKey drives the tag create/edit form. Failures raise a
// blocking alert rather than a status line.
func (m Model) handleTagFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if s := msg.String(); s == "shift+tab" || s == "backtab" {
		m.tagFormInputs[m.tagFormFocus].Blur()
		m.tagFormFocus = (m.tagFormFocus + 1) % len(m.tagFormInputs)
		m.tagFormInputs[m.tagFormFocus].Focus()
		return m, nil
	}

	switch msg.Code {
	case tea.KeyEscape:
		m.mode = modeTagManager
		m.tagFormInputs = nil
		m.tagFormEditID = ""
		return m, nil

	case tea.KeyTab, tea.KeyDown, tea.KeyUp:
		m.tagFormInputs[m.tagFormFocus].Blur()
		m.tagFormFocus = (m.tagFormFocus + 1) % len(m.tagFormInputs)
		m.tagFormInputs[m.tagFormFocus].Focus()
		return m, nil

	case tea.KeyEnter:
		in := gateway.TagInput{
			Name:  strings.TrimSpace(m.tagFormInputs[tagFormFieldName].Value()),
			Color: strings.TrimSpace(m.tagFormInputs[tagFormFieldColor].Value()),
		}
		svc := m.svc
		editID := m.tagFormEditID
		return m, func() tea.Msg {
			var err error
			if editID == "" {
				_, err = svc.CreateTag(context.Background(), in)
			} else {
				_, err = svc.UpdateTag(context.Background(), editID, in)
			}
			if err != nil {
				return actionMsg{err: err, alert: "could not save tag: " + err.Error()}
			}
			return actionMsg{status: "tag saved", closeTagForm: true, fullReload: true}
		}
	}

	var cmd tea.Cmd
	m.tagFormInputs[m.tagFormFocus], cmd = m.tagFormInputs[m.tagFormFocus].Update(msg)
	return m, cmd
}
