package tui

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/hylla/tavle/internal/domain"
)

// View renders view output.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView(fmt.Sprintf("error: %v\n\npress r to retry, q to quit", m.err))
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}

	p := paletteFor(m.theme)
	statusStyle := lipgloss.NewStyle().Foreground(p.dim)

	header := m.renderHeader(p)
	board := m.renderColumns(p)

	sections := []string{header, "", board}
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(p.muted).
		BorderTop(true).
		BorderForeground(p.dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	if m.height > 0 {
		helpHeight := lipgloss.Height(helpLine)
		content = fitLines(content, max(0, m.height-helpHeight))
	}
	fullContent := content + "\n" + helpLine

	if overlay := m.renderModeOverlay(p); overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}

	v := tea.NewView(fullContent)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// renderHeader renders the one-line app header with mode, filter, live and
// staleness indicators.
func (m Model) renderHeader(p palette) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(p.text)
	statusStyle := lipgloss.NewStyle().Foreground(p.dim)

	header := titleStyle.Render("tavle")
	header += statusStyle.Render("  [" + m.modeLabel() + "]")
	if m.filter.Active() {
		names := make([]string, 0, len(m.filter.selected))
		for _, tag := range m.filter.selected {
			names = append(names, tag.Name)
		}
		header += statusStyle.Render("  filter: " + truncate(strings.Join(names, ", "), 48))
	}
	if m.liveReady {
		header += statusStyle.Render("  live")
	}
	if m.stale {
		header += lipgloss.NewStyle().Foreground(p.warning).Render("  stale")
	}
	if m.drag.Active() {
		if _, over := m.dragHoverColumn(); !over {
			header += lipgloss.NewStyle().Foreground(p.warning).Bold(true).Render("  release to archive")
		}
	}
	return header
}

// renderColumns renders the three board columns side by side.
func (m Model) renderColumns(p palette) string {
	colWidth := m.columnWidth()
	colHeight := m.columnHeight()

	baseColStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.border).
		Padding(1, 2).
		MarginRight(1).
		Width(colWidth).
		Height(colHeight)
	selColStyle := baseColStyle.BorderForeground(p.accent)
	colTitle := lipgloss.NewStyle().Bold(true).Foreground(p.accent)
	emptyStyle := lipgloss.NewStyle().Foreground(p.dim)
	metaStyle := lipgloss.NewStyle().Foreground(p.muted)
	selectedCardStyle := lipgloss.NewStyle().Foreground(p.selected).Bold(true)
	draggingStyle := lipgloss.NewStyle().Foreground(p.selected).Underline(true)
	overdueStyle := lipgloss.NewStyle().Foreground(p.overdue).Bold(true)
	addStyle := lipgloss.NewStyle().Foreground(p.dim).Italic(true)

	hoverIdx, hoverOK := m.dragHoverColumn()

	now := time.Now()
	columnViews := make([]string, 0, len(domain.Columns))
	for colIdx, column := range domain.Columns {
		cards := m.visibleColumnCards(column)
		lines := make([]string, 0, len(cards)*3+2)
		heading := fmt.Sprintf("%s (%d)", column.DisplayName(), len(cards))
		if hoverOK && colIdx == hoverIdx {
			heading += " ▾"
		}
		lines = append(lines, colTitle.Render(heading), "")

		if len(cards) == 0 && column != domain.ColumnTodo {
			lines = append(lines, emptyStyle.Render("(empty)"))
		}

		for cardIdx, card := range cards {
			title := truncate(card.Title, colWidth-2)
			switch {
			case m.drag.Active() && card.ID == m.drag.cardID:
				title = draggingStyle.Render("◈ " + title)
			case colIdx == m.selectedColumn && cardIdx == m.selectedCard:
				title = selectedCardStyle.Render("▸ " + title)
			default:
				title = "  " + title
			}
			lines = append(lines, title)

			metaStyleFor := metaStyle
			if card.Overdue(now) {
				metaStyleFor = overdueStyle
			}
			segments := make([]string, 0, 2)
			if chips := m.renderTagChips(p, card.Tags, 3); chips != "" {
				segments = append(segments, chips)
			}
			if meta := m.cardMeta(card, now); meta != "" {
				segments = append(segments, metaStyleFor.Render(truncate(meta, colWidth-2)))
			}
			if len(segments) == 0 {
				segments = append(segments, metaStyleFor.Render("·"))
			}
			lines = append(lines, "  "+strings.Join(segments, " "))
			if cardIdx < len(cards)-1 {
				lines = append(lines, "")
			}
		}

		if column == domain.ColumnTodo {
			if len(cards) > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, addStyle.Render("+ add card"))
		}

		style := baseColStyle
		switch {
		case hoverOK && colIdx == hoverIdx:
			style = baseColStyle.BorderForeground(p.selected)
		case colIdx == m.selectedColumn:
			style = selColStyle
		}
		columnViews = append(columnViews, style.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columnViews...)
}

// renderTagChips renders the card's tags as colored chips, collapsing the
// overflow past limit into a count.
func (m Model) renderTagChips(p palette, tags []domain.Tag, limit int) string {
	if len(tags) == 0 {
		return ""
	}
	chips := make([]string, 0, limit+1)
	for idx, tag := range tags {
		if idx == limit {
			chips = append(chips, lipgloss.NewStyle().Foreground(p.muted).Render(fmt.Sprintf("+%d", len(tags)-limit)))
			break
		}
		chip := lipgloss.NewStyle().Foreground(tagColor(p, tag.DisplayColor()))
		chips = append(chips, chip.Render("●"+tag.Name))
	}
	return strings.Join(chips, " ")
}

// cardMeta builds the plain one-line summary under a card title. Tags render
// separately as colored chips.
func (m Model) cardMeta(card domain.Card, now time.Time) string {
	parts := make([]string, 0, 4)
	if card.HasDueDate() {
		due := card.DueDateValue()
		if card.Overdue(now) {
			due += "!"
		}
		parts = append(parts, due)
	}
	if name := card.AssigneeValue(); name != "" {
		parts = append(parts, "@"+name)
	}
	if m.showEstimates && card.EstimatedTime != nil {
		parts = append(parts, fmt.Sprintf("%dm", *card.EstimatedTime))
	}
	if len(card.Subtasks) > 0 {
		done := 0
		for _, subtask := range card.Subtasks {
			if subtask.Done {
				done++
			}
		}
		parts = append(parts, fmt.Sprintf("%d/%d", done, len(card.Subtasks)))
	}
	if m.showDescriptions {
		if desc := firstLine(card.Description); desc != "" {
			parts = append(parts, truncate(desc, 24))
		}
	}
	return strings.Join(parts, "  ")
}

// firstLine returns the trimmed first line of a multi-line text.
func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// renderModeOverlay renders the active modal, or "" when none applies.
func (m Model) renderModeOverlay(p palette) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.accent).
		Padding(1, 2)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(p.accent)
	hintStyle := lipgloss.NewStyle().Foreground(p.muted)
	alertStyle := lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(p.warning).
		Padding(1, 2)

	switch m.mode {
	case modeEdit:
		lines := []string{titleStyle.Render("Edit card"), ""}
		for _, input := range m.edit.inputs {
			lines = append(lines, input.View())
		}
		if len(m.edit.suggestions) > 0 {
			lines = append(lines, "", hintStyle.Render("tags:"))
			for idx, tag := range m.edit.suggestions {
				marker := "  "
				if idx == m.edit.suggestionIdx {
					marker = "▸ "
				}
				lines = append(lines, marker+tag.Name)
			}
		}
		lines = append(lines, "", hintStyle.Render("enter save · esc cancel · tab next field"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeNewCard:
		lines := []string{titleStyle.Render("New card in " + m.newCardColumn.DisplayName()), ""}
		for _, input := range m.newCardInputs {
			lines = append(lines, input.View())
		}
		lines = append(lines, "", hintStyle.Render("enter create · esc cancel"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeCardInfo, modeSubtaskAdd:
		card, _, ok := m.board.FindCard(m.infoCardID)
		if !ok {
			return ""
		}
		return boxStyle.Render(m.renderCardInfo(card, p, titleStyle, hintStyle))

	case modeFilter:
		lines := []string{titleStyle.Render("Filter by tag"), "", m.filter.input.View()}
		if len(m.filter.selected) > 0 {
			names := make([]string, 0, len(m.filter.selected))
			for _, tag := range m.filter.selected {
				names = append(names, tag.Name)
			}
			lines = append(lines, "", hintStyle.Render("active: "+strings.Join(names, ", ")))
		}
		for idx, tag := range m.filter.suggestions {
			marker := "  "
			if idx == m.filter.suggestionIdx {
				marker = "▸ "
			}
			lines = append(lines, marker+tag.Name)
		}
		lines = append(lines, "", hintStyle.Render("enter add · backspace remove last · ctrl+x clear · esc close"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeTagManager:
		lines := []string{titleStyle.Render("Tags"), ""}
		if len(m.tags) == 0 {
			lines = append(lines, hintStyle.Render("no tags yet"))
		}
		for idx, tag := range m.tags {
			marker := "  "
			if idx == m.tagManagerIndex {
				marker = "▸ "
			}
			swatch := lipgloss.NewStyle().Foreground(tagColor(p, tag.DisplayColor())).Render("●")
			lines = append(lines, marker+swatch+" "+tag.Name)
		}
		lines = append(lines, "", hintStyle.Render("n new · e edit · d delete · esc close"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeTagForm:
		title := "New tag"
		if m.tagFormEditID != "" {
			title = "Edit tag"
		}
		lines := []string{titleStyle.Render(title), ""}
		for _, input := range m.tagFormInputs {
			lines = append(lines, input.View())
		}
		lines = append(lines, "", hintStyle.Render("enter save · esc back"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeAlert:
		return alertStyle.Render(strings.Join([]string{
			lipgloss.NewStyle().Bold(true).Foreground(p.warning).Render("Something went wrong"),
			"",
			m.alertText,
			"",
			hintStyle.Render("press any key to dismiss"),
		}, "\n"))

	default:
		return ""
	}
}

// renderCardInfo renders the card detail overlay body.
func (m Model) renderCardInfo(card domain.Card, p palette, titleStyle, hintStyle lipgloss.Style) string {
	metaStyle := lipgloss.NewStyle().Foreground(p.muted)
	doneStyle := lipgloss.NewStyle().Foreground(p.dim).Strikethrough(true)

	wrap := min(m.width-12, 72)
	lines := []string{titleStyle.Render(card.Title)}

	meta := make([]string, 0, 4)
	if card.HasDueDate() {
		meta = append(meta, "due "+card.DueDateValue())
	}
	if card.EstimatedTime != nil {
		meta = append(meta, fmt.Sprintf("estimate %dm", *card.EstimatedTime))
	}
	if card.AssigneeValue() != "" {
		meta = append(meta, "assignee "+card.AssigneeValue())
	}
	if names := card.TagNames(); len(names) > 0 {
		meta = append(meta, "tags "+summarizeLabels(names, 5))
	}
	if len(meta) > 0 {
		lines = append(lines, metaStyle.Render(strings.Join(meta, " · ")))
	}

	if desc := m.markdown.render(card.Description, wrap, m.theme); desc != "" {
		lines = append(lines, "", desc)
	}

	if len(card.Subtasks) > 0 {
		lines = append(lines, "", titleStyle.Render("Subtasks"))
		for idx, subtask := range card.Subtasks {
			marker := "  "
			if idx == m.infoSubtaskIdx {
				marker = "▸ "
			}
			box := "[ ] "
			text := subtask.Text
			if subtask.Done {
				box = "[x] "
				text = doneStyle.Render(text)
			}
			lines = append(lines, marker+box+text)
		}
	}

	if m.mode == modeSubtaskAdd {
		lines = append(lines, "", m.subtaskInput.View())
	}
	lines = append(lines, "", hintStyle.Render("x toggle · a add subtask · d delete subtask · e edit · esc close"))
	return strings.Join(lines, "\n")
}

// overlayOnContent composes the overlay centered above the base content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// fitLines clips or pads content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// summarizeLabels joins up to limit labels, noting how many were elided.
func summarizeLabels(labels []string, limit int) string {
	if len(labels) <= limit {
		return strings.Join(labels, ",")
	}
	return strings.Join(labels[:limit], ",") + fmt.Sprintf("+%d", len(labels)-limit)
}

// max handles max.
func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// min handles min.
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
