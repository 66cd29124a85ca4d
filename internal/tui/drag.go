package tui

import (
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/hylla/tavle/internal/domain"
)

// doubleClickWindow bounds the gap between two clicks treated as one
// double-click.
const doubleClickWindow = 400 * time.Millisecond

// dragState represents drag data used by this package.
type dragState struct {
	cardID     string
	fromColumn domain.Column
	pressed    bool
	dragging   bool
	x          int
	y          int
}

// Active reports whether a drag is in flight.
func (d dragState) Active() bool {
	return d.dragging
}

// reset drops drag state.
func (d *dragState) reset() {
	*d = dragState{}
}

// handleMouseClick selects the card under the pointer and arms a potential
// drag session.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeNone || msg.Button != tea.MouseLeft {
		return m, nil
	}

	colIdx, ok := m.columnIndexAt(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	m.selectedColumn = colIdx
	m.clampSelections()

	column := domain.Columns[colIdx]
	cards := m.visibleColumnCards(column)
	row := msg.Y - m.boardTop() - 2
	if row < 0 {
		return m, nil
	}

	cardIdx, onCard := cardIndexAtRow(cardSpans(len(cards)), row)
	if !onCard {
		// The add affordance sits after the last To-Do card.
		if column == domain.ColumnTodo {
			return m.startNewCardForm(), nil
		}
		return m, nil
	}
	m.selectedCard = cardIdx

	// A second click on the same card within the double-click window opens
	// the edit form instead of arming another drag.
	card := cards[cardIdx]
	now := time.Now()
	if card.ID == m.lastClickID && now.Sub(m.lastClickAt) <= doubleClickWindow {
		m.lastClickID = ""
		m.enterEditMode(card)
		return m, nil
	}
	m.lastClickID = card.ID
	m.lastClickAt = now

	m.drag = dragState{
		cardID:     card.ID,
		fromColumn: column,
		pressed:    true,
		x:          msg.X,
		y:          msg.Y,
	}
	return m, nil
}

// handleMouseMotion promotes an armed press into a drag and tracks the
// pointer.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if !m.drag.pressed {
		return m, nil
	}
	if msg.X != m.drag.x || msg.Y != m.drag.y {
		m.drag.dragging = true
	}
	m.drag.x = msg.X
	m.drag.y = msg.Y
	return m, nil
}

// handleMouseRelease completes a drag. Dropping inside a column issues a
// move and reloads whatever the outcome; dropping outside every column
// archives the card and removes it locally without a reload.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if !m.drag.pressed {
		return m, nil
	}
	drag := m.drag
	m.drag.reset()
	if !drag.dragging {
		return m, nil
	}

	colIdx, ok := m.columnIndexAt(msg.X, msg.Y)
	if !ok {
		return m, m.archiveCardCmd(drag.cardID)
	}

	toColumn := domain.Columns[colIdx]
	position := m.dropPosition(toColumn, drag.cardID, msg.Y)
	return m, m.moveCardCmd(drag.cardID, toColumn, position)
}

// dragHoverColumn resolves the column under the pointer of an active drag.
// The second return is false when the pointer sits outside every column, in
// which case releasing archives the card.
func (m Model) dragHoverColumn() (int, bool) {
	if !m.drag.Active() {
		return 0, false
	}
	return m.columnIndexAt(m.drag.x, m.drag.y)
}

// dropPosition computes the insertion position for a drop from the pointer
// row: before the first non-dragged card whose vertical midpoint sits below
// the pointer, otherwise the end of the column.
func (m Model) dropPosition(column domain.Column, draggedID string, pointerY int) int {
	row := pointerY - m.boardTop() - 2
	all := m.board.Cards(column)

	others := make([]domain.Card, 0, len(all))
	for _, card := range all {
		if card.ID == draggedID {
			continue
		}
		if m.filter.Active() && !m.filter.Visible(card) {
			continue
		}
		others = append(others, card)
	}

	insertAt := insertionIndexAtRow(cardSpans(len(others)), row)
	if insertAt >= len(others) {
		count := len(all)
		for _, card := range all {
			if card.ID == draggedID {
				count--
				break
			}
		}
		return count
	}

	// Map the visible neighbour back to its index in the full column,
	// skipping the dragged card itself.
	targetID := others[insertAt].ID
	position := 0
	for _, card := range all {
		if card.ID == draggedID {
			continue
		}
		if card.ID == targetID {
			break
		}
		position++
	}
	return position
}

// columnIndexAt maps pointer coordinates onto a column, requiring the
// pointer to sit inside the column's vertical extent.
func (m Model) columnIndexAt(x, y int) (int, bool) {
	if y < m.boardTop() || y >= m.boardTop()+m.columnHeight() {
		return 0, false
	}
	colWidth := m.columnWidth() + 5 // border + padding approximation for mouse hit testing
	for idx := range domain.Columns {
		start := idx * colWidth
		end := start + colWidth
		if x >= start && x < end {
			return idx, true
		}
	}
	return 0, false
}

// cardSpans returns the rendered line span of each card in a column body:
// title line, meta line, and a separator after every card but the last.
func cardSpans(count int) []int {
	spans := make([]int, count)
	for idx := range spans {
		spans[idx] = 3
	}
	if count > 0 {
		spans[count-1] = 2
	}
	return spans
}

// cardIndexAtRow maps a column-body row onto a card index.
func cardIndexAtRow(spans []int, row int) (int, bool) {
	current := 0
	for idx, span := range spans {
		if row >= current && row < current+span {
			return idx, true
		}
		current += span
	}
	return 0, false
}

// insertionIndexAtRow returns the insertion slot for the pointer row given
// the line span of each card already in the column.
func insertionIndexAtRow(spans []int, row int) int {
	current := 0
	for idx, span := range spans {
		mid := current + span/2
		if row < mid {
			return idx
		}
		current += span
	}
	return len(spans)
}

// columnWidth returns the content width of one column.
func (m Model) columnWidth() int {
	w := 28
	if m.width > 0 {
		// Per-column overhead: left/right border (2), horizontal padding (4), margin-right (1)
		const colOverhead = 7
		usable := m.width - len(domain.Columns)*colOverhead
		candidate := usable / len(domain.Columns)
		if candidate > 0 {
			w = candidate
		}
	}
	if w < 24 {
		return 24
	}
	if w > 42 {
		return 42
	}
	return w
}

// boardTop returns the first board row in mouse coordinates.
func (m Model) boardTop() int {
	// header + status line + spacer
	return 3
}

// columnHeight handles column height.
func (m Model) columnHeight() int {
	headerLines := 3
	footerLines := 4
	h := m.height - headerLines - footerLines
	if h < 14 {
		return 14
	}
	return h
}
