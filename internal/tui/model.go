package tui

import (
	"context"
	"strconv"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/log"

	"github.com/hylla/tavle/internal/domain"
	"github.com/hylla/tavle/internal/gateway"
	"github.com/hylla/tavle/internal/live"
)

// Gateway represents the backend operations the board view depends on.
type Gateway interface {
	FetchBoard(context.Context) (domain.Board, error)
	FetchUsers(context.Context) ([]domain.User, error)
	FetchTags(context.Context) (domain.Tags, error)
	CreateCard(context.Context, gateway.CreateCardInput) (domain.Card, error)
	UpdateCard(context.Context, string, gateway.UpdateCardInput) (domain.Card, error)
	MoveCard(context.Context, string, gateway.MoveCardInput) (gateway.MoveResult, error)
	ArchiveCard(context.Context, string) (domain.Card, error)
	AddSubtask(context.Context, string, string) (domain.Subtask, error)
	UpdateSubtask(context.Context, string, string, gateway.SubtaskPatch) (domain.Subtask, error)
	DeleteSubtask(context.Context, string, string) error
	CreateTag(context.Context, gateway.TagInput) (domain.Tag, error)
	UpdateTag(context.Context, string, gateway.TagInput) (domain.Tag, error)
	DeleteTag(context.Context, string) error
}

// SaveThemeFunc persists the theme preference outside the running program.
type SaveThemeFunc func(theme string) error

// StoreSnapshotFunc persists a fetched board and tag catalog outside the
// running program, typically into the local snapshot cache.
type StoreSnapshotFunc func(board domain.Board, tags domain.Tags)

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeEdit
	modeNewCard
	modeCardInfo
	modeFilter
	modeTagManager
	modeTagForm
	modeSubtaskAdd
	modeAlert
)

// newCardFields stores new-card form field indexes in display order.
const (
	newCardFieldTitle = iota
	newCardFieldDescription
	newCardFieldDue
	newCardFieldEstimate
	newCardFieldCount
)

// Model represents the board client state.
type Model struct {
	svc    Gateway
	logger *log.Logger

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	theme     string
	saveTheme SaveThemeFunc

	storeSnapshot StoreSnapshotFunc

	showDescriptions bool
	showEstimates    bool

	board domain.Board
	tags  domain.Tags
	users []domain.User

	// stale marks board/tags as a cached snapshot awaiting the first fetch.
	stale bool

	selectedColumn int
	selectedCard   int

	lastClickID string
	lastClickAt time.Time

	mode inputMode

	edit   editState
	filter filterState
	drag   dragState

	newCardInputs []textinput.Model
	newCardFocus  int
	newCardColumn domain.Column

	infoCardID     string
	infoSubtaskIdx int

	subtaskInput textinput.Model

	tagManagerIndex int
	tagFormInputs   []textinput.Model
	tagFormFocus    int
	tagFormEditID   string

	alertText string

	listener  *live.Listener
	liveReady bool

	markdown *markdownRenderer
}

// boardLoadedMsg carries fetched server state through update handling.
type boardLoadedMsg struct {
	board      domain.Board
	tags       domain.Tags
	users      []domain.User
	tagsLoaded bool
	usersSet   bool
	err        error
}

// actionMsg carries mutation outcomes through update handling.
type actionMsg struct {
	err          error
	status       string
	reload       bool
	fullReload   bool
	patchCard    *domain.Card
	removeCardID string
	exitEdit     bool
	stayEditing  bool
	alert        string
	closeTagForm bool
}

// liveEventMsg wraps one push-channel event.
type liveEventMsg struct {
	event live.Event
	ok    bool
}

// themeSavedMsg reports the outcome of persisting a theme toggle.
type themeSavedMsg struct {
	theme string
	err   error
}

// NewModel constructs a new board model.
func NewModel(svc Gateway, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false

	subtaskInput := textinput.New()
	subtaskInput.Prompt = "subtask: "
	subtaskInput.Placeholder = "what needs doing"
	subtaskInput.CharLimit = 200

	m := Model{
		svc:              svc,
		logger:           log.Default(),
		status:           "loading...",
		help:             h,
		keys:             newKeyMap(),
		theme:            themeDark,
		showDescriptions: true,
		showEstimates:    true,
		newCardColumn:    domain.ColumnTodo,
		subtaskInput:     subtaskInput,
		edit:             newEditState(),
		filter:           newFilterState(),
		markdown:         &markdownRenderer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadData}
	if m.listener != nil {
		cmds = append(cmds, m.startListener)
	}
	return tea.Batch(cmds...)
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardLoadedMsg:
		if msg.err != nil {
			if m.stale && m.board.CardCount() > 0 {
				m.status = "server unreachable; showing cached snapshot"
				return m, nil
			}
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.stale = false
		m.board = msg.board
		if msg.tagsLoaded {
			m.tags = msg.tags
		}
		if msg.usersSet {
			m.users = msg.users
		}
		m.clampSelections()
		if m.mode == modeEdit {
			if _, _, ok := m.board.FindCard(m.edit.cardID); !ok {
				m.exitEditMode()
			}
		}
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		if m.storeSnapshot != nil {
			store, board, tags := m.storeSnapshot, m.board, m.tags
			return m, func() tea.Msg {
				store(board, tags)
				return nil
			}
		}
		return m, nil

	case actionMsg:
		return m.handleActionMsg(msg)

	case liveEventMsg:
		return m.handleLiveEvent(msg)

	case themeSavedMsg:
		if msg.err != nil {
			m.status = "save theme failed: " + msg.err.Error()
			return m, nil
		}
		m.status = msg.theme + " theme"
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	default:
		return m, nil
	}
}

// handleActionMsg applies one mutation outcome to the model.
func (m Model) handleActionMsg(msg actionMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("request failed", "err", msg.err)
		if msg.alert != "" {
			m.alertText = msg.alert
			m.mode = modeAlert
			return m, nil
		}
		if msg.status != "" {
			m.status = msg.status
		} else {
			m.status = msg.err.Error()
		}
		if msg.stayEditing {
			return m, nil
		}
		if msg.reload {
			// Reload as recovery even when the mutation failed.
			return m, m.loadBoard
		}
		return m, nil
	}
	if msg.status != "" {
		m.status = msg.status
	}
	if msg.removeCardID != "" {
		m.board.RemoveCard(msg.removeCardID)
		m.clampSelections()
	}
	if msg.patchCard != nil {
		m.board.ReplaceCard(*msg.patchCard)
	}
	if msg.exitEdit {
		m.exitEditMode()
	}
	if msg.closeTagForm {
		m.mode = modeTagManager
		m.tagFormInputs = nil
		m.tagFormEditID = ""
	}
	if msg.fullReload {
		return m, m.loadData
	}
	if msg.reload {
		return m, m.loadBoard
	}
	return m, nil
}

// handleLiveEvent applies one push event and re-arms the wait command.
func (m Model) handleLiveEvent(msg liveEventMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		m.liveReady = false
		m.status = "live updates disconnected"
		return m, nil
	}
	event := msg.event
	if event.Err != nil {
		m.liveReady = false
		m.logger.Warn("push channel failed", "err", event.Err)
		m.status = "live updates disconnected"
		return m, nil
	}
	switch event.Type {
	case live.EventBoardChanged:
		if event.Board != nil {
			// The push payload is a full snapshot; apply it directly.
			m.board = *event.Board
			m.clampSelections()
			if m.mode == modeEdit {
				if _, _, ok := m.board.FindCard(m.edit.cardID); !ok {
					m.exitEditMode()
				}
			}
			return m, m.rearm()
		}
		if cmd := m.rearm(); cmd != nil {
			return m, tea.Batch(m.loadBoard, cmd)
		}
		return m, m.loadBoard
	case live.EventTagsChanged:
		if cmd := m.rearm(); cmd != nil {
			return m, tea.Batch(m.loadData, cmd)
		}
		return m, m.loadData
	default:
		return m, m.rearm()
	}
}

// rearm returns the next-event wait command when a listener is attached.
func (m Model) rearm() tea.Cmd {
	if m.listener == nil {
		return nil
	}
	return m.waitForEvent
}

// startListener opens the push channel and begins waiting for events.
func (m Model) startListener() tea.Msg {
	if err := m.listener.Start(context.Background()); err != nil {
		m.logger.Warn("push channel unavailable", "err", err)
		return liveEventMsg{ok: false}
	}
	return m.waitForEvent()
}

// waitForEvent blocks on the next push event.
func (m Model) waitForEvent() tea.Msg {
	event, ok := <-m.listener.Events()
	return liveEventMsg{event: event, ok: ok}
}

// loadData loads users, tags, and the board snapshot.
func (m Model) loadData() tea.Msg {
	users, err := m.svc.FetchUsers(context.Background())
	if err != nil {
		return boardLoadedMsg{err: err}
	}
	tags, err := m.svc.FetchTags(context.Background())
	if err != nil {
		return boardLoadedMsg{err: err}
	}
	board, err := m.svc.FetchBoard(context.Background())
	if err != nil {
		return boardLoadedMsg{err: err}
	}
	return boardLoadedMsg{board: board, tags: tags, users: users, tagsLoaded: true, usersSet: true}
}

// loadBoard re-fetches the board snapshot only.
func (m Model) loadBoard() tea.Msg {
	board, err := m.svc.FetchBoard(context.Background())
	if err != nil {
		return boardLoadedMsg{err: err}
	}
	return boardLoadedMsg{board: board}
}

// handleNormalModeKey routes keys while no input mode is active.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.toggleHelp) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	if m.err != nil {
		if key.Matches(msg, m.keys.reload) {
			m.err = nil
			m.status = "loading..."
			return m, m.loadData
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading"
		return m, m.loadData

	case key.Matches(msg, m.keys.moveLeft):
		if m.selectedColumn > 0 {
			m.selectedColumn--
			m.clampSelections()
		}
		return m, nil

	case key.Matches(msg, m.keys.moveRight):
		if m.selectedColumn < len(domain.Columns)-1 {
			m.selectedColumn++
			m.clampSelections()
		}
		return m, nil

	case key.Matches(msg, m.keys.moveUp):
		if m.selectedCard > 0 {
			m.selectedCard--
		}
		return m, nil

	case key.Matches(msg, m.keys.moveDown):
		if m.selectedCard < len(m.visibleColumnCards(m.currentColumn()))-1 {
			m.selectedCard++
		}
		return m, nil

	case key.Matches(msg, m.keys.newCard):
		return m.startNewCardForm(), nil

	case key.Matches(msg, m.keys.editCard):
		card, ok := m.selectedCardValue()
		if !ok {
			m.status = "no card selected"
			return m, nil
		}
		m.enterEditMode(card)
		return m, nil

	case key.Matches(msg, m.keys.cardInfo):
		card, ok := m.selectedCardValue()
		if !ok {
			m.status = "no card selected"
			return m, nil
		}
		m.mode = modeCardInfo
		m.infoCardID = card.ID
		m.infoSubtaskIdx = 0
		return m, nil

	case key.Matches(msg, m.keys.archiveCard):
		card, ok := m.selectedCardValue()
		if !ok {
			m.status = "no card selected"
			return m, nil
		}
		return m, m.archiveCardCmd(card.ID)

	case key.Matches(msg, m.keys.moveCardLeft):
		return m.moveSelectedCard(-1)

	case key.Matches(msg, m.keys.moveCardRight):
		return m.moveSelectedCard(1)

	case key.Matches(msg, m.keys.filter):
		m.mode = modeFilter
		m.filter.input.Focus()
		return m, nil

	case key.Matches(msg, m.keys.clearFilter):
		if m.filter.Active() {
			m.filter.Clear()
			m.status = "filter cleared"
		}
		return m, nil

	case key.Matches(msg, m.keys.tagManager):
		m.mode = modeTagManager
		m.tagManagerIndex = 0
		return m, nil

	case key.Matches(msg, m.keys.toggleTheme):
		return m.toggleTheme()

	default:
		return m, nil
	}
}

// handleInputModeKey routes keys while a modal input mode is active.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeEdit:
		return m.handleEditKey(msg)
	case modeNewCard:
		return m.handleNewCardKey(msg)
	case modeCardInfo:
		return m.handleCardInfoKey(msg)
	case modeFilter:
		return m.handleFilterKey(msg)
	case modeTagManager:
		return m.handleTagManagerKey(msg)
	case modeTagForm:
		return m.handleTagFormKey(msg)
	case modeSubtaskAdd:
		return m.handleSubtaskAddKey(msg)
	case modeAlert:
		m.mode = modeNone
		m.alertText = ""
		return m, nil
	default:
		m.mode = modeNone
		return m, nil
	}
}

// moveSelectedCard moves the selected card one column in the given direction.
func (m Model) moveSelectedCard(delta int) (tea.Model, tea.Cmd) {
	card, ok := m.selectedCardValue()
	if !ok {
		m.status = "no card selected"
		return m, nil
	}
	target := m.selectedColumn + delta
	if target < 0 || target >= len(domain.Columns) {
		return m, nil
	}
	toColumn := domain.Columns[target]
	position := len(m.board.Cards(toColumn))
	return m, m.moveCardCmd(card.ID, toColumn, position)
}

// moveCardCmd issues one move request; the board is reloaded afterwards
// whether or not the request succeeded.
func (m Model) moveCardCmd(cardID string, toColumn domain.Column, position int) tea.Cmd {
	return func() tea.Msg {
		_, err := m.svc.MoveCard(context.Background(), cardID, gateway.MoveCardInput{
			ToColumn: toColumn,
			Position: position,
		})
		if err != nil {
			return actionMsg{err: err, status: "move failed", reload: true}
		}
		return actionMsg{status: "moved to " + toColumn.DisplayName(), reload: true}
	}
}

// archiveCardCmd archives one card. On success the card is removed from the
// local snapshot without a reload.
func (m Model) archiveCardCmd(cardID string) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.svc.ArchiveCard(context.Background(), cardID); err != nil {
			return actionMsg{err: err, status: "archive failed", reload: true}
		}
		return actionMsg{status: "card archived", removeCardID: cardID}
	}
}

// toggleTheme flips the palette and persists the preference.
func (m Model) toggleTheme() (tea.Model, tea.Cmd) {
	if m.theme == themeDark {
		m.theme = themeLight
	} else {
		m.theme = themeDark
	}
	theme := m.theme
	if m.saveTheme == nil {
		m.status = theme + " theme"
		return m, nil
	}
	save := m.saveTheme
	return m, func() tea.Msg {
		return themeSavedMsg{theme: theme, err: save(theme)}
	}
}

// startNewCardForm seeds the new-card inputs and enters the modal.
func (m Model) startNewCardForm() Model {
	inputs := make([]textinput.Model, newCardFieldCount)
	for idx := range inputs {
		inputs[idx] = textinput.New()
		inputs[idx].CharLimit = 200
	}
	inputs[newCardFieldTitle].Placeholder = "card title"
	inputs[newCardFieldDescription].Placeholder = "description (markdown)"
	inputs[newCardFieldDue].Placeholder = "due date YYYY-MM-DD"
	inputs[newCardFieldEstimate].Placeholder = "estimate (minutes)"
	inputs[newCardFieldTitle].Focus()

	// New cards always land at the end of To-Do.
	m.mode = modeNewCard
	m.newCardInputs = inputs
	m.newCardFocus = newCardFieldTitle
	m.newCardColumn = domain.ColumnTodo
	return m
}

// handleNewCardKey drives the new-card modal.
func (m Model) handleNewCardKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if s := msg.String(); s == "shift+tab" || s == "backtab" {
		m.newCardInputs[m.newCardFocus].Blur()
		m.newCardFocus = (m.newCardFocus + len(m.newCardInputs) - 1) % len(m.newCardInputs)
		m.newCardInputs[m.newCardFocus].Focus()
		return m, nil
	}

	switch msg.Code {
	case tea.KeyEscape:
		m.mode = modeNone
		m.newCardInputs = nil
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		m.newCardInputs[m.newCardFocus].Blur()
		m.newCardFocus = (m.newCardFocus + 1) % len(m.newCardInputs)
		m.newCardInputs[m.newCardFocus].Focus()
		return m, nil
	case tea.KeyUp:
		m.newCardInputs[m.newCardFocus].Blur()
		m.newCardFocus = (m.newCardFocus + len(m.newCardInputs) - 1) % len(m.newCardInputs)
		m.newCardInputs[m.newCardFocus].Focus()
		return m, nil
	case tea.KeyEnter:
		return m.submitNewCard()
	}
	var cmd tea.Cmd
	m.newCardInputs[m.newCardFocus], cmd = m.newCardInputs[m.newCardFocus].Update(msg)
	return m, cmd
}

// submitNewCard validates and issues the create request.
func (m Model) submitNewCard() (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(m.newCardInputs[newCardFieldTitle].Value())
	if title == "" {
		m.status = "title required"
		m.newCardInputs[m.newCardFocus].Blur()
		m.newCardFocus = newCardFieldTitle
		m.newCardInputs[newCardFieldTitle].Focus()
		return m, nil
	}
	in := gateway.CreateCardInput{
		Title:       title,
		Description: strings.TrimSpace(m.newCardInputs[newCardFieldDescription].Value()),
		Column:      m.newCardColumn,
	}
	if due := strings.TrimSpace(m.newCardInputs[newCardFieldDue].Value()); due != "" {
		in.DueDate = &due
	}
	if est, ok := parsePositiveInt(m.newCardInputs[newCardFieldEstimate].Value()); ok {
		in.EstimatedTime = &est
	}
	m.mode = modeNone
	m.newCardInputs = nil
	svc := m.svc
	return m, func() tea.Msg {
		if _, err := svc.CreateCard(context.Background(), in); err != nil {
			return actionMsg{err: err, status: "create failed", reload: true}
		}
		return actionMsg{status: "card created", reload: true}
	}
}

// handleCardInfoKey drives the card detail view.
func (m Model) handleCardInfoKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	card, _, ok := m.board.FindCard(m.infoCardID)
	if !ok {
		m.mode = modeNone
		return m, nil
	}
	switch {
	case msg.Code == tea.KeyEscape || key.Matches(msg, m.keys.quit):
		m.mode = modeNone
		m.infoCardID = ""
		return m, nil
	case msg.Code == tea.KeyUp || msg.Text == "k":
		if m.infoSubtaskIdx > 0 {
			m.infoSubtaskIdx--
		}
		return m, nil
	case msg.Code == tea.KeyDown || msg.Text == "j":
		if m.infoSubtaskIdx < len(card.Subtasks)-1 {
			m.infoSubtaskIdx++
		}
		return m, nil
	case msg.Text == "x" || msg.Code == tea.KeyEnter:
		if m.infoSubtaskIdx >= len(card.Subtasks) {
			return m, nil
		}
		subtask := card.Subtasks[m.infoSubtaskIdx]
		done := !subtask.Done
		svc := m.svc
		cardID := card.ID
		return m, func() tea.Msg {
			if _, err := svc.UpdateSubtask(context.Background(), cardID, subtask.ID, gateway.SubtaskPatch{Done: &done}); err != nil {
				return actionMsg{err: err, status: "subtask update failed", reload: true}
			}
			return actionMsg{status: "subtask updated", reload: true}
		}
	case msg.Text == "a":
		m.mode = modeSubtaskAdd
		m.subtaskInput.SetValue("")
		m.subtaskInput.Focus()
		return m, nil
	case msg.Text == "d":
		if m.infoSubtaskIdx >= len(card.Subtasks) {
			return m, nil
		}
		subtask := card.Subtasks[m.infoSubtaskIdx]
		svc := m.svc
		cardID := card.ID
		return m, func() tea.Msg {
			if err := svc.DeleteSubtask(context.Background(), cardID, subtask.ID); err != nil {
				return actionMsg{err: err, status: "subtask delete failed", reload: true}
			}
			return actionMsg{status: "subtask deleted", reload: true}
		}
	case msg.Text == "e":
		m.mode = modeNone
		m.enterEditMode(card)
		return m, nil
	}
	return m, nil
}

// handleSubtaskAddKey drives the inline subtask prompt. Subtask creation
// commits immediately on confirm and is not deferred to any save.
func (m Model) handleSubtaskAddKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyEscape:
		m.mode = modeCardInfo
		m.subtaskInput.Blur()
		return m, nil
	case tea.KeyEnter:
		text := strings.TrimSpace(m.subtaskInput.Value())
		if text == "" {
			m.status = "subtask text required"
			return m, nil
		}
		m.mode = modeCardInfo
		m.subtaskInput.Blur()
		svc := m.svc
		cardID := m.infoCardID
		return m, func() tea.Msg {
			if _, err := svc.AddSubtask(context.Background(), cardID, text); err != nil {
				return actionMsg{err: err, status: "subtask add failed", reload: true}
			}
			return actionMsg{status: "subtask added", reload: true}
		}
	}
	var cmd tea.Cmd
	m.subtaskInput, cmd = m.subtaskInput.Update(msg)
	return m, cmd
}

// handleMouseWheel scrolls the card selection in the active column.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone {
		return m, nil
	}
	cards := m.visibleColumnCards(m.currentColumn())
	if len(cards) == 0 {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		if m.selectedCard > 0 {
			m.selectedCard--
		}
	case tea.MouseWheelDown:
		if m.selectedCard < len(cards)-1 {
			m.selectedCard++
		}
	}
	return m, nil
}

// currentColumn returns the column the selection rests on.
func (m Model) currentColumn() domain.Column {
	return domain.Columns[clamp(m.selectedColumn, 0, len(domain.Columns)-1)]
}

// selectedCardValue returns the selected card under the active filter.
func (m Model) selectedCardValue() (domain.Card, bool) {
	cards := m.visibleColumnCards(m.currentColumn())
	if len(cards) == 0 {
		return domain.Card{}, false
	}
	return cards[clamp(m.selectedCard, 0, len(cards)-1)], true
}

// visibleColumnCards returns a column's cards that pass the tag filter.
func (m Model) visibleColumnCards(column domain.Column) []domain.Card {
	cards := m.board.Cards(column)
	if !m.filter.Active() {
		return cards
	}
	out := make([]domain.Card, 0, len(cards))
	for _, card := range cards {
		if m.filter.Visible(card) {
			out = append(out, card)
		}
	}
	return out
}

// clampSelections clamps selections.
func (m *Model) clampSelections() {
	m.selectedColumn = clamp(m.selectedColumn, 0, len(domain.Columns)-1)
	cards := m.visibleColumnCards(m.currentColumn())
	if len(cards) == 0 {
		m.selectedCard = 0
		return
	}
	m.selectedCard = clamp(m.selectedCard, 0, len(cards)-1)
}

// exitEditMode drops edit state and returns to the board.
func (m *Model) exitEditMode() {
	if m.mode == modeEdit {
		m.mode = modeNone
	}
	m.edit.Reset()
}

// modeLabel names the active mode for the header.
func (m Model) modeLabel() string {
	switch m.mode {
	case modeNone:
		return "board"
	case modeEdit:
		return "edit"
	case modeNewCard:
		return "new card"
	case modeCardInfo:
		return "card"
	case modeFilter:
		return "filter"
	case modeTagManager:
		return "tags"
	case modeTagForm:
		return "tag form"
	case modeSubtaskAdd:
		return "subtask"
	case modeAlert:
		return "alert"
	default:
		return "board"
	}
}

// parsePositiveInt parses a positive integer, tolerating blanks.
func parsePositiveInt(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// truncate truncates the requested operation.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
