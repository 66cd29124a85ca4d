package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit          key.Binding
	reload        key.Binding
	toggleHelp    key.Binding
	moveLeft      key.Binding
	moveRight     key.Binding
	moveUp        key.Binding
	moveDown      key.Binding
	newCard       key.Binding
	cardInfo      key.Binding
	editCard      key.Binding
	archiveCard   key.Binding
	moveCardLeft  key.Binding
	moveCardRight key.Binding
	filter        key.Binding
	clearFilter   key.Binding
	tagManager    key.Binding
	toggleTheme   key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:      key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:     key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "card up")),
		moveDown:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "card down")),
		newCard:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new card")),
		cardInfo:      key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "card info")),
		editCard:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit card")),
		archiveCard:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "archive card")),
		moveCardLeft:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move card left")),
		moveCardRight: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move card right")),
		filter:        key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter by tag")),
		clearFilter:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filter")),
		tagManager:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "manage tags")),
		toggleTheme:   key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "toggle theme")),
	}
}

// applyKeyOverrides rebinds configurable keys from user preferences.
func (k *keyMap) applyKeyOverrides(newCard, filter, tagManager, toggleTheme string) {
	if newCard != "" {
		k.newCard = key.NewBinding(key.WithKeys(newCard), key.WithHelp(newCard, "new card"))
	}
	if filter != "" {
		k.filter = key.NewBinding(key.WithKeys(filter), key.WithHelp(filter, "filter by tag"))
	}
	if tagManager != "" {
		k.tagManager = key.NewBinding(key.WithKeys(tagManager), key.WithHelp(tagManager, "manage tags"))
	}
	if toggleTheme != "" {
		k.toggleTheme = key.NewBinding(key.WithKeys(toggleTheme), key.WithHelp(toggleTheme, "toggle theme"))
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.newCard, k.cardInfo, k.editCard, k.filter, k.tagManager, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.newCard, k.cardInfo, k.editCard, k.archiveCard, k.toggleHelp, k.reload, k.quit},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.moveCardLeft, k.moveCardRight},
		{k.filter, k.clearFilter, k.tagManager, k.toggleTheme},
	}
}
