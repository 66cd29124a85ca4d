package domain

// Board is one full snapshot of the visible board: three ordered card
// sequences keyed by column. Order within a sequence is render order. The
// snapshot is fetched fresh from the server after every mutation; the client
// never computes a mutation's effect locally and trusts it.
type Board struct {
	Todo       []Card `json:"todo"`
	InProgress []Card `json:"in_progress"`
	Done       []Card `json:"done"`
}

// CardLocation pins one card to its column and index within a snapshot.
type CardLocation struct {
	Column Column
	Index  int
}

// Cards returns the ordered card sequence for one column.
func (b Board) Cards(col Column) []Card {
	switch col {
	case ColumnTodo:
		return b.Todo
	case ColumnInProgress:
		return b.InProgress
	case ColumnDone:
		return b.Done
	default:
		return nil
	}
}

// setCards replaces the card sequence for one column.
func (b *Board) setCards(col Column, cards []Card) {
	switch col {
	case ColumnTodo:
		b.Todo = cards
	case ColumnInProgress:
		b.InProgress = cards
	case ColumnDone:
		b.Done = cards
	}
}

// CardCount returns the total number of cards across all columns.
func (b Board) CardCount() int {
	return len(b.Todo) + len(b.InProgress) + len(b.Done)
}

// FindCard locates a card by id. A card belongs to exactly one column in any
// given snapshot, so the first hit is the only hit.
func (b Board) FindCard(id string) (Card, CardLocation, bool) {
	for _, col := range Columns {
		for idx, card := range b.Cards(col) {
			if card.ID == id {
				return card, CardLocation{Column: col, Index: idx}, true
			}
		}
	}
	return Card{}, CardLocation{}, false
}

// RemoveCard deletes a card from the snapshot in place and reports whether it
// was present. Used for the optimistic archive removal, the one mutation the
// client applies without a reload.
func (b *Board) RemoveCard(id string) bool {
	for _, col := range Columns {
		cards := b.Cards(col)
		for idx, card := range cards {
			if card.ID == id {
				b.setCards(col, append(cards[:idx:idx], cards[idx+1:]...))
				return true
			}
		}
	}
	return false
}

// ReplaceCard swaps the stored card with the same id for the given one,
// keeping column and position. Used to patch the edited card's local copy
// from the server's update response.
func (b *Board) ReplaceCard(updated Card) bool {
	for _, col := range Columns {
		cards := b.Cards(col)
		for idx, card := range cards {
			if card.ID == updated.ID {
				cards[idx] = updated
				return true
			}
		}
	}
	return false
}
