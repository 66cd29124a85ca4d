package tui

import "testing"

func TestKeyMapHelp(t *testing.T) {
	k := newKeyMap()
	if len(k.ShortHelp()) == 0 {
		t.Fatal("expected short help bindings")
	}
	rows := k.FullHelp()
	if len(rows) != 3 {
		t.Fatalf("expected 3 help rows, got %d", len(rows))
	}
	for _, row := range rows {
		if len(row) == 0 {
			t.Fatal("expected non-empty help row")
		}
	}
}

func TestKeyMapOverrides(t *testing.T) {
	k := newKeyMap()
	k.applyKeyOverrides("c", "/", "t", "")
	if got := k.newCard.Keys(); len(got) != 1 || got[0] != "c" {
		t.Fatalf("expected new card rebound to c, got %v", got)
	}
	if got := k.filter.Keys(); len(got) != 1 || got[0] != "/" {
		t.Fatalf("expected filter rebound to /, got %v", got)
	}
	if got := k.toggleTheme.Keys(); len(got) != 1 || got[0] != "T" {
		t.Fatalf("expected theme binding untouched, got %v", got)
	}
}
