package tui

import (
	"github.com/charmbracelet/log"

	"github.com/hylla/tavle/internal/config"
	"github.com/hylla/tavle/internal/domain"
	"github.com/hylla/tavle/internal/live"
)

// Option configures the model at construction time.
type Option func(*Model)

// WithLogger routes diagnostics to the given logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithTheme sets the initial palette.
func WithTheme(theme string) Option {
	return func(m *Model) {
		if theme == themeLight || theme == themeDark {
			m.theme = theme
		}
	}
}

// WithThemeSaver persists theme toggles through the given callback.
func WithThemeSaver(save SaveThemeFunc) Option {
	return func(m *Model) {
		m.saveTheme = save
	}
}

// WithCachedSnapshot seeds the board from a locally cached snapshot so the
// view paints before the first fetch lands. The snapshot is marked stale
// until a live fetch replaces it wholesale.
func WithCachedSnapshot(board domain.Board, tags domain.Tags) Option {
	return func(m *Model) {
		if board.CardCount() == 0 && len(tags) == 0 {
			return
		}
		m.board = board
		m.tags = tags
		m.stale = true
	}
}

// WithSnapshotStore persists each successfully fetched board and tag
// catalog through the given callback.
func WithSnapshotStore(store StoreSnapshotFunc) Option {
	return func(m *Model) {
		m.storeSnapshot = store
	}
}

// WithListener attaches a push-channel listener for live board updates.
func WithListener(listener *live.Listener) Option {
	return func(m *Model) {
		m.listener = listener
	}
}

// WithUIConfig applies display preferences from the config file.
func WithUIConfig(ui config.UIConfig) Option {
	return func(m *Model) {
		if ui.Theme == themeLight || ui.Theme == themeDark {
			m.theme = ui.Theme
		}
		m.showDescriptions = ui.ShowDescriptions
		m.showEstimates = ui.ShowEstimates
	}
}

// WithKeyConfig applies user key overrides.
func WithKeyConfig(keys config.KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyKeyOverrides(keys.NewCard, keys.Filter, keys.TagManager, keys.ToggleTheme)
	}
}
