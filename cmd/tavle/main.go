package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	charmLog "github.com/charmbracelet/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"

	"github.com/hylla/tavle/internal/adapters/mcpapi"
	"github.com/hylla/tavle/internal/adapters/storage/sqlite"
	"github.com/hylla/tavle/internal/config"
	"github.com/hylla/tavle/internal/domain"
	"github.com/hylla/tavle/internal/gateway"
	"github.com/hylla/tavle/internal/live"
	"github.com/hylla/tavle/internal/platform"
	"github.com/hylla/tavle/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// main handles main.
func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	_ = godotenv.Load()

	fs := flag.NewFlagSet("tavle", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		configPath string
		serverURL  string
		appName    string
		devMode    bool
		showVer    bool
	)
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("TAVLE_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("TAVLE_APP_NAME")); envApp != "" {
		appName = envApp
	} else {
		appName = "tavle"
	}
	fs.StringVar(&configPath, "config", "", "path to config TOML")
	fs.StringVar(&serverURL, "server", "", "board server base URL")
	fs.StringVar(&appName, "app", appName, "application name for config/cache path resolution")
	fs.BoolVar(&devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	fs.BoolVar(&showVer, "version", false, "show version")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showVer {
		_, _ = fmt.Fprintf(stdout, "tavle %s\n", version)
		return nil
	}

	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: appName,
		DevMode: devMode,
	})
	if err != nil {
		return err
	}

	command := firstArg(fs.Args())
	switch command {
	case "paths":
		_, _ = fmt.Fprintf(stdout, "app: %s\n", appName)
		_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", devMode)
		_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
		_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
		_, _ = fmt.Fprintf(stdout, "cache: %s\n", paths.CachePath)
		return nil
	case "", "board", "tags", "archived", "mcp":
		// Continue.
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	serverOverridden := strings.TrimSpace(serverURL) != ""
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("TAVLE_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	if !serverOverridden {
		if envURL := strings.TrimSpace(os.Getenv("TAVLE_SERVER_URL")); envURL != "" {
			serverURL = envURL
			serverOverridden = true
		}
	}

	cfg, err := config.Load(configPath, config.Default(serverURL))
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}
	if serverOverridden {
		cfg.Server.BaseURL = serverURL
	}
	if token := strings.TrimSpace(os.Getenv("TAVLE_TOKEN")); token != "" {
		cfg.Server.Token = token
	}

	logger, err := newRuntimeLogger(stderr, appName, devMode, cfg.Logging, time.Now)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "" {
		// Keep TUI rendering clean: runtime logs stay in the dev-file sink while the board is active.
		logger.SetConsoleEnabled(false)
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil && logger.shouldLogToSink(logger.consoleSink) {
			_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
		}
	}()

	logger.Info("startup configuration resolved", "app", appName, "dev_mode", devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "cache_path", paths.CachePath)
	logger.Info("configuration loaded", "config_path", configPath, "server", cfg.Server.BaseURL, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	clientOpts := []gateway.Option{}
	if cfg.Server.Token != "" {
		clientOpts = append(clientOpts, gateway.WithToken(cfg.Server.Token))
	}
	client, err := gateway.New(cfg.Server.BaseURL, clientOpts...)
	if err != nil {
		return fmt.Errorf("configure board client: %w", err)
	}

	cache := openSnapshotCache(paths.CachePath, logger)
	if cache != nil {
		defer func() {
			if closeErr := cache.Close(); closeErr != nil {
				logger.Warn("snapshot cache close failed", "err", closeErr)
			}
		}()
	}

	switch command {
	case "board":
		logger.Info("command flow start", "command", "board")
		if err := runBoard(ctx, client, cache, cfg.Server.BaseURL, stdout); err != nil {
			logger.Error("command flow failed", "command", "board", "err", err)
			return fmt.Errorf("run board command: %w", err)
		}
		logger.Info("command flow complete", "command", "board")
		return nil
	case "tags":
		logger.Info("command flow start", "command", "tags")
		if err := runTags(ctx, client, cache, cfg.Server.BaseURL, stdout); err != nil {
			logger.Error("command flow failed", "command", "tags", "err", err)
			return fmt.Errorf("run tags command: %w", err)
		}
		logger.Info("command flow complete", "command", "tags")
		return nil
	case "archived":
		logger.Info("command flow start", "command", "archived")
		if err := runArchived(ctx, client, fs.Args()[1:], stdout); err != nil {
			logger.Error("command flow failed", "command", "archived", "err", err)
			return fmt.Errorf("run archived command: %w", err)
		}
		logger.Info("command flow complete", "command", "archived")
		return nil
	case "mcp":
		logger.Info("command flow start", "command", "mcp")
		srv, err := mcpapi.NewServer(mcpapi.Config{ServerName: appName, ServerVersion: version}, client)
		if err != nil {
			return fmt.Errorf("configure mcp server: %w", err)
		}
		if err := srv.ServeStdio(); err != nil {
			logger.Error("command flow failed", "command", "mcp", "err", err)
			return fmt.Errorf("serve mcp: %w", err)
		}
		logger.Info("command flow complete", "command", "mcp")
		return nil
	}

	listener := live.New(client.WebsocketURL(), live.WithLogger(logger.TUILogger()))

	modelOpts := []tui.Option{
		tui.WithLogger(logger.TUILogger()),
		tui.WithUIConfig(cfg.UI),
		tui.WithKeyConfig(cfg.Keys),
		tui.WithListener(listener),
	}
	if cache != nil {
		cachedBoard, fetchedAt, boardErr := cache.LoadBoard(ctx, cfg.Server.BaseURL)
		cachedTags, _, tagsErr := cache.LoadTags(ctx, cfg.Server.BaseURL)
		if boardErr == nil || tagsErr == nil {
			logger.Info("painting cached snapshot until first fetch", "fetched_at", fetchedAt)
			modelOpts = append(modelOpts, tui.WithCachedSnapshot(cachedBoard, cachedTags))
		}
		snapshotCache := cache
		serverURL := cfg.Server.BaseURL
		modelOpts = append(modelOpts, tui.WithSnapshotStore(func(board domain.Board, tags domain.Tags) {
			now := time.Now().UTC()
			if err := snapshotCache.StoreBoard(ctx, serverURL, board, now); err != nil {
				logger.Warn("board snapshot store failed", "err", err)
				return
			}
			if err := snapshotCache.StoreTags(ctx, serverURL, tags, now); err != nil {
				logger.Warn("tag snapshot store failed", "err", err)
			}
		}))
	}
	modelOpts = append(modelOpts,
		tui.WithThemeSaver(func(theme string) error {
			logger.Info("theme preference update requested", "theme", theme, "config_path", configPath)
			if err := config.UpsertTheme(configPath, theme); err != nil {
				logger.Error("theme preference update failed", "theme", theme, "err", err)
				return err
			}
			return nil
		}),
	)
	m := tui.NewModel(client, modelOpts...)

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	go func() {
		err := config.Watch(watchCtx, configPath, func() {
			logger.Info("config file changed on disk; restart to apply", "config_path", configPath)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Debug("config watch unavailable", "err", err)
		}
	}()

	logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("command flow complete", "command", "tui")
	return nil
}

// openSnapshotCache opens the local snapshot cache, degrading to nil when
// the cache cannot be used.
func openSnapshotCache(path string, logger *runtimeLogger) *sqlite.Cache {
	cache, err := sqlite.Open(path)
	if err != nil {
		logger.Warn("snapshot cache unavailable", "path", path, "err", err)
		return nil
	}
	return cache
}

// runBoard prints the current board, falling back to the cached snapshot
// when the server is unreachable.
func runBoard(ctx context.Context, client *gateway.Client, cache *sqlite.Cache, serverURL string, stdout io.Writer) error {
	board, err := client.FetchBoard(ctx)
	if err != nil {
		if cache == nil {
			return err
		}
		cached, fetchedAt, loadErr := cache.LoadBoard(ctx, serverURL)
		if loadErr != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "server unreachable; cached snapshot from %s\n\n", fetchedAt.Format(time.RFC3339))
		board = cached
	} else if cache != nil {
		if storeErr := cache.StoreBoard(ctx, serverURL, board, time.Now().UTC()); storeErr != nil {
			_, _ = fmt.Fprintf(stdout, "warning: cache snapshot: %v\n", storeErr)
		}
	}

	w := table.NewWriter()
	w.SetOutputMirror(stdout)
	w.AppendHeader(table.Row{"Column", "#", "Title", "Tags", "Due", "Est"})
	for _, column := range domain.Columns {
		for idx, card := range board.Cards(column) {
			est := ""
			if card.EstimatedTime != nil {
				est = strconv.Itoa(*card.EstimatedTime) + "m"
			}
			w.AppendRow(table.Row{
				column.DisplayName(),
				idx,
				card.Title,
				strings.Join(card.TagNames(), ","),
				card.DueDateValue(),
				est,
			})
		}
	}
	w.Render()
	return nil
}

// runTags prints the tag catalog, falling back to the cached snapshot when
// the server is unreachable.
func runTags(ctx context.Context, client *gateway.Client, cache *sqlite.Cache, serverURL string, stdout io.Writer) error {
	tags, err := client.FetchTags(ctx)
	if err != nil {
		if cache == nil {
			return err
		}
		cached, fetchedAt, loadErr := cache.LoadTags(ctx, serverURL)
		if loadErr != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "server unreachable; cached snapshot from %s\n\n", fetchedAt.Format(time.RFC3339))
		tags = cached
	} else if cache != nil {
		if storeErr := cache.StoreTags(ctx, serverURL, tags, time.Now().UTC()); storeErr != nil {
			_, _ = fmt.Fprintf(stdout, "warning: cache snapshot: %v\n", storeErr)
		}
	}

	w := table.NewWriter()
	w.SetOutputMirror(stdout)
	w.AppendHeader(table.Row{"ID", "Name", "Color"})
	for _, tag := range tags {
		w.AppendRow(table.Row{tag.ID, tag.Name, tag.DisplayColor()})
	}
	w.Render()
	return nil
}

// runArchived lists archived cards or restores one of them.
func runArchived(ctx context.Context, client *gateway.Client, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("tavle archived", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var restoreID string
	fs.StringVar(&restoreID, "restore", "", "card id to move back onto the board")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse archived flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected archived arguments: %v", fs.Args())
	}

	if restoreID != "" {
		card, err := client.UnarchiveCard(ctx, restoreID)
		if err != nil {
			return fmt.Errorf("unarchive card %q: %w", restoreID, err)
		}
		_, _ = fmt.Fprintf(stdout, "restored %q\n", card.Title)
		return nil
	}

	cards, err := client.FetchArchived(ctx)
	if err != nil {
		return err
	}
	w := table.NewWriter()
	w.SetOutputMirror(stdout)
	w.AppendHeader(table.Row{"ID", "Title", "Tags"})
	for _, card := range cards {
		w.AppendRow(table.Row{card.ID, card.Title, strings.Join(card.TagNames(), ",")})
	}
	w.Render()
	return nil
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// firstArg handles first arg.
func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// runtimeLogger fans log events to a styled console sink and an optional dev-file sink.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	devLog         string
}

// newRuntimeLogger configures runtime log sinks from CLI/config state.
func newRuntimeLogger(stderr io.Writer, appName string, devMode bool, cfg config.LoggingConfig, now func() time.Time) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}

	if now == nil {
		now = time.Now
	}
	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})

	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}
	if !devMode || !cfg.DevFile.Enabled {
		return logger, nil
	}

	devLogPath, err := devLogFilePath(cfg.DevFile.Dir, appName, now().UTC())
	if err != nil {
		return nil, fmt.Errorf("resolve dev log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(devLogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	logFile, err := os.OpenFile(devLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}

	// Keep file output parseable and unstyled while preserving styled console logs.
	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.closeFile = logFile.Close
	logger.devLog = devLogPath
	return logger, nil
}

// DevLogPath returns the active dev log file path.
func (l *runtimeLogger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devLog
}

// TUILogger returns the sink the board view should log through: the dev file
// when present, otherwise a muted logger so TUI rendering stays clean.
func (l *runtimeLogger) TUILogger() *charmLog.Logger {
	if l != nil && len(l.sinks) > 1 {
		return l.sinks[len(l.sinks)-1]
	}
	return charmLog.New(io.Discard)
}

// Close closes the optional dev-file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled toggles whether the console sink receives runtime events.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

// shouldLogToSink reports whether one sink should receive runtime output.
func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil {
		return false
	}
	if sink == nil {
		return false
	}
	if sink == l.consoleSink && !l.consoleEnabled {
		return false
	}
	return true
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Debug(msg, keyvals...)
	}
}

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Info(msg, keyvals...)
	}
}

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Warn(msg, keyvals...)
	}
}

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Error(msg, keyvals...)
	}
}

// devLogFilePath resolves a per-user dev log file path for the current run day.
func devLogFilePath(configDir, appName string, now time.Time) (string, error) {
	baseDir := strings.TrimSpace(configDir)
	if baseDir == "" {
		baseDir = "." + appName + "/log"
	}
	if !filepath.IsAbs(baseDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		baseDir = filepath.Join(cwd, baseDir)
	}
	name := fmt.Sprintf("%s-%s.log", appName, now.Format("2006-01-02"))
	return filepath.Join(baseDir, name), nil
}
