package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	pomodoroinadapter "pomo/internal/modules/pomodoro/adapter/in"
	pomodorooutadapter "pomo/internal/modules/pomodoro/adapter/out"
	"pomo/internal/modules/pomodoro/domain"
	"pomo/internal/modules/pomodoro/dto"
	pomodoroout "pomo/internal/modules/pomodoro/port/out"
	pomodoroservice "pomo/internal/modules/pomodoro/service"
	pomodorousecase "pomo/internal/modules/pomodoro/usecase"
	"pomo/internal/platform/clock"
	"pomo/internal/platform/config"
	"pomo/internal/platform/id"
	"pomo/internal/platform/logging"
	"pomo/internal/platform/watcher"
	uiapp "pomo/internal/ui/app"
)

type App struct {
	CLI    pomodoroinadapter.CLIHandler
	TUI    pomodoroinadapter.TUIHandler
	Focus  *pomodoroinadapter.FocusObserver
	Sync   *pomodoroservice.SyncService
	Logger zerolog.Logger

	cfg     config.Config
	closers []io.Closer
	cancel  context.CancelFunc
	done    chan error
}

// New wires the store from cfg and restores persisted state. Call Start before
// issuing operations and Close before exiting so queued remote writes drain.
func New(cfg config.Config) (*App, error) {
	logger, logFile, err := logging.Open(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	app := &App{cfg: cfg, Logger: logger, closers: []io.Closer{logFile}}

	clk := clock.SystemClock{}
	ids := id.UUID{}

	remote, err := newRemote(cfg, clk, ids)
	if err != nil {
		_ = app.closeAll()
		return nil, fmt.Errorf("new remote store: %w", err)
	}

	// Interfaces stay nil without a remote; a typed nil would enable sync.
	var remotePort pomodoroout.RemoteSessionStore
	var dispatcher pomodoroout.SyncDispatcher
	if remote != nil {
		if closer, ok := remote.(io.Closer); ok {
			app.closers = append(app.closers, closer)
		}
		app.Sync = pomodoroservice.NewSyncService(remote, cfg.Sync.QueueSize, cfg.Remote.Timeout, logger)
		remotePort = remote
		dispatcher = app.Sync
	}

	opts := pomodorousecase.Options{
		MergeLocalHistory: cfg.History.MergeLocal,
		Identity:          pomodorooutadapter.NewFileIdentityStore(cfg.IdentityPath),
		Exporter:          pomodorooutadapter.NewMarkdownHistoryArchive(cfg.Archive.Dir, clk),
		Logger:            logger,
	}
	if cfg.Archive.Dir != "" {
		opts.Archive = pomodorooutadapter.NewMarkdownHistoryArchive(cfg.Archive.Dir, clk)
	}

	svc := pomodoroservice.NewPomodoroService(clk, id.Local{Prefix: "local-", Gen: ids}, map[domain.Mode]time.Duration{
		domain.ModeFocus:      cfg.Durations.Focus,
		domain.ModeShortBreak: cfg.Durations.ShortBreak,
		domain.ModeLongBreak:  cfg.Durations.LongBreak,
	})
	uc := pomodorousecase.NewInteractor(
		svc,
		pomodorooutadapter.NewFileSnapshotStore(cfg.StatePath, logger),
		remotePort,
		dispatcher,
		opts,
	)

	ctx := context.Background()
	if err := uc.LoadFromStorage(ctx); err != nil {
		logger.Warn().Err(err).Msg("load state")
	}
	if err := uc.RestoreIdentity(ctx); err != nil {
		logger.Warn().Err(err).Msg("restore identity")
	}
	if cleared, err := uc.ClearExpiredSession(ctx); err != nil {
		logger.Warn().Err(err).Msg("clear expired session")
	} else if cleared {
		logger.Info().Msg("discarded stale session")
	}

	app.CLI = pomodoroinadapter.NewCLIHandler(uc)
	app.TUI = pomodoroinadapter.NewTUIHandler(uc)
	app.Focus = pomodoroinadapter.NewFocusObserver(uc, clk)
	return app, nil
}

func newRemote(cfg config.Config, clk clock.Clock, ids id.Generator) (pomodoroout.RemoteSessionStore, error) {
	switch cfg.Remote.Kind {
	case config.RemoteSQLite:
		return pomodorooutadapter.NewSQLiteRemoteStore(cfg.Remote.DSN, cfg.Remote.Table, clk, ids)
	case config.RemotePostgres:
		return pomodorooutadapter.NewGormRemoteStore(cfg.Remote.DSN, cfg.Remote.Table, clk, ids)
	case config.RemoteREST:
		return pomodorooutadapter.NewPostgRESTRemoteStore(cfg.Remote.URL, cfg.Remote.Table, cfg.Remote.APIKey, cfg.Remote.Timeout)
	default:
		return nil, nil
	}
}

// Start launches the sync worker, if any.
func (a *App) Start(ctx context.Context) {
	if a.Sync == nil || a.done != nil {
		return
	}
	ctx, a.cancel = context.WithCancel(ctx)
	a.done = make(chan error, 1)
	go func() { a.done <- a.Sync.Run(ctx) }()
}

// Close drains queued remote writes for up to Sync.DrainTimeout and releases
// stores and the log file.
func (a *App) Close() error {
	var errs []error
	if a.Sync != nil {
		a.Start(context.Background())
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Sync.DrainTimeout)
		if err := a.Sync.Close(ctx); err != nil {
			stats := a.Sync.Stats()
			a.Logger.Warn().Err(err).Int("pending", stats.Pending).Msg("sync queue not drained")
			errs = append(errs, fmt.Errorf("drain sync queue: %w", err))
		}
		cancel()
		if a.cancel != nil {
			a.cancel()
			<-a.done
		}
	}
	errs = append(errs, a.closeAll())
	return errors.Join(errs...)
}

func (a *App) closeAll() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

type statsSource interface {
	Stats() dto.SyncStats
}

// RunTUI runs the terminal UI next to the state file watcher. The watcher
// stops when the UI exits; the sync worker keeps running until Close.
func RunTUI(app *App) error {
	app.Start(context.Background())
	var stats statsSource
	if app.Sync != nil {
		stats = app.Sync
	}
	model := uiapp.NewModel(app.TUI, app.Focus, stats)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus())

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w := watcher.New(app.cfg.StatePath, func() { program.Send(uiapp.ReloadMsg{}) }, app.Logger)
		if err := w.Run(ctx); err != nil {
			app.Logger.Warn().Err(err).Msg("state watcher stopped")
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		return err
	})
	return g.Wait()
}
