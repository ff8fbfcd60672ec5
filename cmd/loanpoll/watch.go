package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/npratt/loanpoll/internal/config"
	"github.com/npratt/loanpoll/internal/events"
	"github.com/npratt/loanpoll/internal/poller"
	"github.com/npratt/loanpoll/internal/refresh"
	"github.com/npratt/loanpoll/internal/shutdown"
	"github.com/npratt/loanpoll/internal/source"
	"github.com/npratt/loanpoll/internal/status"
	"github.com/npratt/loanpoll/internal/tui"
)

const (
	shutdownTimeout = 10 * time.Second
	tuiEventBuffer  = 5000
)

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the configured status source",
		Long: `Watch fetches the status payload from the configured source and keeps it
fresh until interrupted. On a terminal it shows a status screen where 'r'
refreshes immediately and 'q' quits; otherwise each resolution is logged.

Use --tui=false to force plain output on a terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Explicit flag wins; otherwise enable the screen on a TTY
			tuiEnabled := a.v.GetBool(FlagTUI)
			if !cmd.Flags().Changed(FlagTUI) {
				tuiEnabled = term.IsTerminal(int(os.Stdout.Fd()))
			}

			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			fetcher, err := source.New(cfg.Source, nil)
			if err != nil {
				return fmt.Errorf("create source: %w", err)
			}

			if tuiEnabled {
				return a.watchTUI(cmd.Context(), cfg, fetcher)
			}
			return a.watchPlain(cmd.Context(), cfg, fetcher)
		},
	}

	cmd.Flags().Bool(FlagTUI, false, "Enable terminal UI")
	bindFlags(a.v, cmd.Flags())

	return cmd
}

// watchRun is the event plumbing and coordinator for one watch session.
type watchRun struct {
	session    string
	router     *events.Router
	sink       *events.LogSink
	sinkCancel context.CancelFunc
	coord      *poller.Coordinator
}

func newWatchRun(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*watchRun, error) {
	session := uuid.NewString()

	router := events.NewRouter(cfg.Polling.EventBuffer).WithLogger(logger)
	sink := events.NewLogSink(cfg.Paths.Events).WithLogger(logger)

	sinkCtx, sinkCancel := context.WithCancel(ctx)
	if err := sink.Start(sinkCtx, router.Subscribe()); err != nil {
		sinkCancel()
		router.Close()
		return nil, fmt.Errorf("start event log: %w", err)
	}

	coord := poller.New(
		poller.WithCodec(status.NewCodec(cfg.Codes)),
		poller.WithPolicy(refresh.Policy{FallbackCountdownSeconds: cfg.Polling.FallbackCountdownSeconds}),
		poller.WithTick(cfg.Polling.Tick),
		poller.WithMidCountdownEvery(cfg.Polling.MidCountdownEvery),
		poller.WithLogger(logger),
		poller.WithEmitter(router, session),
		poller.WithSourceKind(cfg.Source.Kind),
	)

	return &watchRun{
		session:    session,
		router:     router,
		sink:       sink,
		sinkCancel: sinkCancel,
		coord:      coord,
	}, nil
}

// stopPoller is a shutdown step that stops the coordinator.
func (w *watchRun) stopPoller(context.Context) error {
	w.coord.Stop()
	return nil
}

// closeEvents closes the router so the sink drains, then closes the log.
func (w *watchRun) closeEvents(context.Context) error {
	w.router.Close()
	err := w.sink.Stop()
	w.sinkCancel()
	return err
}

// close stops the coordinator before the router so poller.stop is logged.
func (w *watchRun) close(ctx context.Context) error {
	return shutdown.Sequence(w.stopPoller, w.closeEvents)(ctx)
}

func (a *app) watchPlain(ctx context.Context, cfg *config.Config, fetcher source.Fetcher) error {
	w, err := newWatchRun(ctx, cfg, a.logger)
	if err != nil {
		return err
	}

	a.logger.Info("loanpoll watching",
		"version", version,
		"session", w.session,
		"source", cfg.Source.Kind,
		"events_file", cfg.Paths.Events,
	)

	err = shutdown.RunWithGracefulShutdown(
		ctx,
		a.logger,
		shutdownTimeout,
		func(runCtx context.Context) error {
			if err := w.coord.Start(runCtx, fetcher.Fetch, a.logResolution); err != nil {
				return fmt.Errorf("initial fetch: %w", err)
			}
			<-runCtx.Done()
			return nil
		},
		w.stopPoller,
	)

	if closeErr := w.close(context.Background()); closeErr != nil {
		a.logger.Warn("failed to close event log", "error", closeErr)
	}
	return err
}

func (a *app) watchTUI(ctx context.Context, cfg *config.Config, fetcher source.Fetcher) error {
	// Redirect logs to a file before anything can write to the screen
	logResult, err := SetupTUILogger(cfg.Paths.Log, a.logLevel, cfg.LogRotation)
	if err != nil {
		return err
	}
	defer func() { _ = logResult.Close() }()
	logger := logResult.Logger
	slog.SetDefault(logger)

	w, err := newWatchRun(ctx, cfg, logger)
	if err != nil {
		return err
	}

	tuiEvents := w.router.SubscribeBuffered(tuiEventBuffer)

	tuiApp := tui.New(tuiEvents,
		tui.WithPoller(w.coord),
		tui.WithOnRefresh(func() error { return w.coord.RefreshNow(ctx) }),
		tui.WithOnQuit(w.coord.Stop),
	)

	// Initial fetch runs while the screen is already up
	startDone := make(chan struct{})
	go func() {
		defer close(startDone)
		if err := w.coord.Start(ctx, fetcher.Fetch, nil); err != nil {
			logger.Warn("initial fetch failed", "error", err)
		}
	}()

	tuiErr := tuiApp.Run()

	w.coord.Stop()
	<-startDone

	if closeErr := w.close(context.Background()); closeErr != nil {
		logger.Warn("failed to close event log", "error", closeErr)
	}
	return tuiErr
}

// logResolution is the plain-mode resolution callback.
func (a *app) logResolution(r status.Resolved) {
	s := status.Describe(r)

	attrs := []any{"stage", s.Stage}
	if s.Variant != "" {
		attrs = append(attrs, "variant", s.Variant)
	}
	if s.Kind != "" {
		attrs = append(attrs, "kind", s.Kind)
	}
	if s.EntryID != "" {
		attrs = append(attrs, "entry_id", s.EntryID)
	}
	if s.Product != "" {
		attrs = append(attrs, "product", s.Product)
	}
	if s.Entries > 0 {
		attrs = append(attrs, "entries", s.Entries)
	}
	if s.Code != nil {
		attrs = append(attrs, "code", *s.Code)
	}
	a.logger.Info("status resolved", attrs...)
}
