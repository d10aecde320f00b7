package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"pomo/internal/bootstrap"
	pomodoroinadapter "pomo/internal/modules/pomodoro/adapter/in"
	"pomo/internal/modules/pomodoro/dto"
	"pomo/internal/platform/config"
	apperrors "pomo/internal/platform/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	dataDir    string
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "pomo",
		Short:         "Pomodoro timer with coins and synced history",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "state directory (default ~/.pomo)")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default <data-dir>/config.yaml)")

	root.AddCommand(newTUICmd(opts))
	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newStartCmd(opts))
	root.AddCommand(newPauseCmd(opts))
	root.AddCommand(newResumeCmd(opts))
	root.AddCommand(newCompleteCmd(opts))
	root.AddCommand(newTickCmd(opts))
	root.AddCommand(newPenalizeCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newCoinsCmd(opts))
	root.AddCommand(newLoginCmd(opts))
	root.AddCommand(newLogoutCmd(opts))
	root.AddCommand(newClearExpiredCmd(opts))
	return root
}

func loadApp(opts *rootOptions) (*bootstrap.App, error) {
	dataDir := opts.dataDir
	if strings.TrimSpace(dataDir) == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dataDir = filepath.Join(home, ".pomo")
	}
	cfg, err := config.Load(dataDir, opts.configPath, opts.configPath != "")
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg)
}

// withApp runs fn with a started app and always drains it afterwards. The
// sync worker outlives an interrupt so the final writes still go out.
func withApp(opts *rootOptions, fn func(ctx context.Context, app *bootstrap.App) error) (err error) {
	app, err := loadApp(opts)
	if err != nil {
		return err
	}
	app.Start(context.Background())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() {
		if closeErr := app.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(ctx, app)
}

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the pomo terminal UI",
		RunE: func(_ *cobra.Command, _ []string) (err error) {
			app, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := app.Close(); closeErr != nil && err == nil {
					err = closeErr
				}
			}()
			return bootstrap.RunTUI(app)
		},
	}
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var mode, title string
	var duration time.Duration
	run := &cobra.Command{
		Use:   "run",
		Short: "Tick the current session in the foreground, starting one if idle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				w := cmd.OutOrStdout()
				state := app.CLI.State(ctx)
				switch {
				case !state.Session.Active:
					out, err := app.CLI.Start(ctx, mode, duration, title)
					if err != nil {
						return err
					}
					printSession(w, out)
				case state.Session.Status == "paused":
					out, err := app.CLI.Resume(ctx)
					if err != nil {
						return err
					}
					printSession(w, out)
				}

				driver := pomodoroinadapter.NewTickDriver(app.CLI, time.Second, func(out dto.TickOutput) {
					if !out.Completed {
						_, _ = fmt.Fprintf(w, "\r%s remaining ", clock(out.Session.Remaining))
					}
				})
				last, err := driver.Run(ctx)
				_, _ = fmt.Fprintln(w)
				if errors.Is(err, context.Canceled) {
					if _, pauseErr := app.CLI.Pause(context.Background()); pauseErr != nil {
						return pauseErr
					}
					_, _ = fmt.Fprintln(w, "interrupted, session paused")
					return nil
				}
				if err != nil {
					return err
				}
				if last.Completed {
					printCompletion(w, last.Completion)
				}
				return nil
			})
		},
	}
	run.Flags().StringVar(&mode, "mode", "focus", "mode when starting: focus|short_break|long_break")
	run.Flags().DurationVar(&duration, "duration", 0, "duration when starting (default from config)")
	run.Flags().StringVar(&title, "title", "", "session title")
	return run
}

func newStartCmd(opts *rootOptions) *cobra.Command {
	var mode, title string
	var duration time.Duration
	start := &cobra.Command{
		Use:   "start",
		Short: "Start a new session, replacing any current one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.CLI.Start(ctx, mode, duration, title)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	start.Flags().StringVar(&mode, "mode", "focus", "session mode: focus|short_break|long_break")
	start.Flags().DurationVar(&duration, "duration", 0, "session length (default from config)")
	start.Flags().StringVar(&title, "title", "", "session title")
	return start
}

func newPauseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the running session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.CLI.Pause(ctx)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newResumeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume the paused session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.CLI.Resume(ctx)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newCompleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "complete",
		Short: "Finish the current session now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.CLI.Complete(ctx)
				if err != nil {
					return err
				}
				printCompletion(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newTickCmd(opts *rootOptions) *cobra.Command {
	var count int
	tick := &cobra.Command{
		Use:   "tick",
		Short: "Advance the running session by whole seconds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be positive")
			}
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				w := cmd.OutOrStdout()
				for i := 0; i < count; i++ {
					out, err := app.CLI.Tick(ctx)
					if err != nil {
						return err
					}
					if out.Completed {
						printCompletion(w, out.Completion)
						return nil
					}
					if out.Session.Status != "running" {
						break
					}
				}
				printSession(w, app.CLI.State(ctx).Session)
				return nil
			})
		},
	}
	tick.Flags().IntVar(&count, "count", 1, "number of seconds to advance")
	return tick
}

func newPenalizeCmd(opts *rootOptions) *cobra.Command {
	var seconds int
	penalize := &cobra.Command{
		Use:   "penalize --seconds <n>",
		Short: "Record time spent away from the timer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.CLI.Penalize(ctx, seconds)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	penalize.Flags().IntVar(&seconds, "seconds", 0, "seconds of lost focus")
	return penalize
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	status := &cobra.Command{
		Use:   "status",
		Short: "Show the current session, coins and sync queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				w := cmd.OutOrStdout()
				state := app.CLI.State(ctx)
				if asJSON {
					raw, err := json.MarshalIndent(state, "", "  ")
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintln(w, string(raw))
					return nil
				}
				printSession(w, state.Session)
				user := state.UserID
				if user == "" {
					user = "-"
				}
				_, _ = fmt.Fprintf(w, "coins=%d history=%d user=%s\n", state.Coins, len(state.History), user)
				if app.Sync != nil {
					stats := app.Sync.Stats()
					_, _ = fmt.Fprintf(w, "sync pending=%d applied=%d failed=%d dropped=%d\n", stats.Pending, stats.Applied, stats.Failed, stats.Dropped)
				}
				return nil
			})
		},
	}
	status.Flags().BoolVar(&asJSON, "json", false, "print the full state as JSON")
	return status
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	var syncRemote bool
	history := &cobra.Command{
		Use:   "history",
		Short: "List finished sessions, most recent first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				w := cmd.OutOrStdout()
				if syncRemote {
					if err := app.CLI.SyncHistory(ctx); err != nil {
						return err
					}
				}
				items := app.CLI.State(ctx).History
				if len(items) == 0 {
					_, _ = fmt.Fprintln(w, "no history")
					return nil
				}
				if limit > 0 && len(items) > limit {
					items = items[:limit]
				}
				for _, item := range items {
					valid := "valid"
					if !item.IsValid {
						valid = "invalid:" + item.InvalidReason
					}
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s/%s\t%s\n", item.ID, item.End.Local().Format("2006-01-02 15:04"), item.Mode, clock(item.ActualDuration), clock(item.Duration), valid)
				}
				return nil
			})
		},
	}
	history.Flags().IntVar(&limit, "limit", 20, "maximum entries to print (0 for all)")
	history.Flags().BoolVar(&syncRemote, "sync", false, "load history from the remote store first")

	history.AddCommand(&cobra.Command{
		Use:   "export <path>",
		Short: "Write history into a markdown note, keeping the rest of the note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.CLI.ExportHistory(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d sessions to %s\n", out.Sessions, out.Path)
				return nil
			})
		},
	})
	return history
}

func newCoinsCmd(opts *rootOptions) *cobra.Command {
	coins := &cobra.Command{
		Use:   "coins",
		Short: "Show the coin balance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "coins=%d\n", app.CLI.State(ctx).Coins)
				return nil
			})
		},
	}
	coins.AddCommand(&cobra.Command{
		Use:   "add <amount>",
		Short: "Adjust the coin balance (negative amounts spend coins)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: amount must be an integer", apperrors.ErrInvalidInput)
			}
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.CLI.AddCoins(ctx, amount)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "coins=%d\n", out.Coins)
				return nil
			})
		},
	})
	return coins
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var userID string
	login := &cobra.Command{
		Use:   "login --user <id>",
		Short: "Set the user whose sessions are synced",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(userID) == "" {
				return fmt.Errorf("--user is required")
			}
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.CLI.Login(ctx, userID); err != nil {
					return err
				}
				state := app.CLI.State(ctx)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s, history=%d\n", state.UserID, len(state.History))
				return nil
			})
		},
	}
	login.Flags().StringVar(&userID, "user", "", "user id")
	return login
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Stop syncing sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.CLI.Logout(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signed out")
				return nil
			})
		},
	}
}

func newClearExpiredCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-expired",
		Short: "Discard a session left over for more than a day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				cleared, err := app.CLI.ClearExpired(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cleared=%t\n", cleared)
				return nil
			})
		},
	}
}

func printSession(w io.Writer, s dto.SessionOutput) {
	if !s.Active {
		_, _ = fmt.Fprintln(w, "no active session")
		return
	}
	validity := "valid"
	if !s.IsValid {
		validity = "invalid:" + s.InvalidReason
	}
	_, _ = fmt.Fprintf(w, "%s %s %q %s/%s lost_focus=%ds %s id=%s\n", s.Mode, s.Status, s.Title, clock(s.Remaining), clock(s.Duration), s.LostFocusSeconds, validity, s.ID)
}

func printCompletion(w io.Writer, out dto.CompleteOutput) {
	item := out.Item
	if item.IsValid {
		_, _ = fmt.Fprintf(w, "completed %s in %s, +%d coins (total %d)\n", item.Mode, clock(item.ActualDuration), out.CoinsAwarded, out.Coins)
		return
	}
	_, _ = fmt.Fprintf(w, "completed %s in %s, no coins (%s), total %d\n", item.Mode, clock(item.ActualDuration), item.InvalidReason, out.Coins)
}

func clock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
