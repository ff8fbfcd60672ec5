package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/npratt/loanpoll/internal/events"
)

const followPollInterval = 100 * time.Millisecond

func newEventsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "View recent poller events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			session := a.v.GetString(FlagSession)

			if a.v.GetBool(FlagFollow) {
				return tailFollow(cmd.Context(), out, cfg.Paths.Events, session)
			}
			reader := events.NewLogReader(cfg.Paths.Events).WithLogger(a.logger)
			return tailLast(out, reader, a.v.GetInt(FlagCount), session)
		},
	}

	cmd.Flags().Bool(FlagFollow, false, "Follow event stream (like tail -f)")
	cmd.Flags().Int(FlagCount, 20, "Number of recent events to show")
	cmd.Flags().String(FlagSession, "", "Only show events from this watch session")
	bindFlags(a.v, cmd.Flags())

	return cmd
}

// tailLast prints the last n events, optionally limited to one session.
func tailLast(w io.Writer, reader *events.LogReader, n int, session string) error {
	var (
		evs []events.Event
		err error
	)
	if session != "" {
		evs, err = reader.ReadSession(session)
		if len(evs) > n {
			evs = evs[len(evs)-n:]
		}
	} else {
		evs, err = reader.ReadRecent(n)
	}

	switch {
	case errors.Is(err, events.ErrLogNotFound):
		_, _ = fmt.Fprintln(w, "No events yet (log file does not exist)")
		return nil
	case errors.Is(err, events.ErrLogEmpty):
		_, _ = fmt.Fprintln(w, "No events yet")
		return nil
	case err != nil:
		return fmt.Errorf("read event log: %w", err)
	}

	if len(evs) == 0 {
		_, _ = fmt.Fprintln(w, "No events yet")
		return nil
	}

	for _, ev := range evs {
		_, _ = fmt.Fprintln(w, events.FormatWithTimestamp(ev))
	}
	return nil
}

// waitForFile waits for a file to be created and returns the opened file.
func waitForFile(ctx context.Context, path string) (*os.File, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			file, err := os.Open(path)
			if err == nil {
				return file, nil
			}
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("open file: %w", err)
			}
		}
	}
}

// tailFollow prints events appended to the log until ctx is done.
func tailFollow(ctx context.Context, w io.Writer, path, session string) error {
	file, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("open log file: %w", err)
		}
		_, _ = fmt.Fprintln(w, "Waiting for log file to be created...")
		file, err = waitForFile(ctx, path)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	} else if _, err := file.Seek(0, io.SeekEnd); err != nil {
		_ = file.Close()
		return fmt.Errorf("seek to end: %w", err)
	}
	defer func() { _ = file.Close() }()

	_, _ = fmt.Fprintln(w, "Following events (Ctrl+C to stop)...")

	reader := bufio.NewReader(file)
	var partial []byte
	for {
		chunk, err := reader.ReadBytes('\n')
		partial = append(partial, chunk...)

		if err != nil {
			if !errors.Is(err, io.EOF) {
				return fmt.Errorf("read log: %w", err)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(followPollInterval):
			}
			continue
		}

		printEventLine(w, partial[:len(partial)-1], session)
		partial = nil
	}
}

// printEventLine prints one JSON line from the event log. Lines that are not
// events are printed as-is; events of unknown type are skipped.
func printEventLine(w io.Writer, line []byte, session string) {
	if len(line) == 0 {
		return
	}

	ev, err := events.ParseEvent(line)
	if err != nil {
		if session == "" {
			_, _ = fmt.Fprintln(w, string(line))
		}
		return
	}
	if ev == nil {
		return
	}
	if session != "" && events.SessionOf(ev) != session {
		return
	}
	_, _ = fmt.Fprintln(w, events.FormatWithTimestamp(ev))
}
