package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Sink consumes events from the router.
type Sink interface {
	Start(ctx context.Context, events <-chan Event) error
	Stop() error
}

// LogSink appends events to a JSON lines file. The events command reads the
// same file back.
type LogSink struct {
	path    string
	logger  *slog.Logger
	file    *os.File
	encoder *json.Encoder
	written int
	mu      sync.Mutex
	done    chan struct{}
}

// NewLogSink creates a new LogSink that writes to the specified path.
func NewLogSink(path string) *LogSink {
	return &LogSink{
		path:   path,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
}

// WithLogger sets the logger used for write failures.
func (s *LogSink) WithLogger(logger *slog.Logger) *LogSink {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Start opens the log file and begins processing events.
// It runs until the context is canceled or the events channel is closed.
func (s *LogSink) Start(ctx context.Context, events <-chan Event) error {
	if err := s.openFile(); err != nil {
		return err
	}

	go s.run(ctx, events)
	return nil
}

// largeLogThreshold is the size above which rotation warns about old backups.
const largeLogThreshold = 50 * 1024 * 1024

func (s *LogSink) openFile() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create event log directory: %w", err)
	}

	if err := s.rotateExistingLog(); err != nil {
		return err
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}

	s.mu.Lock()
	s.file = file
	s.encoder = json.NewEncoder(file)
	s.mu.Unlock()

	return nil
}

// rotateExistingLog moves a non-empty log aside with a timestamp suffix so
// each watch session starts with a fresh file and tail -f keeps working.
func (s *LogSink) rotateExistingLog() error {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat event log: %w", err)
	}

	if info.Size() == 0 {
		return nil
	}

	if info.Size() > largeLogThreshold {
		s.logger.Warn("large event log, consider removing old .bak files",
			"size_mb", info.Size()/(1024*1024),
			"dir", filepath.Dir(s.path))
	}

	bakPath := fmt.Sprintf("%s.%s.bak", s.path, time.Now().Format("2006-01-02T15-04-05"))
	if err := os.Rename(s.path, bakPath); err != nil {
		return fmt.Errorf("rotate event log: %w", err)
	}

	return nil
}

func (s *LogSink) run(ctx context.Context, events <-chan Event) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			s.drain(events)
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.write(event)
		}
	}
}

// drain writes whatever is already buffered without waiting for more.
func (s *LogSink) drain(events <-chan Event) {
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			s.write(event)
		default:
			return
		}
	}
}

func (s *LogSink) write(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encoder == nil {
		return
	}

	if err := s.encoder.Encode(event); err != nil {
		s.logger.Error("write event", "type", event.Type(), "error", err)
		return
	}
	s.written++
}

// Stop waits for the run loop to exit and closes the log file.
func (s *LogSink) Stop() error {
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		s.encoder = nil
		return err
	}
	return nil
}

// Written returns the number of events successfully written.
func (s *LogSink) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Path returns the log file path.
func (s *LogSink) Path() string {
	return s.path
}
