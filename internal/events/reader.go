package events

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"
)

const (
	// maxLineSize bounds a single JSON line (1MB).
	maxLineSize = 1 << 20

	truncationMarker = "...[TRUNCATED]"
)

var (
	// ErrLogNotFound is returned when the event log does not exist.
	ErrLogNotFound = errors.New("event log not found")

	// ErrLogEmpty is returned when the event log has no content.
	ErrLogEmpty = errors.New("event log is empty")
)

// LogReader reads events back from the file written by LogSink.
type LogReader struct {
	path   string
	logger *slog.Logger
}

// NewLogReader creates a LogReader for the given event log path.
func NewLogReader(path string) *LogReader {
	return &LogReader{path: path, logger: slog.Default()}
}

// WithLogger sets the logger used to report malformed lines.
func (r *LogReader) WithLogger(logger *slog.Logger) *LogReader {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// ReadRecent returns the last n events in the log.
func (r *LogReader) ReadRecent(n int) ([]Event, error) {
	if n <= 0 {
		return nil, nil
	}

	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) <= n {
		return all, nil
	}
	return all[len(all)-n:], nil
}

// ReadSession returns the events stamped with the given watch session.
func (r *LogReader) ReadSession(session string) ([]Event, error) {
	if session == "" {
		return nil, nil
	}

	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	var filtered []Event
	for _, ev := range all {
		if SessionOf(ev) == session {
			filtered = append(filtered, ev)
		}
	}
	return filtered, nil
}

// ReadAfter returns events strictly newer than t.
func (r *LogReader) ReadAfter(t time.Time) ([]Event, error) {
	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	var filtered []Event
	for _, ev := range all {
		if ev.Timestamp().After(t) {
			filtered = append(filtered, ev)
		}
	}
	return filtered, nil
}

// ReadAll parses every known event in the log. Lines of unknown type are
// skipped. A malformed final line is treated as a write still in progress
// and skipped quietly; malformed lines elsewhere are logged and skipped.
func (r *LogReader) ReadAll() ([]Event, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrLogNotFound
		}
		return nil, err
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, ErrLogEmpty
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	var (
		result  []Event
		pending []byte
		lineNum int
	)

	flush := func(line []byte, last bool) {
		ev, err := ParseEvent(line)
		if err != nil {
			if !last {
				r.logger.Warn("skipping malformed event line",
					"line", lineNum,
					"error", err,
					"preview", truncateForLog(string(line), 100))
			}
			return
		}
		if ev != nil {
			result = append(result, ev)
		}
	}

	for {
		line, err := readLine(reader)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			continue
		}
		if pending != nil {
			flush(pending, false)
		}
		pending = line
		lineNum++
	}
	if pending != nil {
		flush(pending, true)
	}

	return result, nil
}

// readLine reads one line, truncating lines longer than maxLineSize.
func readLine(reader *bufio.Reader) ([]byte, error) {
	var line []byte

	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && len(line) > 0 {
				return line, nil
			}
			return line, err
		}

		line = append(line, chunk...)

		if len(line) > maxLineSize {
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err != nil {
					break
				}
			}

			truncated := make([]byte, maxLineSize)
			copy(truncated, line[:maxLineSize-len(truncationMarker)])
			copy(truncated[maxLineSize-len(truncationMarker):], truncationMarker)
			return truncated, nil
		}

		if !isPrefix {
			return line, nil
		}
	}
}

func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
