// Package accesslog provides best-effort sinks for the diagnostic
// request log. Recording must never block or fail the request pipeline:
// entries are handed to a background writer and dropped if it cannot
// keep up.
package accesslog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/nasoro/gateway/internal/shared/models"
)

// Sink accepts access log entries on a fire-and-forget basis.
type Sink interface {
	Record(entry models.AccessLogEntry)
	Close() error
}

// FileSink appends entries to a flat file through a buffered channel and
// a single writer goroutine. Entries are dropped when the buffer is
// full; write failures are logged and swallowed.
type FileSink struct {
	entries chan models.AccessLogEntry
	done    chan struct{}
	log     zerolog.Logger
}

const fileSinkBuffer = 256

func NewFileSink(path string, log zerolog.Logger) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create access log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open access log: %w", err)
	}

	s := &FileSink{
		entries: make(chan models.AccessLogEntry, fileSinkBuffer),
		done:    make(chan struct{}),
		log:     log,
	}

	go s.writeLoop(f)

	return s, nil
}

func (s *FileSink) writeLoop(f *os.File) {
	defer close(s.done)
	defer f.Close()

	for entry := range s.entries {
		line := fmt.Sprintf("%s\t%s\t%s\t%s\n",
			entry.Timestamp.UTC().Format(time.RFC3339),
			entry.ClientKey,
			entry.Method,
			entry.Path,
		)
		if _, err := f.WriteString(line); err != nil {
			s.log.Warn().Err(err).Msg("access log write failed")
		}
	}
}

// Record enqueues an entry. Drops it when the writer is backed up.
func (s *FileSink) Record(entry models.AccessLogEntry) {
	select {
	case s.entries <- entry:
	default:
	}
}

// Close flushes pending entries and stops the writer.
func (s *FileSink) Close() error {
	close(s.entries)
	<-s.done
	return nil
}
