// Package banlog is the durable side of the ban set: an append-only,
// newline-delimited file of client keys. The in-memory set the guardian
// consults is a materialized view rebuilt from this file at startup.
package banlog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nasoro/gateway/internal/shared/models"
)

// Log is the append-only durable ban store. Appends are serialized and
// synced before being acknowledged so a crash immediately after an
// append cannot silently lose a ban. Clear truncates the file and is
// exclusive with respect to concurrent appends.
type Log struct {
	mu   sync.Mutex
	path string
}

func New(path string) *Log {
	return &Log{path: path}
}

// Load reads the full ban set from disk. A missing file means zero bans.
func (l *Log) Load() (map[string]struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	banned := make(map[string]struct{})

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return banned, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ban log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key := strings.TrimSpace(scanner.Text())
		if key != "" {
			banned[key] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ban log: %w", err)
	}

	return banned, nil
}

// Append durably records a ban. Only the client key is written; the
// file format (one key per line, human-inspectable) is part of the
// external contract.
func (l *Log) Append(rec models.BanRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create ban log dir: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ban log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(rec.ClientKey + "\n"); err != nil {
		return fmt.Errorf("append ban: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync ban log: %w", err)
	}

	return nil
}

// Clear overwrites the durable store with an empty one. Used by the
// administrative reset; the caller resets the in-memory view.
func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create ban log dir: %w", err)
	}
	if err := os.WriteFile(l.path, nil, 0o644); err != nil {
		return fmt.Errorf("clear ban log: %w", err)
	}
	return nil
}
