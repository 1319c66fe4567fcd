// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

package plugin

import (
	"log/slog"
	"sync"
	"time"
)

// LogEntry is one line of the plugin execution console.
type LogEntry struct {
	Time     time.Time
	Severity Severity
	Message  string
}

// Console collects execution log events for display. Entries are kept in
// arrival order up to a fixed capacity; older entries are dropped first.
// A Console is safe for concurrent use: in-flight plugin calls complete
// in no particular order.
type Console struct {
	mu      sync.Mutex
	entries []LogEntry
	max     int
	logger  *slog.Logger
}

// defaultConsoleCapacity bounds how many entries a console retains.
const defaultConsoleCapacity = 500

// NewConsole creates a console. If logger is non-nil, every entry is
// mirrored to it.
func NewConsole(logger *slog.Logger) *Console {
	return &Console{max: defaultConsoleCapacity, logger: logger}
}

// Append records one entry, stamping it with the current time.
func (c *Console) Append(severity Severity, message string) {
	entry := LogEntry{Time: time.Now(), Severity: severity, Message: message}

	c.mu.Lock()
	c.entries = append(c.entries, entry)
	if len(c.entries) > c.max {
		c.entries = c.entries[len(c.entries)-c.max:]
	}
	c.mu.Unlock()

	if c.logger == nil {
		return
	}
	switch severity {
	case SeverityError:
		c.logger.Error(message)
	case SeverityWarning:
		c.logger.Warn(message)
	default:
		c.logger.Info(message)
	}
}

// Entries returns a snapshot of the console, oldest first.
func (c *Console) Entries() []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]LogEntry(nil), c.entries...)
}
