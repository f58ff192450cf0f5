// Package activity keeps the recent operational history of the service in memory.
//
// The log is bounded: once it is full the oldest are evicted first.
// Nothing survives a restart.
package activity

import (
	"fmt"
	"sync"
	"time"

	"payment-failure-monitor/internal/helpers/logs"
	"payment-failure-monitor/internal/types"
)

const (
	DefaultCapacity = 100
	DefaultWindow   = 20
)

type Entry struct {
	Time    string `json:"time"`
	Message string `json:"message"`
}

type Log struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	now      func() time.Time
	echo     func(Entry)
}

// New builds a log retaining at most capacity entries. A non-positive capacity
// falls back to DefaultCapacity.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
		now:      time.Now,
		echo: func(e Entry) {
			logs.Printf("%s: %s", e.Time, e.Message)
		},
	}
}

// Record appends a timestamped message, evicting the oldest entry when full.
func (l *Log) Record(message string) {
	l.mu.Lock()
	entry := Entry{Time: types.ISOTime(l.now()), Message: message}
	if len(l.entries) == l.capacity {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:len(l.entries)-1]
	}
	l.entries = append(l.entries, entry)
	echo := l.echo
	l.mu.Unlock()

	if echo != nil {
		echo(entry)
	}
}

func (l *Log) Recordf(format string, args ...any) {
	l.Record(fmt.Sprintf(format, args...))
}

// ReadRecent returns up to n of the newest entries in chronological order.
func (l *Log) ReadRecent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 {
		return []Entry{}
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Messages returns every retained message, oldest first.
func (l *Log) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Message
	}
	return out
}
