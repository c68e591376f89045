// Package history keeps a bounded linear undo/redo log of text snapshots.
package history

// DefaultLimit is the number of snapshots a Log retains.
const DefaultLimit = 50

// Log is a sliding window of snapshots with a cursor. It is not safe for
// concurrent use.
type Log struct {
	entries []string
	index   int
	limit   int
}

// New returns a log holding initial as its only entry. A limit below 1 uses
// DefaultLimit.
func New(initial string, limit int) *Log {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &Log{entries: []string{initial}, limit: limit}
}

// Record appends a user edit. Entries after the cursor are discarded and the
// oldest entry is evicted once the log exceeds its limit. Recording the
// current snapshot again is ignored.
func (l *Log) Record(body string) {
	if body == l.entries[l.index] {
		return
	}
	l.entries = append(l.entries[:l.index+1], body)
	if over := len(l.entries) - l.limit; over > 0 {
		l.entries = append(l.entries[:0], l.entries[over:]...)
	}
	l.index = len(l.entries) - 1
}

// Undo steps back and returns the snapshot to restore. ok is false at the
// oldest entry.
func (l *Log) Undo() (body string, ok bool) {
	if l.index == 0 {
		return "", false
	}
	l.index--
	return l.entries[l.index], true
}

// Redo steps forward and returns the snapshot to restore. ok is false at the
// newest entry.
func (l *Log) Redo() (body string, ok bool) {
	if l.index == len(l.entries)-1 {
		return "", false
	}
	l.index++
	return l.entries[l.index], true
}

func (l *Log) CanUndo() bool { return l.index > 0 }

func (l *Log) CanRedo() bool { return l.index < len(l.entries)-1 }

// Current returns the snapshot under the cursor.
func (l *Log) Current() string { return l.entries[l.index] }

func (l *Log) Len() int { return len(l.entries) }

func (l *Log) Index() int { return l.index }

// Oldest returns the earliest retained snapshot.
func (l *Log) Oldest() string { return l.entries[0] }
