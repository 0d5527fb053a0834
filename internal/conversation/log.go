package conversation

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType identifies log change notifications sent to subscribers.
type EventType string

const (
	EventTurn    EventType = "turn"
	EventCleared EventType = "cleared"
)

// Event is a log change delivered to watchers (the websocket turn feed).
type Event struct {
	Type EventType `json:"type"`
	Turn *Turn     `json:"turn,omitempty"`
}

// Log is the append-only conversation history. Turns are never mutated or
// removed individually; the only destructive operation is a full Clear.
type Log struct {
	mu      sync.RWMutex
	turns   []Turn
	subs    map[int]chan Event
	nextSub int
}

func NewLog() *Log {
	return &Log{subs: make(map[int]chan Event)}
}

// Append adds a turn at the end of the log, assigning its ID and CreatedAt
// when unset, and returns the stored turn. It never fails.
func (l *Log) Append(t Turn) Turn {
	l.mu.Lock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	l.turns = append(l.turns, t)
	l.notifyLocked(Event{Type: EventTurn, Turn: &t})
	l.mu.Unlock()
	return t
}

// Snapshot returns a copy of the log in creation order. Mutating the returned
// slice has no effect on the log.
func (l *Log) Snapshot() []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}

// Clear empties the log.
func (l *Log) Clear() {
	l.mu.Lock()
	l.turns = nil
	l.notifyLocked(Event{Type: EventCleared})
	l.mu.Unlock()
}

// Subscribe registers a watcher for log events. The returned cancel func must
// be called to release the subscription. Events are dropped rather than
// blocking the log when a watcher falls behind.
func (l *Log) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)
	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch
	l.mu.Unlock()

	cancel := func() {
		l.mu.Lock()
		if sub, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(sub)
		}
		l.mu.Unlock()
	}
	return ch, cancel
}

func (l *Log) notifyLocked(e Event) {
	for _, ch := range l.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
