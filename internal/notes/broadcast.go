package notes

import (
	"sync"

	"notekeeper/internal/model"
)

// ChangeKind says what happened to a note.
type ChangeKind int

const (
	Refreshed ChangeKind = iota
	Created
	Updated
	Trashed
	Restored
	Deleted
)

func (k ChangeKind) String() string {
	switch k {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Trashed:
		return "trashed"
	case Restored:
		return "restored"
	case Deleted:
		return "deleted"
	default:
		return "refreshed"
	}
}

// Change is published after the store state moved. Note is zero for Refreshed.
type Change struct {
	Kind ChangeKind
	Note model.Note
}

// broadcaster fans changes out to subscribers.
type broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Change]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subscribers: make(map[chan Change]struct{})}
}

func (b *broadcaster) subscribe() chan Change {
	// buffered so a slow reader does not stall mutations
	ch := make(chan Change, 16)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[ch] = struct{}{}
	return ch
}

func (b *broadcaster) unsubscribe(ch chan Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; ok {
		close(ch)
		delete(b.subscribers, ch)
	}
}

// publish drops the change for subscribers whose buffer is full.
func (b *broadcaster) publish(c Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- c:
		default:
		}
	}
}
