// Package events is the fire-and-forget notification boundary consumed
// by external systems (audit log, search indexer). Delivery is
// best-effort, at-least-once at most from the consumer's perspective;
// the storage core never waits for or retries on subscriber failure.
package events

import (
	"sync"
	"time"
)

// Event names emitted by the storage core
const (
	FileUploaded        = "file.uploaded"
	FileDownloaded      = "file.downloaded"
	FileDeleted         = "file.deleted"
	FileRestored        = "file.restored"
	FileMoved           = "file.moved"
	FileCopied          = "file.copied"
	FileArchived        = "file.archived"
	FileMetadataUpdated = "file.metadata.updated"
	FolderCreated       = "folder.created"
	FolderDeleted       = "folder.deleted"
	BulkOperationDone   = "bulk.operation.completed"
	MultipartInitiated  = "file.multipart.initiated"
	MultipartCompleted  = "file.multipart.completed"
)

// Event is one notification with a minimal payload of ids and counters
type Event struct {
	Name      string                 `json:"name"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Notifier fans events out to subscriber channels
type Notifier struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewNotifier creates an event notifier with no subscribers
func NewNotifier() *Notifier {
	return &Notifier{subscribers: make(map[chan Event]struct{})}
}

// Subscribe adds a new subscriber and returns its event channel.
// The caller must call Unsubscribe when done.
func (n *Notifier) Subscribe() chan Event {
	ch := make(chan Event, 64)
	n.mu.Lock()
	n.subscribers[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel
func (n *Notifier) Unsubscribe(ch chan Event) {
	n.mu.Lock()
	delete(n.subscribers, ch)
	close(ch)
	n.mu.Unlock()
}

// Publish sends an event to all subscribers. Non-blocking: drops events
// for slow consumers.
func (n *Notifier) Publish(name string, payload map[string]interface{}) {
	event := Event{Name: name, Payload: payload, Timestamp: time.Now()}
	n.mu.RLock()
	defer n.mu.RUnlock()
	for ch := range n.subscribers {
		select {
		case ch <- event:
		default:
			// Drop event for slow consumer
		}
	}
}

// Count returns the current number of subscribers
func (n *Notifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subscribers)
}
