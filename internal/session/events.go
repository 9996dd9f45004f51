package session

import "sync"

// StatusPublisher receives a snapshot on every state transition.
// Implementations should be lightweight and non-blocking; Publish must not
// panic.
type StatusPublisher interface {
	Publish(Snapshot)
}

// noopPublisher is the default; it drops snapshots.
type noopPublisher struct{}

func (noopPublisher) Publish(Snapshot) {}

// MemoryPublisher stores snapshots in-memory for tests and polling callers.
type MemoryPublisher struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(s Snapshot) {
	p.mu.Lock()
	p.snapshots = append(p.snapshots, s)
	p.mu.Unlock()
}

func (p *MemoryPublisher) Snapshots() []Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Snapshot, len(p.snapshots))
	copy(out, p.snapshots)
	return out
}
