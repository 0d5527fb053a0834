package conversation

import "sync"

// PendingContext holds the most recently extracted document corpus until it is
// consumed by exactly one outgoing request. A new extraction overwrites any
// unconsumed value; a send drains it atomically so no two sends can observe
// the same corpus.
type PendingContext struct {
	mu     sync.Mutex
	corpus string
}

func NewPendingContext() *PendingContext {
	return &PendingContext{}
}

// Set overwrites the held corpus unconditionally.
func (p *PendingContext) Set(corpus string) {
	p.mu.Lock()
	p.corpus = corpus
	p.mu.Unlock()
}

// Drain returns the held corpus and resets the buffer in one step.
func (p *PendingContext) Drain() string {
	p.mu.Lock()
	corpus := p.corpus
	p.corpus = ""
	p.mu.Unlock()
	return corpus
}

// Empty reports whether no corpus is held.
func (p *PendingContext) Empty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.corpus == ""
}
