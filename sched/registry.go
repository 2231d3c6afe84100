package sched

import "sync"

// Registry indexes cancellation tokens by job id so callers can cancel
// in-flight work they no longer need. The registry only coordinates: it
// never runs or preempts jobs.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	tokens map[JobID]Token
}

// NewRegistry creates an empty token registry.
func NewRegistry() *Registry {
	return &Registry{tokens: make(map[JobID]Token)}
}

// Register creates (or returns the existing) token for a job id.
func (r *Registry) Register(id JobID) Token {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tok, ok := r.tokens[id]; ok {
		return tok
	}
	tok := NewToken()
	r.tokens[id] = tok
	return tok
}

// Get returns the token registered for a job id, if any.
func (r *Registry) Get(id JobID) (Token, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tok, ok := r.tokens[id]
	return tok, ok
}

// Cancel cancels the token for a job id. Returns false if the id is not
// registered.
func (r *Registry) Cancel(id JobID) bool {
	r.mu.Lock()
	tok, ok := r.tokens[id]
	r.mu.Unlock()

	if ok {
		tok.Cancel()
	}
	return ok
}

// CancelMany cancels the tokens for all given job ids and returns how many
// were registered.
func (r *Registry) CancelMany(ids []JobID) int {
	count := 0
	for _, id := range ids {
		if r.Cancel(id) {
			count++
		}
	}
	return count
}

// CancelAll cancels every registered token and returns the count.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	tokens := make([]Token, 0, len(r.tokens))
	for _, tok := range r.tokens {
		tokens = append(tokens, tok)
	}
	r.mu.Unlock()

	for _, tok := range tokens {
		tok.Cancel()
	}
	return len(tokens)
}

// Unregister removes the token for a job id. The token itself stays valid
// for any holders; only the index entry is dropped.
func (r *Registry) Unregister(id JobID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[id]; !ok {
		return false
	}
	delete(r.tokens, id)
	return true
}

// Len returns the number of registered tokens.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// Clear drops all registered tokens without cancelling them.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = make(map[JobID]Token)
}
