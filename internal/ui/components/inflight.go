// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"context"
	"sync"
	"time"
)

// Inflight tracks one outstanding backend call and its cancel function.
// Panes hold it by pointer so the copies bubbletea makes of a model share
// the same state.
type Inflight struct {
	mu     sync.Mutex
	seq    int
	id     int
	cancel context.CancelFunc
}

// Begin starts a new call and returns its context and id. A previous call
// still outstanding is cancelled.
func (r *Inflight) Begin(timeout time.Duration) (context.Context, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
	r.seq++
	r.id = r.seq
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	r.cancel = cancel
	return ctx, r.id
}

// Finish releases the call with the given id. It reports false when id is
// not the current call, so late results can be dropped.
func (r *Inflight) Finish(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == 0 || id != r.id {
		return false
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.id = 0
	return true
}

// Abort cancels the current call. Its result still arrives and goes
// through Finish.
func (r *Inflight) Abort() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return false
	}
	r.cancel()
	r.cancel = nil
	return true
}
