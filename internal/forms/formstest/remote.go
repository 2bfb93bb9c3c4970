// Package formstest provides in-memory stand-ins for form storage.
package formstest

import (
	"context"
	"sync"

	"github.com/hausee/navigator-backend/internal/forms"
)

// Write is one call observed by Remote.Upsert.
type Write struct {
	Table string
	Key   forms.ScopeKey
	Rec   forms.RawRecord
}

// Remote is an in-memory RemoteStore that records every upsert and can
// be told to fail or block.
type Remote struct {
	mu      sync.Mutex
	rows    map[string]forms.RawRecord
	writes  []Write
	failErr error
	getErr  error
	gate    chan struct{}
	entered chan struct{}
}

func NewRemote() *Remote {
	return &Remote{rows: map[string]forms.RawRecord{}}
}

func rowKey(table string, key forms.ScopeKey) string {
	return table + "|" + key.String()
}

// FailWith makes subsequent upserts return err; nil clears it.
func (r *Remote) FailWith(err error) {
	r.mu.Lock()
	r.failErr = err
	r.mu.Unlock()
}

// FailReadsWith makes subsequent Get calls return err; nil clears it.
func (r *Remote) FailReadsWith(err error) {
	r.mu.Lock()
	r.getErr = err
	r.mu.Unlock()
}

// Block makes the next upserts wait until Release. Entered receives once
// per upsert that reached the gate.
func (r *Remote) Block() (entered <-chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gate = make(chan struct{})
	r.entered = make(chan struct{}, 16)
	return r.entered
}

func (r *Remote) Release() {
	r.mu.Lock()
	gate := r.gate
	r.gate = nil
	r.mu.Unlock()
	if gate != nil {
		close(gate)
	}
}

// Seed stores rec as if it had been written earlier.
func (r *Remote) Seed(table string, key forms.ScopeKey, rec forms.RawRecord) {
	r.mu.Lock()
	r.rows[rowKey(table, key)] = rec
	r.mu.Unlock()
}

func (r *Remote) Upsert(ctx context.Context, table string, key forms.ScopeKey, rec forms.RawRecord) error {
	r.mu.Lock()
	gate, entered := r.gate, r.entered
	r.mu.Unlock()
	if gate != nil {
		entered <- struct{}{}
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, Write{Table: table, Key: key, Rec: rec})
	if r.failErr != nil {
		return r.failErr
	}
	r.rows[rowKey(table, key)] = rec
	return nil
}

func (r *Remote) Get(ctx context.Context, table string, key forms.ScopeKey) (*forms.RawRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	rec, ok := r.rows[rowKey(table, key)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Writes returns every attempted upsert in order, failed ones included.
func (r *Remote) Writes() []Write {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Write(nil), r.writes...)
}
