package revision

import (
	"sort"
	"sync"

	"ecobeehub/internal/core"
)

// Tracker remembers the last committed revision signature of each
// thermostat. Signatures only change through Commit and Reset.
type Tracker struct {
	mu         sync.RWMutex
	signatures map[string]core.Signature
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		signatures: make(map[string]core.Signature),
	}
}

// Diff returns the sorted ids that are already known and whose revision
// fields differ from the stored signature. Unknown ids are never reported.
func (t *Tracker) Diff(incoming map[string]core.Signature) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	changed := make([]string, 0)
	for id, sig := range incoming {
		stored, ok := t.signatures[id]
		if !ok {
			continue
		}
		if stored.RevisionsDiffer(sig) {
			changed = append(changed, id)
		}
	}
	sort.Strings(changed)
	return changed
}

// Unknown returns the sorted ids that have no stored signature
func (t *Tracker) Unknown(incoming map[string]core.Signature) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	unknown := make([]string, 0)
	for id := range incoming {
		if _, ok := t.signatures[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// Commit stores sig as the latest signature for its thermostat
func (t *Tracker) Commit(sig core.Signature) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.signatures[sig.ThermostatID] = sig
}

// Reset replaces every stored signature
func (t *Tracker) Reset(all map[string]core.Signature) {
	signatures := make(map[string]core.Signature, len(all))
	for id, sig := range all {
		signatures[id] = sig
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.signatures = signatures
}

// Get returns the stored signature for id
func (t *Tracker) Get(id string) (core.Signature, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sig, ok := t.signatures[id]
	return sig, ok
}

// Len returns the number of tracked thermostats
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.signatures)
}
