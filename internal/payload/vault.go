package payload

import "sync"

// Vault holds raw document bytes in memory, keyed by job ID. Large payloads
// are deliberately kept out of the durable store; a job's bytes must be
// present here for as long as it is pending or processing, and the scheduler
// drops them on every terminal transition to bound memory.
type Vault struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewVault() *Vault {
	return &Vault{data: make(map[string][]byte)}
}

func (v *Vault) Put(id string, data []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.data[id] = data
}

// Get returns the payload for id, or false if it is not held. The bytes are
// shared, not copied; callers must treat them as read-only.
func (v *Vault) Get(id string) ([]byte, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	data, ok := v.data[id]
	return data, ok
}

// Delete is idempotent.
func (v *Vault) Delete(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.data, id)
}

// Len reports how many payloads are currently held.
func (v *Vault) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.data)
}
