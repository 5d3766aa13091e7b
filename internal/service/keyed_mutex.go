package service

import "sync"

// keyedMutex serializes work per key so unrelated users or channel pairs
// never contend on a shared lock. Entries are never evicted: the map grows
// with the set of distinct keys seen over the process lifetime, which is
// bounded by the active user and channel population.
type keyedMutex struct {
	locks sync.Map
}

// lock acquires the mutex for the key and returns its unlock func.
func (k *keyedMutex) lock(key string) func() {
	value, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
