package store

// snapshotItem records one entry's state at capture time. Keys that
// had no entry are recorded as absent so Restore can remove entries
// an optimistic patch created.
type snapshotItem struct {
	key     Key
	entry   Entry
	existed bool
}

// Snapshot is a verbatim capture of a set of entries, in capture
// order. Taken by the mutation coordinator before an optimistic
// apply; consumed at most once by Restore.
type Snapshot struct {
	items []snapshotItem
}

// Len returns the number of captured keys.
func (sn Snapshot) Len() int { return len(sn.items) }

// Keys returns the captured keys in capture order.
func (sn Snapshot) Keys() []Key {
	keys := make([]Key, len(sn.items))
	for i, it := range sn.items {
		keys[i] = it.key
	}
	return keys
}

// Snapshot captures the current entries for keys, in the given order.
// Entry values are copied by value; Data is shared but immutable by
// the store's data ownership contract, so the copy is verbatim.
func (s *Store) Snapshot(keys []Key) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]snapshotItem, 0, len(keys))
	for _, key := range keys {
		e, ok := s.entries[key.ID()]
		items = append(items, snapshotItem{key: key, entry: e, existed: ok})
	}
	return Snapshot{items: items}
}

// Restore writes every captured entry back verbatim, in capture
// order. Keys that did not exist at capture time are removed. Used
// exclusively to roll back an optimistic apply after a failed commit.
func (s *Store) Restore(sn Snapshot) {
	restored := make([]Entry, 0, len(sn.items))

	s.mu.Lock()
	for _, it := range sn.items {
		if !it.existed {
			delete(s.entries, it.key.ID())
			restored = append(restored, Entry{Key: it.key, Status: StatusIdle, StaleAfter: s.staleDefaults[it.key.Family]})
			continue
		}
		s.entries[it.key.ID()] = it.entry
		restored = append(restored, it.entry)
	}
	s.mu.Unlock()

	for _, e := range restored {
		s.notify(e)
	}
}
