package metta

import "github.com/google/uuid"

// newHandleID mints a stable identifier for a SpaceRef/StateRef/named
// space. A timestamp-plus-atomic-counter scheme (as fact_store.go uses
// for fact IDs) isn't enough here: MeTTa handles must additionally stay
// stable across Environment clones produced by copy-on-write sharing, so
// this mints a real UUIDv4 instead.
func newHandleID() string {
	return uuid.NewString()
}
