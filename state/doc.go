// Package state owns per-user dialog state.
//
// Ownership boundary:
// - storage backends (memory, redis, badger)
// - state manager and per-user context
// - state groups and finite state machines
//
// state does not dispatch updates; handler matching consults it.
package state
