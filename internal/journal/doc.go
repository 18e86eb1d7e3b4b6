// Package journal records reducer dispatches in SQLite and replays them.
//
// Every entry carries the session it was recorded in, the manager's
// logical clock stamp, the reducer and its canonical JSON payload, and the
// fingerprint of the model's snapshot right after the reducer returned.
// Ordering always uses seq, never wall time, so a session replays the same
// way every time.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - a single connection, since SQLite has one writer
//
// Writes reach the database through a Recorder: a model plugin whose
// observers enqueue entries that one goroutine drains.
package journal
