// Package repositories implements SQLite persistence for the activity journal.
//
// Key Implementations:
//   - [NoticeRepository] : append-only notice history with newest-first listing
//   - [NoticeRecorder] : adapts [NoticeRepository] to the engine's recorder hook
//
// Sequence numbers provide stable, human-readable ordering (e.g., notice #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function increments the per-table sequence counter inside the caller's transaction.
package repositories
