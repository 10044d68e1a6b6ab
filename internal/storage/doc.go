// Package storage implements the key-value [Store] that backs every locally persisted record.
//
// Keys mirror the layout written by earlier browser builds of the client:
//   - users : JSON array of every registered profile
//   - currentUser : raw username of the active local identity
//   - session_id : raw session token of the active external identity
//   - favorites_<username> : legacy JSON favorites cache
//
// [SQLiteStore] persists into the kv_store table created by the embedded migrations in internal/shared.
// [MemoryStore] keeps everything in a map and backs tests.
//
// [Store.Apply] is the only way to change several keys at once; both implementations make it atomic
// and deliver the resulting [Change] values to subscribers after the write is visible.
package storage
