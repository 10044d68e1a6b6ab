// Package favorites keeps the favorites list of the active identity consistent.
//
// # Local identities
//
// The favorites field of the [models.UserProfile] is authoritative. Older builds also wrote a per-user cache
// under favorites_<username>; [Reconciler.Load] migrates that cache into the profile the first time it finds
// an empty profile list next to a non-empty cache, then deletes it. With favorites.legacy_write_through
// enabled the cache is kept and rewritten in the same apply as the profile on every change.
//
// # External identities
//
// Sessions created through the provider handshake read and write favorites on the provider account.
// They are never merged with local favorites.
//
// # Invariants
//
//   - ids are unique; duplicates collapse to the first occurrence
//   - insertion order is preserved
//   - toggling the same movie twice restores the original list
package favorites
