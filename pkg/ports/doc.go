/*
Package ports defines the driven ports (interfaces) for the spellout engine.

These interfaces decouple session handling from external implementations, so
derivations can be persisted in memory, on disk, in redis or in badger, and
lexicons can be read from a document vault.

# Key Interfaces

  - SnapshotStore: persists encoded derivation snapshots by session ID.
  - DistributedLocker: provides distributed locking for concurrent session access.
  - LexiconLoader: reads lexicon entries from an external source (e.g., Loam).
*/
package ports
