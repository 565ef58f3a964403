// Package repository holds the in-memory rule index and its query engine.
//
// A Repository maps rule id to Rule and answers all discovery queries:
// lookups by id, language, tag set (any/all), description substring,
// context and core flag, plus the composed ByCriteria filter. All matching
// is case-insensitive. Listing order is insertion order, which makes
// iteration deterministic within a process run.
//
// # Context semantics
//
// The context filter is a union, not an override: with no filter only
// general rules (no context) are returned; with a filter C, general rules
// are always included and context-specific rules are included only when
// their context equals C case-insensitively.
//
// # Lifecycle and concurrency
//
// The repository is populated once at bootstrap and read-mostly afterwards.
// Reads take a shared lock; Refresh re-runs the registered loaders into a
// fresh map and swaps it in under the write lock, so readers never observe
// a half-populated index. Rule content is loaded on demand through the
// owning record's ContentSource and cached in a small LRU that is purged on
// every rebuild.
package repository
