// Package cache memoizes context lookups for a single file's review
// session. A cache is created per session and dropped with it; nothing is
// shared across files or persisted.
package cache
