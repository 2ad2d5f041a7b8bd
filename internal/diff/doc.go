// Package diff parses unified diff text into hunks with dual old/new line
// numbering.
//
// Added lines carry only a new-file line number, removed lines only an
// old-file line number, and context lines carry both. Parse errors are
// never fatal: a malformed patch yields whatever hunks parsed cleanly,
// possibly none, and callers treat an empty hunk list as nothing to review.
package diff
