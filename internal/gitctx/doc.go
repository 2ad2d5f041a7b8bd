// Package gitctx reviews local changes: it is the source provider for a
// git working tree.
//
// Diffs come from the git binary (working tree against the index, staged
// changes against HEAD, or either against a chosen base). File content and
// code search are served by go-git from the working tree, the index, or
// any commit. Local reviews are never published.
package gitctx
