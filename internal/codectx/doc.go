// Package codectx implements the context tools the review agent calls to
// look beyond the diff: reading files, searching the repository, locating
// function and class definitions, import sites, and related tests.
//
// A Session serves one file's review. Lookups are memoized for the life of
// the session and every result is passed through the redactor before it is
// returned to the model.
package codectx
