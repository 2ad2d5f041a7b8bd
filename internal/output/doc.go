// Package output formats review reports for display or machine consumption.
//
// Four formats are supported:
//   - text: human-readable terminal output (default)
//   - json: the full structured report
//   - markdown: the review summary followed by per-file findings
//   - sarif: SARIF v2.1.0 with one result per review comment
//
// Use [GetWriter] to obtain a [Writer] for a format, or [WriteReport] to
// write to a file or stdout in one call. [Preview] renders the comments a
// dry run would have posted.
package output
