// Package review turns model output into placed review comments.
//
// It defines the Finding, Comment, and Outcome types; resolves which diff
// lines and side a finding anchors to (placement.go); reindents suggested
// replacements to the surrounding code (suggestion.go); renders comment
// bodies with a severity badge (comment.go); and aggregates per-file
// outcomes into a deduplicated, capped comment set with a markdown summary
// (aggregate.go).
//
// Analyzer (analyzer.go) is the non-agentic path: one forced
// create_review_analysis call per hunk, hunks analyzed concurrently.
//
// Rules packs (rules.go) allow callers to override finding severities, specify
// focus areas, and declare required checks that must appear in every review.
package review
