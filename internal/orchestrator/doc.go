// Package orchestrator runs a review end to end: it validates the source,
// fetches the change set, selects reviewable files, analyzes them
// concurrently, aggregates the comments, and publishes one review.
package orchestrator
