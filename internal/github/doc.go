// Package github reads pull requests from and publishes reviews to GitHub
// using the go-github client.
//
// A Client is scoped to one repository for file content and code search.
// Reviews are posted as a single COMMENT review with inline comments
// anchored by path, line and side; a review without inline comments is
// posted as a plain PR conversation comment.
package github
