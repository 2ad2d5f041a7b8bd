// Package gitlab reads merge requests from and publishes reviews to GitLab
// using the official client-go library. Inline comments become diff
// discussions positioned against the merge request's diff refs; the
// summary is posted as a merge request note.
package gitlab
