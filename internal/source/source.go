// Package source defines the code-host interface the review pipeline reads
// changes from and publishes reviews to.
package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/neura/internal/diff"
	"github.com/dshills/neura/internal/review"
)

// ChangeRef identifies a change request: a pull request, a merge request,
// or a local diff.
type ChangeRef struct {
	// Repo is "owner/name" on GitHub, a project path or ID on GitLab, and
	// the repository root for local changes.
	Repo   string `json:"repo"`
	Number int    `json:"number,omitempty"`
}

func (r ChangeRef) String() string {
	if r.Number == 0 {
		return r.Repo
	}
	return fmt.Sprintf("%s#%d", r.Repo, r.Number)
}

// ChangeSet is the set of file changes in a change request.
type ChangeSet struct {
	Title        string            `json:"title,omitempty"`
	Files        []diff.FileChange `json:"files"`
	HeadRevision string            `json:"headRevision"`
	BaseRevision string            `json:"baseRevision"`
}

// SearchHit is one code search result. Snippet may be empty, in which case
// callers derive one from the file content.
type SearchHit struct {
	Path    string `json:"path"`
	Snippet string `json:"snippet,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Provider is a code host.
type Provider interface {
	FetchChangeSet(ctx context.Context, ref ChangeRef) (ChangeSet, error)
	// RetrieveFileContent returns the file at revision. found is false when
	// the path does not exist or is not a file.
	RetrieveFileContent(ctx context.Context, path, revision string) (content string, found bool, err error)
	SearchText(ctx context.Context, query, ext string, max int) ([]SearchHit, error)
	// PublishReview posts summary and comments as a single review. It fails
	// without posting anything if any comment has no line.
	PublishReview(ctx context.Context, ref ChangeRef, summary string, comments []review.Comment) error
	ValidateConnection(ctx context.Context) error
}

// CheckComments returns an error naming every comment without a line.
func CheckComments(comments []review.Comment) error {
	var bad []string
	for i, c := range comments {
		if c.Line <= 0 {
			bad = append(bad, fmt.Sprintf("#%d (%s)", i+1, c.Path))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("comments without a line number: %s", strings.Join(bad, ", "))
	}
	return nil
}
