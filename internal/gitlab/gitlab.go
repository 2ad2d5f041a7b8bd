package gitlab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/dshills/neura/internal/diff"
	"github.com/dshills/neura/internal/review"
	"github.com/dshills/neura/internal/source"
)

const defaultBaseURL = "https://gitlab.com"

// Options configures a Client.
type Options struct {
	Token string
	// Project is the numeric ID or full path of the project.
	Project    string
	BaseURL    string
	HTTPClient *http.Client
}

// Client is a source.Provider backed by the GitLab REST API.
type Client struct {
	gl      *gl.Client
	project string

	// diff refs of the last fetched merge request, needed to position
	// discussions
	refs map[string]diffRefs
}

type diffRefs struct {
	base, start, head string
}

var _ source.Provider = (*Client)(nil)

// NewClient creates a GitLab client.
func NewClient(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, errors.New("GitLab token is not set (GITLAB_TOKEN or --gitlab-token)")
	}
	base := opts.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	clientOpts := []gl.ClientOptionFunc{gl.WithBaseURL(strings.TrimSuffix(base, "/") + "/api/v4")}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, gl.WithHTTPClient(opts.HTTPClient))
	}
	c, err := gl.NewClient(opts.Token, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating GitLab client: %w", err)
	}
	return &Client{gl: c, project: opts.Project, refs: make(map[string]diffRefs)}, nil
}

// ValidateConnection checks that the token is accepted.
func (c *Client) ValidateConnection(ctx context.Context) error {
	user, _, err := c.gl.Users.CurrentUser(gl.WithContext(ctx))
	if err != nil {
		return apiError("validating GitLab connection", err)
	}
	slog.DebugContext(ctx, "gitlab connection ok", "user", user.Username)
	return nil
}

// FetchChangeSet returns the merge request's files with parsed hunks.
func (c *Client) FetchChangeSet(ctx context.Context, ref source.ChangeRef) (source.ChangeSet, error) {
	project := c.projectFor(ref)
	mr, _, err := c.gl.MergeRequests.GetMergeRequest(project, int64(ref.Number), nil, gl.WithContext(ctx))
	if err != nil {
		return source.ChangeSet{}, apiError(fmt.Sprintf("fetching MR %s", ref), err)
	}
	refs := diffRefs{base: mr.DiffRefs.BaseSha, start: mr.DiffRefs.StartSha, head: mr.DiffRefs.HeadSha}
	if refs.head == "" {
		refs.head = mr.SHA
	}
	c.refs[ref.String()] = refs

	cs := source.ChangeSet{Title: mr.Title, HeadRevision: refs.head, BaseRevision: refs.base}
	opts := &gl.ListMergeRequestDiffsOptions{ListOptions: gl.ListOptions{Page: 1, PerPage: 100}}
	for {
		diffs, resp, err := c.gl.MergeRequests.ListMergeRequestDiffs(project, int64(ref.Number), opts, gl.WithContext(ctx))
		if err != nil {
			return source.ChangeSet{}, apiError(fmt.Sprintf("listing diffs of MR %s", ref), err)
		}
		for _, d := range diffs {
			cs.Files = append(cs.Files, fileChange(d))
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return cs, nil
}

func fileChange(d *gl.MergeRequestDiff) diff.FileChange {
	fc := diff.FileChange{
		Path:     d.NewPath,
		Status:   diff.StatusModified,
		RawPatch: d.Diff,
	}
	switch {
	case d.NewFile:
		fc.Status = diff.StatusAdded
	case d.DeletedFile:
		fc.Status = diff.StatusRemoved
		fc.Path = d.OldPath
	case d.RenamedFile:
		fc.Status = diff.StatusRenamed
		fc.PreviousPath = d.OldPath
	}
	diff.Parse(&fc)
	fc.Recount()
	return fc
}

// RetrieveFileContent reads a raw file at revision.
func (c *Client) RetrieveFileContent(ctx context.Context, path, revision string) (string, bool, error) {
	if c.project == "" {
		return "", false, errors.New("GitLab client has no project configured")
	}
	data, resp, err := c.gl.RepositoryFiles.GetRawFile(c.project, path, &gl.GetRawFileOptions{Ref: gl.Ptr(revision)}, gl.WithContext(ctx))
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, apiError("fetching "+path, err)
	}
	return string(data), true, nil
}

// SearchText runs a blob search within the project.
func (c *Client) SearchText(ctx context.Context, query, ext string, max int) ([]source.SearchHit, error) {
	if c.project == "" {
		return nil, errors.New("GitLab client has no project configured")
	}
	q := query
	if ext != "" {
		q += " extension:" + strings.TrimPrefix(ext, ".")
	}
	blobs, _, err := c.gl.Search.BlobsByProject(c.project, q, &gl.SearchOptions{ListOptions: gl.ListOptions{Page: 1, PerPage: 100}}, gl.WithContext(ctx))
	if err != nil {
		return nil, apiError("searching code", err)
	}
	hits := make([]source.SearchHit, 0, min(len(blobs), max))
	for _, b := range blobs {
		if len(hits) == max {
			break
		}
		p := b.Path
		if p == "" {
			p = b.Filename
		}
		hits = append(hits, source.SearchHit{Path: p, Snippet: b.Data})
	}
	return hits, nil
}

// PublishReview posts the summary as a note and each comment as a diff
// discussion. Discussions are created one by one; the first failure stops
// publishing and is returned.
func (c *Client) PublishReview(ctx context.Context, ref source.ChangeRef, summary string, comments []review.Comment) error {
	if err := source.CheckComments(comments); err != nil {
		return err
	}
	project := c.projectFor(ref)
	refs, ok := c.refs[ref.String()]
	if !ok && len(comments) > 0 {
		return fmt.Errorf("MR %s was not fetched before publishing", ref)
	}

	_, _, err := c.gl.Notes.CreateMergeRequestNote(project, int64(ref.Number), &gl.CreateMergeRequestNoteOptions{Body: gl.Ptr(summary)}, gl.WithContext(ctx))
	if err != nil {
		return apiError(fmt.Sprintf("posting summary to MR %s", ref), err)
	}
	for i, cm := range comments {
		pos := &gl.PositionOptions{
			BaseSHA:      gl.Ptr(refs.base),
			StartSHA:     gl.Ptr(refs.start),
			HeadSHA:      gl.Ptr(refs.head),
			PositionType: gl.Ptr("text"),
			NewPath:      gl.Ptr(cm.Path),
			OldPath:      gl.Ptr(cm.Path),
		}
		if cm.Side == review.SideLeft {
			setLine(&pos.OldLine, cm.Line)
		} else {
			setLine(&pos.NewLine, cm.Line)
		}
		_, _, err := c.gl.Discussions.CreateMergeRequestDiscussion(project, int64(ref.Number), &gl.CreateMergeRequestDiscussionOptions{
			Body:     gl.Ptr(cm.Body),
			Position: pos,
		}, gl.WithContext(ctx))
		if err != nil {
			return apiError(fmt.Sprintf("posting comment %d of %d on %s:%d", i+1, len(comments), cm.Path, cm.Line), err)
		}
	}
	slog.InfoContext(ctx, "review published", "change", ref.String(), "comments", len(comments))
	return nil
}

// setLine stores n in a position line field.
func setLine[T ~int | ~int64](dst **T, n int) {
	v := T(n)
	*dst = &v
}

func (c *Client) projectFor(ref source.ChangeRef) string {
	if ref.Repo != "" {
		return ref.Repo
	}
	return c.project
}

func apiError(op string, err error) error {
	var ge *gl.ErrorResponse
	if errors.As(err, &ge) && ge.Response != nil {
		switch ge.Response.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: authentication failed: %w", op, err)
		case http.StatusNotFound:
			return fmt.Errorf("%s: not found: %w", op, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
