package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"

	"github.com/dshills/neura/internal/diff"
	"github.com/dshills/neura/internal/review"
	"github.com/dshills/neura/internal/source"
)

const (
	defaultAPIURL = "https://api.github.com/"
	filesPerPage  = 100
)

// Options configures a Client. An empty APIURL targets github.com.
type Options struct {
	Token string
	// Repo ("owner/name") scopes file content and code search.
	Repo       string
	APIURL     string
	HTTPClient *http.Client
}

// Client is a source.Provider backed by the GitHub REST API.
type Client struct {
	gh    *gh.Client
	owner string
	repo  string
}

var _ source.Provider = (*Client)(nil)

// NewClient creates a GitHub client.
func NewClient(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, errors.New("GitHub token is not set (GITHUB_TOKEN or --github-token)")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	c := gh.NewClient(httpClient).WithAuthToken(opts.Token)
	if opts.APIURL != "" && strings.TrimRight(opts.APIURL, "/")+"/" != defaultAPIURL {
		var err error
		c, err = c.WithEnterpriseURLs(opts.APIURL, opts.APIURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL: %w", err)
		}
	}
	cl := &Client{gh: c}
	if opts.Repo != "" {
		owner, repo, err := splitRepo(opts.Repo)
		if err != nil {
			return nil, err
		}
		cl.owner, cl.repo = owner, repo
	}
	return cl, nil
}

// ValidateConnection checks that the token is accepted.
func (c *Client) ValidateConnection(ctx context.Context) error {
	user, _, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return apiError("validating GitHub connection", err)
	}
	slog.DebugContext(ctx, "github connection ok", "user", user.GetLogin())
	return nil
}

// FetchChangeSet returns the pull request's files with parsed hunks.
func (c *Client) FetchChangeSet(ctx context.Context, ref source.ChangeRef) (source.ChangeSet, error) {
	owner, repo, err := splitRepo(ref.Repo)
	if err != nil {
		return source.ChangeSet{}, err
	}
	pr, _, err := c.gh.PullRequests.Get(ctx, owner, repo, ref.Number)
	if err != nil {
		return source.ChangeSet{}, apiError(fmt.Sprintf("fetching PR %s", ref), err)
	}

	cs := source.ChangeSet{
		Title:        pr.GetTitle(),
		HeadRevision: pr.GetHead().GetSHA(),
		BaseRevision: pr.GetBase().GetSHA(),
	}
	opts := &gh.ListOptions{PerPage: filesPerPage}
	for {
		files, resp, err := c.gh.PullRequests.ListFiles(ctx, owner, repo, ref.Number, opts)
		if err != nil {
			return source.ChangeSet{}, apiError(fmt.Sprintf("listing files of PR %s", ref), err)
		}
		for _, f := range files {
			cs.Files = append(cs.Files, fileChange(f))
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return cs, nil
}

func fileChange(f *gh.CommitFile) diff.FileChange {
	fc := diff.FileChange{
		Path:         f.GetFilename(),
		PreviousPath: f.GetPreviousFilename(),
		Status:       status(f.GetStatus()),
		RawPatch:     f.GetPatch(),
		Additions:    f.GetAdditions(),
		Deletions:    f.GetDeletions(),
	}
	diff.Parse(&fc)
	return fc
}

func status(s string) diff.Status {
	switch s {
	case "added":
		return diff.StatusAdded
	case "removed":
		return diff.StatusRemoved
	case "renamed":
		return diff.StatusRenamed
	default:
		return diff.StatusModified
	}
}

// RetrieveFileContent reads a file at revision. Directories and missing
// paths report found == false.
func (c *Client) RetrieveFileContent(ctx context.Context, path, revision string) (string, bool, error) {
	owner, repo, err := c.scope()
	if err != nil {
		return "", false, err
	}
	file, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, &gh.RepositoryContentGetOptions{Ref: revision})
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, apiError("fetching "+path, err)
	}
	if file == nil {
		return "", false, nil
	}
	content, err := file.GetContent()
	if err != nil {
		return "", false, fmt.Errorf("decoding %s: %w", path, err)
	}
	return content, true, nil
}

// SearchText runs a code search scoped to the repository.
func (c *Client) SearchText(ctx context.Context, query, ext string, max int) ([]source.SearchHit, error) {
	owner, repo, err := c.scope()
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf("%s repo:%s/%s", query, owner, repo)
	if ext != "" {
		q += " extension:" + strings.TrimPrefix(ext, ".")
	}
	res, _, err := c.gh.Search.Code(ctx, q, &gh.SearchOptions{
		TextMatch:   true,
		ListOptions: gh.ListOptions{PerPage: max},
	})
	if err != nil {
		return nil, apiError("searching code", err)
	}
	hits := make([]source.SearchHit, 0, len(res.CodeResults))
	for _, r := range res.CodeResults {
		if len(hits) == max {
			break
		}
		hit := source.SearchHit{Path: r.GetPath(), URL: r.GetHTMLURL()}
		if len(r.TextMatches) > 0 {
			hit.Snippet = r.TextMatches[0].GetFragment()
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// PublishReview posts one review with event COMMENT. With no inline
// comments the summary is posted as an issue comment instead.
func (c *Client) PublishReview(ctx context.Context, ref source.ChangeRef, summary string, comments []review.Comment) error {
	if err := source.CheckComments(comments); err != nil {
		return err
	}
	owner, repo, err := splitRepo(ref.Repo)
	if err != nil {
		return err
	}
	if len(comments) == 0 {
		_, _, err := c.gh.Issues.CreateComment(ctx, owner, repo, ref.Number, &gh.IssueComment{Body: gh.Ptr(summary)})
		if err != nil {
			return apiError("posting summary comment", err)
		}
		return nil
	}

	drafts := make([]*gh.DraftReviewComment, 0, len(comments))
	for _, cm := range comments {
		d := &gh.DraftReviewComment{
			Path: gh.Ptr(cm.Path),
			Body: gh.Ptr(cm.Body),
			Line: gh.Ptr(cm.Line),
			Side: gh.Ptr(string(cm.Side)),
		}
		if cm.StartLine > 0 && cm.StartLine < cm.Line {
			d.StartLine = gh.Ptr(cm.StartLine)
			d.StartSide = gh.Ptr(string(startSide(cm)))
		}
		drafts = append(drafts, d)
	}
	_, _, err = c.gh.PullRequests.CreateReview(ctx, owner, repo, ref.Number, &gh.PullRequestReviewRequest{
		Body:     gh.Ptr(summary),
		Event:    gh.Ptr("COMMENT"),
		Comments: drafts,
	})
	if err != nil {
		return apiError(fmt.Sprintf("posting review to %s", ref), err)
	}
	slog.InfoContext(ctx, "review published", "change", ref.String(), "comments", len(comments))
	return nil
}

func startSide(cm review.Comment) review.Side {
	if cm.StartSide != "" {
		return cm.StartSide
	}
	return cm.Side
}

func (c *Client) scope() (string, string, error) {
	if c.repo == "" {
		return "", "", errors.New("GitHub client has no repository configured")
	}
	return c.owner, c.repo, nil
}

func splitRepo(s string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(s, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("repository must be owner/name, got %q", s)
	}
	return owner, repo, nil
}

// apiError annotates err, calling out rejected credentials.
func apiError(op string, err error) error {
	var ge *gh.ErrorResponse
	if errors.As(err, &ge) && ge.Response != nil {
		switch ge.Response.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: authentication failed: %w", op, err)
		case http.StatusNotFound:
			return fmt.Errorf("%s: not found: %w", op, err)
		case http.StatusUnprocessableEntity:
			return fmt.Errorf("%s: GitHub rejected the request: %w", op, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(url, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", url)
}
