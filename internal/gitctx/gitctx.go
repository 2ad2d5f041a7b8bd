package gitctx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/dshills/neura/internal/diff"
	"github.com/dshills/neura/internal/review"
	"github.com/dshills/neura/internal/source"
)

// Revisions understood by RetrieveFileContent besides commit-ish names.
const (
	WorktreeRevision = ""
	IndexRevision    = ":"
)

// ErrPublishUnsupported is returned by PublishReview: local reviews are
// only ever previewed.
var ErrPublishUnsupported = errors.New("local changes cannot be published")

// Options selects which local changes are reviewed.
type Options struct {
	// Base is the revision to diff against. Empty means the index for
	// unstaged changes and HEAD for staged ones.
	Base         string
	Staged       bool
	ContextLines int
}

// Repo is a source.Provider over a local git repository.
type Repo struct {
	root string
	repo *git.Repository
	opts Options
}

var _ source.Provider = (*Repo)(nil)

// Open opens the repository containing dir.
func Open(dir string, opts Options) (*Repo, error) {
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("opening worktree: %w", err)
	}
	return &Repo{root: wt.Filesystem.Root(), repo: r, opts: opts}, nil
}

// Root returns the worktree root.
func (r *Repo) Root() string { return r.root }

// Ref returns the change reference for the configured local changes.
func (r *Repo) Ref() source.ChangeRef { return source.ChangeRef{Repo: r.root} }

// ValidateConnection checks that the base revision resolves.
func (r *Repo) ValidateConnection(ctx context.Context) error {
	if r.opts.Base == "" {
		return nil
	}
	if _, err := r.repo.ResolveRevision(plumbing.Revision(r.opts.Base)); err != nil {
		return fmt.Errorf("resolving %s: %w", r.opts.Base, err)
	}
	return nil
}

// FetchChangeSet diffs the working tree (or the index when staged) against
// the base.
func (r *Repo) FetchChangeSet(ctx context.Context, _ source.ChangeRef) (source.ChangeSet, error) {
	args := []string{"diff", "--no-color", "--no-ext-diff", "-M", "--src-prefix=a/", "--dst-prefix=b/"}
	if r.opts.ContextLines > 0 {
		args = append(args, fmt.Sprintf("-U%d", r.opts.ContextLines))
	}
	cs := source.ChangeSet{HeadRevision: WorktreeRevision, BaseRevision: r.opts.Base}
	if r.opts.Staged {
		args = append(args, "--cached")
		cs.HeadRevision = IndexRevision
		if cs.BaseRevision == "" {
			cs.BaseRevision = "HEAD"
		}
	}
	if r.opts.Base != "" {
		args = append(args, r.opts.Base)
	}
	args = append(args, "--")

	out, err := r.git(ctx, args...)
	if err != nil {
		return source.ChangeSet{}, fmt.Errorf("git diff: %w", err)
	}
	files, err := diff.ParseMulti(out)
	if err != nil {
		return source.ChangeSet{}, err
	}
	cs.Files = files
	if head, err := r.repo.Head(); err == nil {
		cs.Title = head.Name().Short()
	}
	return cs, nil
}

// RetrieveFileContent reads p from the working tree, the index, or a
// commit.
func (r *Repo) RetrieveFileContent(ctx context.Context, p, revision string) (string, bool, error) {
	p, err := r.clean(p)
	if err != nil {
		return "", false, err
	}
	switch revision {
	case WorktreeRevision:
		data, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(p)))
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		return string(data), true, nil
	case IndexRevision:
		out, err := r.git(ctx, "show", ":"+p)
		if err != nil {
			return "", false, nil
		}
		return out, true, nil
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return "", false, fmt.Errorf("resolving %s: %w", revision, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return "", false, fmt.Errorf("reading commit %s: %w", revision, err)
	}
	f, err := commit.File(p)
	if err != nil {
		return "", false, nil
	}
	content, err := f.Contents()
	if err != nil {
		return "", false, fmt.Errorf("reading %s@%s: %w", p, revision, err)
	}
	return content, true, nil
}

// SearchText greps the HEAD tree for query, case-insensitively. Each file
// is reported once.
func (r *Repo) SearchText(ctx context.Context, query, ext string, max int) ([]source.SearchHit, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, err
	}
	opts := &git.GrepOptions{
		Patterns: []*regexp.Regexp{regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))},
	}
	if ext != "" {
		opts.PathSpecs = []*regexp.Regexp{regexp.MustCompile(`\.` + regexp.QuoteMeta(strings.TrimPrefix(ext, ".")) + `$`)}
	}
	results, err := wt.Grep(opts)
	if err != nil {
		return nil, fmt.Errorf("searching for %q: %w", query, err)
	}
	seen := make(map[string]bool)
	var hits []source.SearchHit
	for _, res := range results {
		if len(hits) == max {
			break
		}
		if seen[res.FileName] {
			continue
		}
		seen[res.FileName] = true
		hits = append(hits, source.SearchHit{Path: res.FileName})
	}
	return hits, nil
}

// PublishReview always fails.
func (r *Repo) PublishReview(context.Context, source.ChangeRef, string, []review.Comment) error {
	return ErrPublishUnsupported
}

// Meta describes the checked-out state of a repository.
type Meta struct {
	Root   string
	Head   string
	Branch string
}

// Meta reports HEAD and the current branch. Both are empty in a repository
// without commits.
func (r *Repo) Meta() Meta {
	m := Meta{Root: r.root}
	if head, err := r.repo.Head(); err == nil {
		m.Head = head.Hash().String()
		if head.Name().IsBranch() {
			m.Branch = head.Name().Short()
		}
	}
	return m
}

// RemoteURL returns the first URL of the named remote.
func (r *Repo) RemoteURL(name string) (string, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		return "", fmt.Errorf("remote %s: %w", name, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", name)
	}
	return urls[0], nil
}

// HooksDir returns the repository's hooks directory.
func (r *Repo) HooksDir(ctx context.Context) (string, error) {
	out, err := r.git(ctx, "rev-parse", "--git-path", "hooks")
	if err != nil {
		return "", err
	}
	dir := strings.TrimSpace(out)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(r.root, dir)
	}
	return dir, nil
}

func (r *Repo) clean(p string) (string, error) {
	p = path.Clean(strings.TrimPrefix(filepath.ToSlash(p), "/"))
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("path %q is outside the repository", p)
	}
	return p, nil
}

func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.root
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
