package codectx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dshills/neura/internal/agent"
	"github.com/dshills/neura/internal/cache"
	"github.com/dshills/neura/internal/diff"
	"github.com/dshills/neura/internal/redact"
	"github.com/dshills/neura/internal/source"
)

// Source is the read side of a code host.
type Source interface {
	RetrieveFileContent(ctx context.Context, path, revision string) (string, bool, error)
	SearchText(ctx context.Context, query, ext string, max int) ([]source.SearchHit, error)
}

var errFileNotFound = errors.New("File not found")

// Session answers context lookups for one file's review.
type Session struct {
	src      Source
	revision string
	redactor *redact.Redactor

	files    *cache.Cache[string]
	searches *cache.Cache[[]source.SearchHit]
}

// NewSession returns a session reading src at revision. A nil redactor
// returns results unmodified.
func NewSession(src Source, revision string, redactor *redact.Redactor) *Session {
	return &Session{
		src:      src,
		revision: revision,
		redactor: redactor,
		files:    cache.New[string](),
		searches: cache.New[[]source.SearchHit](),
	}
}

// Toolset returns an agent toolset that opens a fresh session per file.
func Toolset(src Source, revision string, redactor *redact.Redactor) agent.Toolset {
	return func(diff.FileChange) []agent.Handler {
		return NewSession(src, revision, redactor).Handlers()
	}
}

// CacheStats reports file and search cache statistics.
func (s *Session) CacheStats() (files, searches cache.Stats) {
	return s.files.Stats(), s.searches.Stats()
}

// file returns the full content of p at the session revision.
func (s *Session) file(ctx context.Context, p string) (string, error) {
	p = strings.TrimPrefix(p, "/")
	return s.files.GetOrLoad(p, func() (string, error) {
		content, found, err := s.src.RetrieveFileContent(ctx, p, s.revision)
		if err != nil {
			return "", fmt.Errorf("retrieving %s: %w", p, err)
		}
		if !found {
			return "", errFileNotFound
		}
		return content, nil
	})
}

func (s *Session) search(ctx context.Context, query, ext string, limit int) ([]source.SearchHit, error) {
	return s.searches.GetOrLoad(cache.Key(query, ext, limit), func() ([]source.SearchHit, error) {
		hits, err := s.src.SearchText(ctx, query, ext, limit)
		if err != nil {
			return nil, fmt.Errorf("searching for %q: %w", query, err)
		}
		if len(hits) > limit {
			hits = hits[:limit]
		}
		return hits, nil
	})
}

// snippet returns hit's snippet, deriving one from the file when the
// source did not supply it.
func (s *Session) snippet(ctx context.Context, hit source.SearchHit, query string) string {
	if hit.Snippet != "" {
		return hit.Snippet
	}
	content, err := s.file(ctx, hit.Path)
	if err != nil {
		slog.DebugContext(ctx, "snippet unavailable", "path", hit.Path, "error", err)
		return ""
	}
	return ExtractSnippet(content, query)
}

// locate finds the first definition matching patterns, in file when given,
// otherwise across files returned by searching for name.
func (s *Session) locate(ctx context.Context, name, file string, patterns map[language]string, span int) (definition, where string, line int, err error) {
	candidates := []string{file}
	if file == "" {
		hits, err := s.search(ctx, name, "", definitionSearchLimit)
		if err != nil {
			return "", "", 0, err
		}
		candidates = candidates[:0]
		for _, h := range hits {
			candidates = append(candidates, h.Path)
		}
	}
	for _, p := range candidates {
		content, err := s.file(ctx, p)
		if err != nil {
			if file != "" {
				return "", "", 0, err
			}
			continue
		}
		if def, n, ok := findDefinition(content, definitionMatcher(patterns, p), span); ok {
			return def, p, n, nil
		}
	}
	return "", "", 0, errNotFound
}

var errNotFound = errors.New("not found")
