package codectx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/dshills/neura/internal/agent"
	"github.com/dshills/neura/internal/providers"
	"github.com/dshills/neura/internal/redact"
)

const (
	defaultSearchResults  = 20
	maxSearchResults      = 50
	definitionSearchLimit = 5
	importSearchLimit     = 10
	testSearchLimit       = 5
)

// Handlers returns the session's tools in the order they are offered to
// the model.
func (s *Session) Handlers() []agent.Handler {
	return []agent.Handler{
		newTool(s.redactor, "get_file_content",
			"Get the content of a specific file from the repository. Optionally limited to a line range. Use this when you need to examine files mentioned in the diff or related files.",
			s.getFileContent),
		newTool(s.redactor, "search_codebase",
			"Search the entire codebase for specific patterns or function names or class names or text. Use this to find where symbols are defined or used across the project.",
			s.searchCodebase),
		newTool(s.redactor, "find_function_definition",
			"Find the complete definition of a specific function. Use this when you see a function call in the diff and need to understand what the function does.",
			s.findFunctionDefinition),
		newTool(s.redactor, "find_class_definition",
			"Find the complete definition of a specific class or type including its methods and attributes. Use this when the diff uses or extends a class.",
			s.findClassDefinition),
		newTool(s.redactor, "find_import_usages",
			"Find all files that import a specific module. Use this to understand the impact of changes to a module - which other files might be affected.",
			s.findImportUsages),
		newTool(s.redactor, "find_test_files",
			"Find test files related to a source file. Use this to check if changes might break existing tests or if new functionality needs tests.",
			s.findTestFiles),
	}
}

// tool adapts a typed function to agent.Handler.
type tool[A any] struct {
	name        string
	description string
	schema      map[string]any
	redactor    *redact.Redactor
	fn          func(context.Context, A) (map[string]any, error)
}

func newTool[A any](r *redact.Redactor, name, description string, fn func(context.Context, A) (map[string]any, error)) *tool[A] {
	var zero A
	return &tool[A]{
		name:        name,
		description: description,
		schema:      providers.SchemaFrom(zero),
		redactor:    r,
		fn:          fn,
	}
}

func (t *tool[A]) Name() string           { return t.name }
func (t *tool[A]) Description() string    { return t.description }
func (t *tool[A]) Schema() map[string]any { return t.schema }

func (t *tool[A]) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	var a A
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	res, err := t.fn(ctx, a)
	if err != nil {
		return nil, errors.New(t.redactor.Text(err.Error()))
	}
	return t.redactor.Map(res), nil
}

type fileContentArgs struct {
	FilePath  string `json:"file_path" jsonschema:"required,description=Path to the file in the repository"`
	StartLine int    `json:"start_line,omitempty" jsonschema:"minimum=1,description=Starting line number (1-based and inclusive). Omit to read from the beginning"`
	EndLine   int    `json:"end_line,omitempty" jsonschema:"minimum=1,description=Ending line number (1-based and inclusive). Omit to read to the end"`
}

func (s *Session) getFileContent(ctx context.Context, a fileContentArgs) (map[string]any, error) {
	if a.FilePath == "" {
		return nil, errors.New("file_path is required")
	}
	content, err := s.file(ctx, a.FilePath)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(content, "\n")
	res := map[string]any{
		"success":     true,
		"file_path":   a.FilePath,
		"content":     strings.Join(sliceLines(lines, a.StartLine, a.EndLine), "\n"),
		"total_lines": len(lines),
	}
	if a.StartLine > 0 {
		res["start_line"] = a.StartLine
	}
	if a.EndLine > 0 {
		res["end_line"] = a.EndLine
	}
	return res, nil
}

type searchArgs struct {
	Query         string `json:"query" jsonschema:"required,description=Text or symbol name to search for"`
	FileExtension string `json:"file_extension,omitempty" jsonschema:"description=Limit results to files with this extension such as py or go"`
	MaxResults    int    `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=50,default=20,description=Maximum number of results to return"`
}

func (s *Session) searchCodebase(ctx context.Context, a searchArgs) (map[string]any, error) {
	if a.Query == "" {
		return nil, errors.New("query is required")
	}
	limit := a.MaxResults
	if limit <= 0 {
		limit = defaultSearchResults
	}
	limit = min(limit, maxSearchResults)
	ext := strings.TrimPrefix(a.FileExtension, ".")

	hits, err := s.search(ctx, a.Query, ext, limit)
	if err != nil {
		return nil, err
	}
	results := make([]map[string]any, 0, len(hits))
	for _, h := range hits {
		results = append(results, map[string]any{
			"file_path": h.Path,
			"snippet":   s.snippet(ctx, h, a.Query),
			"url":       h.URL,
		})
	}
	return map[string]any{
		"success":       true,
		"query":         a.Query,
		"results":       results,
		"total_results": len(results),
	}, nil
}

type functionArgs struct {
	FunctionName string `json:"function_name" jsonschema:"required,description=Name of the function to find"`
	FilePath     string `json:"file_path,omitempty" jsonschema:"description=File to look in. Omit to search the whole repository"`
}

func (s *Session) findFunctionDefinition(ctx context.Context, a functionArgs) (map[string]any, error) {
	if a.FunctionName == "" {
		return nil, errors.New("function_name is required")
	}
	def, where, line, err := s.locate(ctx, a.FunctionName, a.FilePath, functionPatterns(a.FunctionName), functionSpan)
	if errors.Is(err, errNotFound) {
		return nil, fmt.Errorf("Function '%s' not found", a.FunctionName)
	}
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"success":       true,
		"function_name": a.FunctionName,
		"definition":    def,
		"file_path":     where,
		"line_number":   line,
	}, nil
}

type classArgs struct {
	ClassName string `json:"class_name" jsonschema:"required,description=Name of the class or type to find"`
	FilePath  string `json:"file_path,omitempty" jsonschema:"description=File to look in. Omit to search the whole repository"`
}

func (s *Session) findClassDefinition(ctx context.Context, a classArgs) (map[string]any, error) {
	if a.ClassName == "" {
		return nil, errors.New("class_name is required")
	}
	def, where, line, err := s.locate(ctx, a.ClassName, a.FilePath, classPatterns(a.ClassName), classSpan)
	if errors.Is(err, errNotFound) {
		return nil, fmt.Errorf("Class '%s' not found", a.ClassName)
	}
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"success":     true,
		"class_name":  a.ClassName,
		"definition":  def,
		"file_path":   where,
		"line_number": line,
	}, nil
}

type importArgs struct {
	ModuleName string `json:"module_name" jsonschema:"required,description=Module or package name to find imports of"`
}

func (s *Session) findImportUsages(ctx context.Context, a importArgs) (map[string]any, error) {
	if a.ModuleName == "" {
		return nil, errors.New("module_name is required")
	}
	seen := make(map[string]bool)
	usages := []map[string]any{}
	for _, q := range []string{"import " + a.ModuleName, "from " + a.ModuleName, "import.*" + a.ModuleName} {
		hits, err := s.search(ctx, q, "", importSearchLimit)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			if seen[h.Path] {
				continue
			}
			seen[h.Path] = true
			usages = append(usages, map[string]any{
				"file_path": h.Path,
				"snippet":   s.snippet(ctx, h, a.ModuleName),
			})
		}
	}
	return map[string]any{
		"success":      true,
		"module_name":  a.ModuleName,
		"usages":       usages,
		"total_usages": len(usages),
	}, nil
}

type testFilesArgs struct {
	SourceFile string `json:"source_file" jsonschema:"required,description=Path of the source file whose tests to find"`
}

func (s *Session) findTestFiles(ctx context.Context, a testFilesArgs) (map[string]any, error) {
	if a.SourceFile == "" {
		return nil, errors.New("source_file is required")
	}
	base := strings.TrimSuffix(path.Base(a.SourceFile), path.Ext(a.SourceFile))
	seen := make(map[string]bool)
	files := []string{}
	for _, q := range []string{"test_" + base, base + "_test", "test" + base, base} {
		hits, err := s.search(ctx, q, "", testSearchLimit)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			if seen[h.Path] || !strings.Contains(strings.ToLower(h.Path), "test") {
				continue
			}
			seen[h.Path] = true
			files = append(files, h.Path)
		}
	}
	return map[string]any{
		"success":     true,
		"source_file": a.SourceFile,
		"test_files":  files,
		"total":       len(files),
	}, nil
}
