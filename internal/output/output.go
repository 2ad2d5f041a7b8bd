package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/neura/internal/orchestrator"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *orchestrator.Report) error
}

// Formats lists the supported format names.
var Formats = []string{"text", "json", "markdown", "sarif"}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown":
		return &MarkdownWriter{}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to outPath, or to stdout when outPath is
// empty.
func WriteReport(report *orchestrator.Report, format, outPath string, stdout io.Writer) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	w := stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	return writer.Write(w, report)
}
