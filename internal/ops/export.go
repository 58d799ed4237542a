package ops

import (
	"fmt"
	"strings"

	"github.com/hpungsan/lifeline/internal/errors"
	"github.com/hpungsan/lifeline/internal/render"
	"github.com/hpungsan/lifeline/internal/store"
)

// ExportFormat selects the handoff document format.
type ExportFormat string

const (
	FormatMarkdown ExportFormat = "md"
	FormatHTML     ExportFormat = "html"
)

// Extension returns the file extension expected for the format.
func (f ExportFormat) Extension() string {
	return "." + string(f)
}

// ParseExportFormat validates a format name. Empty means Markdown.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("format must be md or html, got %q", s))
}

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Cwd    string       // optional, default: process working directory
	Format ExportFormat // optional, default: md
	Out    string       // optional destination file; content is returned either way
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Format  ExportFormat `json:"format"`
	Content string       `json:"content"`
	Path    string       `json:"path,omitempty"`
}

// Export renders the latest snapshot as a handoff document for the next agent.
func Export(input ExportInput) (*ExportOutput, error) {
	format := input.Format
	if format == "" {
		format = FormatMarkdown
	}
	if format != FormatMarkdown && format != FormatHTML {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("format must be md or html, got %q", format))
	}

	cwd, err := resolveCwd(input.Cwd)
	if err != nil {
		return nil, err
	}

	// Validate the destination before doing any work.
	var outPath string
	if input.Out != "" {
		outPath, err = ValidateExportPath(input.Out, format, cwd)
		if err != nil {
			return nil, err
		}
	}

	snap, err := store.ReadLatest(store.PathsFor(cwd))
	if err != nil {
		return nil, err
	}

	var content string
	switch format {
	case FormatHTML:
		content, err = render.HTML(snap)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
	default:
		content = render.Markdown(snap)
	}

	output := &ExportOutput{Format: format, Content: content}
	if outPath != "" {
		if err := store.WriteFileAtomic(outPath, []byte(content+"\n")); err != nil {
			if _, ok := errors.As(err); ok {
				return nil, err
			}
			return nil, errors.NewInternal(fmt.Errorf("failed to write export: %w", err))
		}
		output.Path = outPath
	}
	return output, nil
}
