package triples

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/pipeflow/pkg/rdf"
)

const (
	FieldFile        = "file"
	FieldTripleCount = "triple_count"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrPathOutsideRoot   = errors.New("file path escapes the upload directory")
)

type Step struct {
	baseDir string
	logger  *slog.Logger
}

func (s *Step) ID() string {
	return StepID
}

// Execute replaces context.triples with the parsed content of context.file.
// Without a file there is nothing to load and the context is returned as is.
func (s *Step) Execute(ctx context.Context, data map[string]any) (map[string]any, error) {
	file, ok := data[FieldFile].(string)
	if !ok || file == "" {
		s.logger.DebugContext(ctx, "No file in context, skipping")

		return data, nil
	}

	if !filepath.IsLocal(file) {
		return nil, fmt.Errorf("%w: %s", ErrPathOutsideRoot, file)
	}

	root := s.baseDir
	if root == "" {
		root = "."
	}

	f, err := os.OpenInRoot(root, file)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	triples, err := parse(f, strings.ToLower(filepath.Ext(file)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}

	rdf.ToContext(data, triples)
	data[FieldTripleCount] = len(triples)

	s.logger.InfoContext(ctx, "Loaded triples", "file", file, "count", len(triples))

	return data, nil
}

func parse(r io.Reader, ext string) ([]rdf.Triple, error) {
	switch ext {
	case ".nt", ".ttl":
		return rdf.ParseNTriples(r)
	case ".csv":
		return rdf.ParseCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
