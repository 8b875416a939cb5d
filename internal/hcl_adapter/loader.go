package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/brickrun/internal/config"
	"github.com/vk/brickrun/internal/ctxlog"
	"github.com/vk/brickrun/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL program loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// Load parses every .hcl file under paths and merges the blocks into one
// program. Files are read in the order they are found, so actors keep the
// order they are declared in.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Program, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	program := &config.Program{}

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		part, err := l.translateFile(ctxlog.With(ctx, "file", file), &root)
		if err != nil {
			return nil, fmt.Errorf("in file %s: %w", file, err)
		}
		program.Merge(part)
	}

	logger.Debug("HCL loading complete.", "program", program.Name, "actors", len(program.Actors), "globals", len(program.Variables))
	return program, nil
}
