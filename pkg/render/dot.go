package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/reftree/reftree/pkg/errors"
)

// DefaultDotBinary is the Graphviz executable looked up on PATH.
const DefaultDotBinary = "dot"

// DotRunner renders DOT source with an external Graphviz binary.
type DotRunner struct {
	Binary  string // executable name or path; DefaultDotBinary when empty
	TempDir string // directory for intermediate files; os.TempDir when empty
}

// Dot renders dot into format with the default runner.
func Dot(ctx context.Context, dot, format string) ([]byte, error) {
	return DotRunner{}.Render(ctx, dot, format)
}

// Render writes dot to a temporary file, runs
//
//	dot -T<format> -o<out> <in>
//
// and returns the bytes of <out>. Both files are removed afterwards.
func (r DotRunner) Render(ctx context.Context, dot, format string) ([]byte, error) {
	if format == "" || strings.ContainsAny(format, " \t\n/") {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "invalid dot output format %q", format)
	}

	bin := r.Binary
	if bin == "" {
		bin = DefaultDotBinary
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeToolNotFound, err,
			"'%s' command is not on path. Install Graphviz or use the builtin engine", bin)
	}

	dir := r.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	base := filepath.Join(dir, "reftree-"+uuid.NewString())
	in, out := base+".dot", base+"."+format
	defer os.Remove(in)
	defer os.Remove(out)

	if err := os.WriteFile(in, []byte(dot), 0o600); err != nil {
		return nil, fmt.Errorf("write dot source: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, "-T"+format, "-o"+out, in)
	var errBuf strings.Builder
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, toolFailed(filepath.Base(bin), err, errBuf.String())
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeToolFailed, err, "%s produced no output", filepath.Base(bin))
	}
	return data, nil
}
