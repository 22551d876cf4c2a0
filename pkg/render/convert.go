package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/reftree/reftree/pkg/errors"
)

// RsvgBinary is the SVG converter used by ToPDF and ToPNG.
var RsvgBinary = "rsvg-convert"

// ToPDF converts SVG bytes to PDF using rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return rsvgConvert(ctx, svg, "pdf")
}

// ToPNG converts SVG bytes to PNG with the given scale factor.
// Scale of 2.0 produces a 2x resolution image.
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	return rsvgConvert(ctx, svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

func rsvgConvert(ctx context.Context, svg []byte, format string, extraArgs ...string) ([]byte, error) {
	bin, err := exec.LookPath(RsvgBinary)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeToolNotFound, err,
			"%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, toolFailed("rsvg-convert", err, errBuf.String())
	}
	return out.Bytes(), nil
}

func toolFailed(tool string, err error, stderr string) error {
	if msg := strings.TrimSpace(stderr); msg != "" {
		return errors.Wrap(errors.ErrCodeToolFailed, err, "%s: %s", tool, msg)
	}
	return errors.Wrap(errors.ErrCodeToolFailed, err, "%s failed", tool)
}
