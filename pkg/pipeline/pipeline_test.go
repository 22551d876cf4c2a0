package pipeline

import (
	"testing"

	"github.com/reftree/reftree/pkg/errors"
)

func TestExportOptionsDefaults(t *testing.T) {
	var opts ExportOptions
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatDOT {
		t.Errorf("Formats = %v, want [dot]", opts.Formats)
	}
	if opts.Engine != EngineDot || opts.Mode != "deepest" || opts.Logger == nil {
		t.Errorf("defaults = %+v", opts)
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call: %v", err)
	}
}

func TestExportOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts ExportOptions
		code errors.Code
	}{
		{"format", ExportOptions{Formats: []string{"svg", "gif"}}, errors.ErrCodeInvalidFormat},
		{"format case", ExportOptions{Formats: []string{"SVG"}}, errors.ErrCodeInvalidFormat},
		{"engine", ExportOptions{Engine: "neato"}, errors.ErrCodeInvalidMode},
		{"mode", ExportOptions{Mode: "project"}, errors.ErrCodeInvalidMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestBuildOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    BuildOptions
		wantErr bool
	}{
		{"empty", BuildOptions{}, false},
		{"named", BuildOptions{Project: "Core"}, false},
		{"all", BuildOptions{All: true}, false},
		{"all and named", BuildOptions{All: true, Project: "Core"}, true},
		{"negative depth", BuildOptions{MaxDepth: -1}, true},
		{"control chars", BuildOptions{Project: "a\x00b"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := ExportOptions{Mode: "all", Engine: EngineBuiltin}
	if k := opts.ArtifactKeyOpts(FormatDOT); k.Engine != "" {
		t.Errorf("dot key carries engine %q", k.Engine)
	}
	if k := opts.ArtifactKeyOpts(FormatSVG); k.Engine != EngineBuiltin || k.Mode != "all" {
		t.Errorf("svg key = %+v", k)
	}
}

func TestExtensionAndContentType(t *testing.T) {
	for _, f := range Formats {
		if ContentType(f) == "application/octet-stream" {
			t.Errorf("no content type for %s", f)
		}
	}
	if Extension(FormatLayout) != "layout.json" || Extension(FormatSVG) != "svg" {
		t.Error("unexpected extensions")
	}
}
