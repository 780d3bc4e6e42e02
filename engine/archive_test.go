package engine

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"golang.org/x/tools/txtar"

	"github.com/rlange/anneal/model"
)

// TestRunArchives drives the engine end to end from txtar fixtures. Each
// archive under testdata holds a config.yaml, a serialized model.json and
// the exact summary the run must render.
func TestRunArchives(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	paths, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no archives under testdata")
	}
	for _, path := range paths {
		t.Run(strings.TrimSuffix(filepath.Base(path), ".txtar"), func(t *testing.T) {
			ar, err := txtar.ParseFile(path)
			if err != nil {
				t.Fatal("cannot parse archive:", err)
			}
			files := make(map[string][]byte, len(ar.Files))
			for _, f := range ar.Files {
				files[f.Name] = f.Data
			}
			for _, name := range []string{"config.yaml", "model.json", "summary"} {
				if _, ok := files[name]; !ok {
					t.Fatalf("archive has no %s section", name)
				}
			}

			conf, err := LoadConfig(bytes.NewReader(files["config.yaml"]))
			if err != nil {
				t.Fatal("cannot load config:", err)
			}
			prog, err := model.Decode(bytes.NewReader(files["model.json"]))
			if err != nil {
				t.Fatal("cannot decode model:", err)
			}
			e, err := New(prog, conf, nil)
			if err != nil {
				t.Fatal("cannot build engine:", err)
			}
			rep, err := e.Run(context.Background())
			if err != nil {
				t.Fatal("run failed:", err)
			}
			var buf bytes.Buffer
			e.SetOutput(&buf)
			if err := e.Write(rep); err != nil {
				t.Fatal("write failed:", err)
			}
			if expect, got := string(files["summary"]), buf.String(); expect != got {
				t.Errorf("summary mismatch, want:\n%sgot:\n%s", expect, got)
			}
		})
	}
}
