package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sire/internal/calltree"
	"sire/internal/config"
	"sire/internal/render"
)

const sampleTrace = `{
  "events": [
    {"event": "enter", "fn_name": "main", "args": {"argv": []}},
    {"event": "enter", "fn_name": "parse", "args": null},
    {"event": "leave"},
    {"event": "enter", "fn_name": "eval", "args": null},
    {"event": "leave"},
    {"event": "leave"}
  ],
  "stage3": {"values": {"id": 0, "items": [
    {"BuiltinValue": "OriginType"},
    {"Opaque": {"class": "Variable", "id": {"pool_id": 0, "index": 1}, "typee": {"pool_id": 0, "index": 0}}}
  ]}}
}`

func writeTrace(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write trace: %v", err)
	}
	return path
}

func TestReadColorMode(t *testing.T) {
	cases := map[string]colorMode{"": colorAuto, "AUTO": colorAuto, "on": colorOn, " off ": colorOff}
	for in, want := range cases {
		got, err := readColorMode(in)
		if err != nil || got != want {
			t.Fatalf("readColorMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := readColorMode("sometimes"); err == nil {
		t.Fatalf("expected error for invalid mode")
	}
	if shouldColor(colorOff, os.Stdout) || !shouldColor(colorOn, nil) {
		t.Fatalf("explicit modes must win over terminal detection")
	}
}

func TestParseResolveArgs(t *testing.T) {
	srcs, id, err := parseResolveArgs([]string{"t.json", "0", "3"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(srcs) != 1 || srcs[0] != "t.json" || id.PoolID != 0 || id.Index != 3 {
		t.Fatalf("got %v %v", srcs, id)
	}
	srcs, _, err = parseResolveArgs([]string{"7", "1"})
	if err != nil || len(srcs) != 0 {
		t.Fatalf("without source: %v %v", srcs, err)
	}
	for _, bad := range [][]string{{"x", "1"}, {"0", "-1"}, {"0", "y"}, {"1"}} {
		if _, _, err := parseResolveArgs(bad); err == nil {
			t.Fatalf("expected error for %v", bad)
		}
	}
}

func TestLoadDocumentsBuildsAndCaches(t *testing.T) {
	path := writeTrace(t, sampleTrace)
	cfg := config.Default()
	cfg.Cache.Enabled = true
	cfg.Cache.Dir = t.TempDir()
	s := settings{cfg: cfg}

	docs, err := loadDocuments(context.Background(), s, []string{path})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(docs) != 1 || docs[0].cached {
		t.Fatalf("first load should build, got %+v", docs)
	}
	if docs[0].report.Calls != 3 || docs[0].report.MaxDepth != 2 || docs[0].report.Values != 2 {
		t.Fatalf("report = %+v", docs[0].report)
	}

	again, err := loadDocuments(context.Background(), s, []string{path})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !again[0].cached {
		t.Fatalf("second load should hit the cache")
	}
	if again[0].report.Calls != 3 || again[0].trace.Stage3 == nil || again[0].trace.Stage3.Values.Len() != 2 {
		t.Fatalf("cached document differs: %+v", again[0].report)
	}

	var buf bytes.Buffer
	opts := render.TreeOptions{ArgWidth: 0}
	if err := writeDocumentTree(&buf, again[0], again[0].trace.Events, "text", opts, false, false); err != nil {
		t.Fatalf("write tree: %v", err)
	}
	if want := "main\n├─ parse\n└─ eval\n"; buf.String() != want {
		t.Fatalf("tree = %q, want %q", buf.String(), want)
	}
}

func TestLoadDocumentsLenientReportsIssues(t *testing.T) {
	path := writeTrace(t, `{"events":[{"event":"enter","fn_name":"f","args":null}]}`)
	s := settings{cfg: config.Default()}

	_, err := loadDocuments(context.Background(), s, []string{path})
	var unterminated *calltree.UnterminatedCallError
	if !errors.As(err, &unterminated) {
		t.Fatalf("strict load: expected UnterminatedCallError, got %v", err)
	}

	s.cfg.Reconstruct.Lenient = true
	docs, err := loadDocuments(context.Background(), s, []string{path})
	if err != nil {
		t.Fatalf("lenient load: %v", err)
	}
	if len(docs[0].report.Issues) != 1 || !strings.Contains(docs[0].report.Issues[0].Error(), "f") {
		t.Fatalf("issues = %v", docs[0].report.Issues)
	}
}

func TestSourcesOrDefault(t *testing.T) {
	s := settings{cfg: config.Default()}
	if got := s.sourcesOrDefault(nil); len(got) != 1 || got[0] != config.DefaultURL {
		t.Fatalf("default sources = %v", got)
	}
	if got := s.sourcesOrDefault([]string{"a", "b"}); len(got) != 2 {
		t.Fatalf("explicit sources = %v", got)
	}
}
