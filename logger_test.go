package epubcfi

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLogger_DefaultIsSilent(t *testing.T) {
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger is enabled")
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })

	f := newFixture(t)
	resolveString(t, f.tree, "/6/6!/4/2[wrong]")
	if _, err := Generate(f.tree, 2, Point[*node]{Node: f.para01}); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"identifier assertion mismatch", "want=wrong", "got=para01", "generated path"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}

	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) did not restore the silent logger")
	}
}

func TestWithLogger_OverridesPackageLogger(t *testing.T) {
	var pkg, call bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&pkg, nil)))
	t.Cleanup(func() { SetLogger(nil) })

	f := newFixture(t)
	resolveString(t, f.tree, "/6/6!/4/2[wrong]", WithLogger(slog.New(slog.NewTextHandler(&call, nil))))
	if pkg.Len() != 0 {
		t.Errorf("package logger received %q", pkg.String())
	}
	if call.Len() == 0 {
		t.Error("call logger received nothing")
	}
}
