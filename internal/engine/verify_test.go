package engine

import (
	"context"
	"strings"
	"testing"
)

func TestVerifyCleanTree(t *testing.T) {
	requirePipelineTools(t)

	root, cfg := newProject(t, fakeGeneratorScript)
	eng := &VerifyEngine{Config: cfg, ProjectRoot: root}

	result, err := eng.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !result.Clean() {
		t.Fatalf("result = %+v, want clean", result)
	}
	if result.Documents != 1 {
		t.Errorf("documents = %d, want 1", result.Documents)
	}
	if !result.Reproducible {
		t.Error("deterministic generator reported as non-reproducible")
	}
	if result.OutputFiles == 0 || result.TreeHash == "" {
		t.Errorf("missing output summary: %+v", result)
	}
}

func TestVerifyIsDeterministic(t *testing.T) {
	requirePipelineTools(t)

	root, cfg := newProject(t, fakeGeneratorScript)
	eng := &VerifyEngine{Config: cfg, ProjectRoot: root}

	first, err := eng.Verify(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := eng.Verify(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.Clean() != second.Clean() || first.TreeHash != second.TreeHash {
		t.Errorf("verification disagreed with itself: %+v vs %+v", first, second)
	}
}

func TestVerifyReportsContentErrors(t *testing.T) {
	requirePipelineTools(t)

	root, cfg := newProject(t, fakeGeneratorScript)
	writePost(t, root, "broken", "---\ndate: 2022-01-01\n---\nno title\n")
	eng := &VerifyEngine{Config: cfg, ProjectRoot: root}

	result, err := eng.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Clean() {
		t.Fatal("broken front matter must fail verification")
	}
	if len(result.ContentErrors) != 1 || !strings.Contains(result.ContentErrors[0], "broken.md") {
		t.Errorf("content errors = %v", result.ContentErrors)
	}
}

func TestVerifyReportsBrokenReferences(t *testing.T) {
	requirePipelineTools(t)

	root, cfg := newProject(t, fakeGeneratorScript)
	writePost(t, root, "linker",
		"---\ntitle: Linker\ndate: 2022-01-02\n---\nSee [gone](/posts/never-existed/).\n")
	eng := &VerifyEngine{Config: cfg, ProjectRoot: root}

	result, err := eng.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(result.Problems) != 1 || result.Problems[0].Ref != "/posts/never-existed/" {
		t.Errorf("problems = %v", result.Problems)
	}
	if result.Clean() {
		t.Error("broken reference must fail verification")
	}
}

func TestVerifyCatchesNonReproducibleGenerator(t *testing.T) {
	requirePipelineTools(t)

	// This generator embeds a nanosecond timestamp in its output, so two
	// builds of identical content differ.
	script := "#!/bin/sh\nmkdir -p public\ndate +%s%N > public/index.html\n"
	root, cfg := newProject(t, script)
	eng := &VerifyEngine{Config: cfg, ProjectRoot: root}

	result, err := eng.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Reproducible {
		t.Error("timestamp-embedding generator passed reproducibility")
	}
	if result.Clean() {
		t.Error("non-reproducible build must fail verification")
	}
}

func TestVerifyGeneratorFailureIsError(t *testing.T) {
	requirePipelineTools(t)

	script := "#!/bin/sh\necho 'broken template' >&2\nexit 2\n"
	root, cfg := newProject(t, script)
	eng := &VerifyEngine{Config: cfg, ProjectRoot: root}

	if _, err := eng.Verify(context.Background()); err == nil {
		t.Fatal("expected generator failure to surface")
	}
}
