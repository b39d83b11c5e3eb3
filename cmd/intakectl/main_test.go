package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testRules = `
rules:
  - id: thesis
    required_keywords: [abstract, conclusion]
    forbidden_keywords: [plagiarism]
    allowed_extensions: [txt, png]
  - id: essay
    required_keywords: [introduction]
settings:
  min_word_count_essay: "100"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	code := exitCode(cmd, cmd.Execute())
	return code, stdout.String(), stderr.String()
}

func expectCode(t *testing.T, got, want int, stderr string) {
	t.Helper()
	if got != want {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", got, want, stderr)
	}
}

func TestValidateExitCodes(t *testing.T) {
	dir := t.TempDir()
	rules := writeFile(t, dir, "rules.yaml", testRules)
	passing := writeFile(t, dir, "thesis.txt", "This is the abstract and conclusion.")
	failing := writeFile(t, dir, "draft.txt", "This is the abstract.")
	scan := writeFile(t, dir, "scan.png", "\x89PNG")

	code, out, stderr := execute(t, "validate", "--rules", rules, "--doc-type", "thesis", passing)
	expectCode(t, code, exitPass, stderr)
	var verdict map[string]any
	if err := json.Unmarshal([]byte(out), &verdict); err != nil {
		t.Fatalf("decode verdict: %v", err)
	}
	if verdict["pass"] != true || verdict["wordCount"] != float64(7) {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}

	code, out, stderr = execute(t, "validate", "--rules", rules, "--doc-type", "thesis", failing)
	expectCode(t, code, exitFail, stderr)
	if !strings.Contains(out, `"conclusion"`) {
		t.Fatalf("expected missing conclusion in %s", out)
	}

	code, out, stderr = execute(t, "validate", "--rules", rules, "--doc-type", "thesis", scan)
	expectCode(t, code, exitDeferred, stderr)
	if !strings.Contains(out, `"needsServerOcr": true`) {
		t.Fatalf("expected OCR handoff in %s", out)
	}
}

func TestValidateUsageErrors(t *testing.T) {
	dir := t.TempDir()
	rules := writeFile(t, dir, "rules.yaml", testRules)
	file := writeFile(t, dir, "a.txt", "abstract")

	code, _, stderr := execute(t, "validate", "--rules", rules, file)
	expectCode(t, code, exitUsage, stderr)
	if !strings.Contains(stderr, "--doc-type") {
		t.Fatalf("expected --doc-type hint, got %s", stderr)
	}

	code, _, stderr = execute(t, "validate", "--rules", rules, "--doc-type", "dissertation", file)
	expectCode(t, code, exitUsage, stderr)
	if !strings.Contains(stderr, "not found") {
		t.Fatalf("expected not found, got %s", stderr)
	}

	code, _, stderr = execute(t, "validate", "--rules", rules, "--doc-type", "thesis", filepath.Join(dir, "missing.txt"))
	expectCode(t, code, exitUsage, stderr)
}

func TestRulesListsDocumentTypes(t *testing.T) {
	rules := writeFile(t, t.TempDir(), "rules.yaml", testRules)

	code, out, stderr := execute(t, "rules", "--rules", rules)
	expectCode(t, code, exitPass, stderr)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %q", out)
	}
	if !strings.HasPrefix(lines[1], "essay") || !strings.Contains(lines[1], "100") {
		t.Fatalf("unexpected essay row %q", lines[1])
	}
	if !strings.Contains(lines[2], "abstract,conclusion") {
		t.Fatalf("unexpected thesis row %q", lines[2])
	}

	code, out, stderr = execute(t, "rules", "--rules", rules, "--json")
	expectCode(t, code, exitPass, stderr)
	var rows []map[string]any
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 2 || rows[0]["min_word_count"] != "100" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestVersion(t *testing.T) {
	code, out, stderr := execute(t, "version")
	expectCode(t, code, exitPass, stderr)
	if out != "intakectl version dev\n" {
		t.Fatalf("unexpected version output %q", out)
	}
}
