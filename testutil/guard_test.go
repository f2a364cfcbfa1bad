package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInternalImportForbidden(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"obshub/internal/hub", true},
		{"example.com/mod/internal/x", true},
		{"obshub/pkg/datastore", false},
		{"fmt", false},
	}
	for _, tc := range cases {
		if got := InternalImportForbidden(tc.path); got != tc.want {
			t.Errorf("InternalImportForbidden(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestDirectImportViolationsDetected(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\n\nimport _ \"obshub/internal/hub\"\n")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil {
		t.Fatal(err)
	}
	if len(viols) != 1 {
		t.Fatalf("violations = %v, want 1", viols)
	}
}

func TestDirectImportViolationsSkipTestFiles(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\n\nimport _ \"obshub/internal/hub\"\n")
	if err := os.WriteFile(filepath.Join(dir, "x_test.go"), src, 0o600); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil {
		t.Fatal(err)
	}
	if len(viols) != 0 {
		t.Fatalf("violations = %v, want none", viols)
	}
}

func TestAssertNoDirectImportsAllowsCleanPackage(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\n\nimport _ \"fmt\"\n")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	AssertNoDirectImports(t, dir, InternalImportForbidden, "clean package")
}
