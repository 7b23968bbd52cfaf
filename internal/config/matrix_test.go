package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func TestLoadMatrixDerivesDimensions(t *testing.T) {
	path := writeTemp(t, "matrix.json", `{
		"30": [0, 0],
		"48": [0, 1],
		"57": [1, 0]
	}`)

	codeToCell, rows, cols, err := LoadMatrixSpec(path)
	if err != nil {
		t.Fatalf("LoadMatrix: %v", err)
	}
	if rows != 2 || cols != 2 {
		t.Fatalf("dimensions = %dx%d, want 2x2", rows, cols)
	}
	if codeToCell[30] != [2]int{0, 0} {
		t.Fatalf("code 30 = %v, want [0 0]", codeToCell[30])
	}
	if codeToCell[57] != [2]int{1, 0} {
		t.Fatalf("code 57 = %v, want [1 0]", codeToCell[57])
	}
}

func TestLoadMatrixRejectsEmpty(t *testing.T) {
	path := writeTemp(t, "matrix.json", `{}`)
	if _, _, _, err := LoadMatrixSpec(path); err == nil {
		t.Fatalf("expected an error for an empty matrix file")
	}
}

func TestLoadMatrixRejectsNegativeCell(t *testing.T) {
	path := writeTemp(t, "matrix.json", `{"30": [-1, 0]}`)
	if _, _, _, err := LoadMatrixSpec(path); err == nil {
		t.Fatalf("expected an error for a negative cell coordinate")
	}
}
