package file

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestListTables_FiltersAndSorts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"T cell.txt", "B cell.txt.gz", "NK cell.txt", ".hidden.txt", "notes.md", "README"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	got, err := ListTables(dir)
	if err != nil {
		t.Fatalf("ListTables error: %v", err)
	}
	var groups []string
	for _, tb := range got {
		groups = append(groups, tb.Group)
	}
	want := []string{"B cell", "NK cell", "T cell"}
	if !reflect.DeepEqual(groups, want) {
		t.Fatalf("groups = %#v, want %#v", groups, want)
	}
	if got[0].Path != filepath.Join(dir, "B cell.txt.gz") {
		t.Fatalf("path = %q", got[0].Path)
	}
}

func TestListTables_FollowsSymlinks(t *testing.T) {
	t.Parallel()

	results := t.TempDir()
	src := filepath.Join(results, "b_cell_deseq2.txt")
	if err := os.WriteFile(src, []byte("ID\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Mkdir(filepath.Join(results, "nested"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	dir := t.TempDir()
	links := map[string]string{
		"B cell.txt": src,
		"dir.txt":    filepath.Join(results, "nested"),
		"broken.txt": filepath.Join(results, "gone.txt"),
	}
	for name, target := range links {
		if err := os.Symlink(target, filepath.Join(dir, name)); err != nil {
			t.Skipf("symlinks unsupported: %v", err)
		}
	}

	got, err := ListTables(dir)
	if err != nil {
		t.Fatalf("ListTables error: %v", err)
	}
	want := []Table{{Path: filepath.Join(dir, "B cell.txt"), Group: "B cell"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tables = %#v, want %#v", got, want)
	}
}

func TestListTables_CustomExts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"a.tsv", "b.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	got, err := ListTables(dir, ".tsv")
	if err != nil {
		t.Fatalf("ListTables error: %v", err)
	}
	if len(got) != 1 || got[0].Group != "a" {
		t.Fatalf("got %#v", got)
	}
}

func TestListTables_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := ListTables(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
}

func TestReadList(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "only.txt")
	content := "\n# immune subsets\nNK cell\n   # indented comment\n  Th1 cell  \n\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadList(path)
	if err != nil {
		t.Fatalf("ReadList error: %v", err)
	}
	if want := []string{"NK cell", "Th1 cell"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ReadList = %#v, want %#v", got, want)
	}

	if _, err := ReadList(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
