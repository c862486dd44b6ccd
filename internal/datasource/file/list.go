// Package file reads DE tables and annotation files from the local disk.
package file

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotExist is returned by ListTables when the directory is missing.
var ErrNotExist = errors.New("directory does not exist")

// DefaultExts are the file suffixes treated as DE tables.
var DefaultExts = []string{".txt", ".txt.gz"}

// Table is one input file inside a set directory. Group is the file name with
// the matched extension removed; for DE sets it is the cell type.
type Table struct {
	Path  string
	Group string
}

// ListTables returns the regular files (or symlinks to them) in dir whose names end in one of exts
// (DefaultExts when none are given), sorted by name. Hidden files are ignored.
func ListTables(dir string, exts ...string) ([]Table, error) {
	if len(exts) == 0 {
		exts = DefaultExts
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, dir)
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var out []Table
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || !isRegular(dir, e) {
			continue
		}
		group, ok := trimExt(name, exts)
		if !ok || group == "" {
			continue
		}
		out = append(out, Table{Path: filepath.Join(dir, name), Group: group})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out, nil
}

// isRegular reports a regular file, following symlinks. Broken links and
// links to directories are skipped.
func isRegular(dir string, e fs.DirEntry) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(filepath.Join(dir, e.Name()))
	if err != nil {
		log.Printf("file: skipping %s: %v", filepath.Join(dir, e.Name()), err)
		return false
	}
	return fi.Mode().IsRegular()
}

// trimExt strips the longest matching extension.
func trimExt(name string, exts []string) (string, bool) {
	best := ""
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) && len(ext) > len(best) {
			best = ext
		}
	}
	if best == "" {
		return "", false
	}
	return strings.TrimSuffix(name, best), true
}

// ReadList reads a text file line by line and returns its non-empty,
// non-comment lines in order. Lines starting with '#' after trimming are
// skipped. Used for cell-type allow lists.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
