// Package container implements the Container Index: an ordered, multi-archive
// view over ZIP-format inputs with case-insensitive entry lookup.
package container

import (
	"archive/zip"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	pipelineerrors "github.com/buildinspect/buildinspect/internal/errors"
	"github.com/buildinspect/buildinspect/internal/log"
)

// Entry describes one archive member as seen through the index.
type Entry struct {
	ArchiveIndex int
	Name         string // normalized: lower-cased, forward slashes
}

// Index is an opaque handle over one or more ZIP archives, queried in the
// order they were opened. The first archive to contain a matching entry
// wins.
type Index struct {
	archives []*zip.ReadCloser
	paths    []string
}

// normalize lower-cases a stored entry name and converts backslashes to
// forward slashes, matching the case-insensitive, separator-agnostic lookup
// rule required of the Container Index.
func normalize(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "\\", "/"))
}

// Open indexes each existing path as a ZIP archive. Paths that cannot be
// opened are skipped with a log line; if none open, Open returns a
// KindNoContainers error.
func Open(paths []string) (*Index, error) {
	idx := &Index{}

	for _, p := range paths {
		rc, err := zip.OpenReader(p)
		if err != nil {
			log.Container("skipping %s: %v", p, err)
			continue
		}
		idx.archives = append(idx.archives, rc)
		idx.paths = append(idx.paths, p)
	}

	if len(idx.archives) == 0 {
		return nil, pipelineerrors.New(pipelineerrors.KindNoContainers, "open", fmt.Errorf("no openable archive among %v", paths))
	}

	return idx, nil
}

// Close releases every opened archive handle, in open order, returning the
// first error encountered (if any) after attempting to close the rest.
func (idx *Index) Close() error {
	var first error
	for _, a := range idx.archives {
		if err := a.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Paths returns the archive paths successfully opened, in open order.
func (idx *Index) Paths() []string {
	return idx.paths
}

// FindEntry scans archives in open order and returns the first matching
// entry's full, uncompressed bytes. Lookup is case-insensitive with
// backslash-to-forward-slash normalization applied to both the query and
// the stored names.
func (idx *Index) FindEntry(path string) ([]byte, bool) {
	want := normalize(path)

	for ai, a := range idx.archives {
		for _, f := range a.File {
			if normalize(f.Name) != want {
				continue
			}
			data, err := readAll(f)
			if err != nil {
				log.Container("failed reading %s from archive %d: %v", f.Name, ai, err)
				return nil, false
			}
			return data, true
		}
	}
	return nil, false
}

// FindGlob returns every normalized entry name, across all archives in open
// order, matching the doublestar pattern. Used by the content-pipeline
// detector's catalog.*.json / catalog.*.hash probes.
func (idx *Index) FindGlob(pattern string) ([]string, error) {
	pattern = normalize(pattern)
	var matches []string
	seen := make(map[string]bool)

	for _, a := range idx.archives {
		for _, f := range a.File {
			name := normalize(f.Name)
			ok, err := doublestar.Match(pattern, name)
			if err != nil {
				return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
			}
			if ok && !seen[name] {
				seen[name] = true
				matches = append(matches, name)
			}
		}
	}

	sort.Strings(matches)
	return matches, nil
}

// IterEntries returns every (archive index, normalized name) pair across all
// archives, in archive-then-enumeration order.
func (idx *Index) IterEntries() []Entry {
	var entries []Entry
	for ai, a := range idx.archives {
		for _, f := range a.File {
			entries = append(entries, Entry{ArchiveIndex: ai, Name: normalize(f.Name)})
		}
	}
	return entries
}

func readAll(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
