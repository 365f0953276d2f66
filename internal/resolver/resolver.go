// Package resolver implements the Script Resolver (§4.5): a file-keyed
// cache of (file, path-id) -> fully-qualified script name, populated during
// a scripts-only pre-pass and consulted while parsing MonoBehaviour
// components in the main pass, including cross-file lookups through an
// asset file's externals list.
package resolver

import (
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/buildinspect/buildinspect/internal/log"
)

// sentinelName is substituted when a script pointer cannot be resolved.
const sentinelName = "MonoBehaviour"

type key struct {
	file   uint64
	pathID int64
}

func internFile(name string) uint64 {
	return xxhash.Sum64String(name)
}

// Table is the shared (file, path-id) -> name cache. It is owned by one
// analysis call; Clear must run before each analysis so stale entries from
// a prior call never leak into the next one (§5).
type Table struct {
	entries map[key]string
	missLog map[key]bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[key]string), missLog: make(map[key]bool)}
}

// Clear empties the table for a fresh analysis.
func (t *Table) Clear() {
	t.entries = make(map[key]string)
	t.missLog = make(map[key]bool)
}

// Register records the fully-qualified script name found at (file, pathID)
// during the MonoScript pre-scan.
func (t *Table) Register(file string, pathID int64, name string) {
	t.entries[key{file: internFile(file), pathID: pathID}] = name
}

// Resolve looks up the script name a MonoBehaviour's (fileID, pathID)
// pointer refers to. fileID 0 means "same file"; fileID > 0 indexes
// (1-based) into the current file's externals list. On a miss, Resolve
// falls back to any entry carrying the same path-id (covers assets whose
// externals list omits the producer), and failing that returns the
// sentinel name, logging the miss once.
func (t *Table) Resolve(currentFile string, externals []string, fileID int32, pathID int64) string {
	target := currentFile
	if fileID > 0 && int(fileID) <= len(externals) {
		target = externals[fileID-1]
	}

	k := key{file: internFile(target), pathID: pathID}
	if name, ok := t.entries[k]; ok {
		return name
	}

	if name, ok := t.fallbackByPathID(pathID); ok {
		return name
	}

	if !t.missLog[k] {
		t.missLog[k] = true
		log.Resolver("no script found for file=%s path-id=%d, substituting %s", target, pathID, sentinelName)
	}
	return sentinelName
}

// fallbackByPathID handles assets whose externals list omits the producing
// file: it returns any registered entry carrying the same path-id. Path-ids
// are only unique within one file, so more than one file can register the
// same path-id; ranking candidates by their interned file key keeps the
// choice stable across runs instead of depending on Go's randomized map
// iteration order.
func (t *Table) fallbackByPathID(pathID int64) (string, bool) {
	var candidates []key
	for ek := range t.entries {
		if ek.pathID == pathID {
			candidates = append(candidates, ek)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].file < candidates[j].file })
	return t.entries[candidates[0]], true
}

// State bundles the shared Table with the two evidence sets the Asset
// Reader accumulates during a scan: every MonoScript's fully-qualified
// name, and every component name seen on a scene (level-prefixed) file.
// All three share one writer per analysis and must be cleared together.
type State struct {
	Table           *Table
	AllScripts      map[string]bool
	SceneComponents map[string]bool
}

// NewState creates an empty State ready for one analysis call.
func NewState() *State {
	return &State{
		Table:           NewTable(),
		AllScripts:      make(map[string]bool),
		SceneComponents: make(map[string]bool),
	}
}

// Clear resets all shared state for the start of a new analysis.
func (s *State) Clear() {
	s.Table.Clear()
	s.AllScripts = make(map[string]bool)
	s.SceneComponents = make(map[string]bool)
}

var defaultState = NewState()

// Default returns the process-wide shared state, reserved for tests that
// want to reset global resolver state between cases rather than threading
// an owned State through (§9 design note).
func Default() *State { return defaultState }
