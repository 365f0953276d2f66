// Package asset implements the Asset Reader (§4.4): parsing a serialized
// Unity asset file's header, type table, object directory, scripts table,
// externals list, MonoScript pre-scan, and GameObject component listing.
package asset

import (
	"fmt"
	"strings"

	"github.com/buildinspect/buildinspect/internal/bincursor"
	"github.com/buildinspect/buildinspect/internal/log"
	"github.com/buildinspect/buildinspect/internal/resolver"
)

const (
	maxInlineStringLen = 1024
	maxComponentCount  = 1000
)

func classIDPlaceholder(id int32) string {
	return fmt.Sprintf("ClassID(%d)", id)
}

// Header holds the version-conditional fields read before the type table.
type Header struct {
	MetadataSize  int64
	FileSize      int64
	Version       int32
	DataOffset    int64
	BigEndian     bool
	EngineVersion string
	Platform      int32
}

// TypeEntry retains only the (index -> class-id) mapping; property trees
// and hashes are consumed but not kept.
type TypeEntry struct {
	ClassID int32
}

// ObjectInfo describes one serialized object's location and class.
type ObjectInfo struct {
	PathID    int64
	ByteStart int64
	ByteSize  uint32
	TypeID    int32
	ClassID   int32
}

// File is the parsed result of one serialized asset.
type File struct {
	Name            string
	Header          Header
	Types           []TypeEntry
	Objects         []ObjectInfo
	ObjectsByPathID map[int64]ObjectInfo
	Externals       []string
}

// Parse reads a serialized asset file's metadata and, unless scriptsOnly,
// its GameObject component listings, recording discoveries into state.
// scriptsOnly runs only far enough to populate the MonoScript pre-scan, as
// the two-pass resolution strategy in §4.5 requires.
func Parse(name string, data []byte, scriptsOnly bool, state *resolver.State) (*File, error) {
	cur := bincursor.New(data, true)

	hdr, err := readHeader(cur)
	if err != nil {
		return nil, fmt.Errorf("asset %s: header: %w", name, err)
	}
	cur.SetEndian(hdr.BigEndian)

	f := &File{
		Name:            name,
		Header:          *hdr,
		ObjectsByPathID: make(map[int64]ObjectInfo),
	}

	if hdr.Version >= 13 {
		f.Types, err = readTypeTree(cur, hdr.Version)
		if err != nil {
			return nil, fmt.Errorf("asset %s: type table: %w", name, err)
		}
	}

	f.Objects, err = readObjectDirectory(cur, hdr.Version, f.Types)
	if err != nil {
		return nil, fmt.Errorf("asset %s: object directory: %w", name, err)
	}
	for _, o := range f.Objects {
		f.ObjectsByPathID[o.PathID] = o
	}

	if hdr.Version >= 11 {
		if err := skipScriptsTable(cur, hdr.Version); err != nil {
			return nil, fmt.Errorf("asset %s: scripts table: %w", name, err)
		}
	}

	f.Externals, err = readExternals(cur)
	if err != nil {
		return nil, fmt.Errorf("asset %s: externals: %w", name, err)
	}

	if err := scanMonoScripts(f, data, state); err != nil {
		log.Asset("monoscript pre-scan incomplete for %s: %v", name, err)
	}

	if scriptsOnly {
		return f, nil
	}

	if err := scanGameObjects(f, data, state); err != nil {
		log.Asset("game object scan incomplete for %s: %v", name, err)
	}

	return f, nil
}

func readHeader(cur *bincursor.Cursor) (*Header, error) {
	metaSize, err := cur.ReadI32()
	if err != nil {
		return nil, err
	}
	fileSize, err := cur.ReadI32()
	if err != nil {
		return nil, err
	}
	version, err := cur.ReadI32()
	if err != nil {
		return nil, err
	}
	dataOffset, err := cur.ReadI32()
	if err != nil {
		return nil, err
	}

	h := &Header{
		MetadataSize: int64(metaSize),
		FileSize:     int64(fileSize),
		Version:      version,
		DataOffset:   int64(dataOffset),
		BigEndian:    true,
	}

	if version >= 9 {
		endianFlag, err := cur.ReadU8()
		if err != nil {
			return nil, err
		}
		h.BigEndian = endianFlag != 0
		if err := cur.Skip(3); err != nil {
			return nil, err
		}
	}

	if version >= 22 {
		// Extended header fully replaces the four fields read above.
		m, err := cur.ReadU32()
		if err != nil {
			return nil, err
		}
		fs, err := cur.ReadI64()
		if err != nil {
			return nil, err
		}
		do, err := cur.ReadI64()
		if err != nil {
			return nil, err
		}
		if err := cur.Skip(8); err != nil {
			return nil, err
		}
		h.MetadataSize = int64(m)
		h.FileSize = fs
		h.DataOffset = do
	}

	if version >= 7 {
		ev, err := cur.ReadCString()
		if err != nil {
			return nil, err
		}
		h.EngineVersion = ev
		plat, err := cur.ReadI32()
		if err != nil {
			return nil, err
		}
		h.Platform = plat
	}

	return h, nil
}

func readTypeTree(cur *bincursor.Cursor, version int32) ([]TypeEntry, error) {
	hasTypeTree, err := cur.ReadBool()
	if err != nil {
		return nil, err
	}
	count, err := cur.ReadI32()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("negative type count %d", count)
	}

	types := make([]TypeEntry, 0, count)
	for i := int32(0); i < count; i++ {
		classID, err := cur.ReadI32()
		if err != nil {
			return nil, err
		}
		if version >= 16 {
			if err := cur.Skip(1); err != nil { // stripped flag
				return nil, err
			}
		}
		if version >= 17 {
			if _, err := cur.ReadI16(); err != nil { // script type index
				return nil, err
			}
		}
		if classID == ClassMonoBehaviour || classID < 0 {
			if err := cur.Skip(16); err != nil { // script hash
				return nil, err
			}
		}
		if err := cur.Skip(16); err != nil { // type hash
			return nil, err
		}

		if hasTypeTree {
			nodeCount, err := cur.ReadI32()
			if err != nil {
				return nil, err
			}
			stringSize, err := cur.ReadI32()
			if err != nil {
				return nil, err
			}
			if nodeCount < 0 || stringSize < 0 {
				return nil, fmt.Errorf("negative type tree size for type %d", i)
			}
			nodeWidth := 24
			if version >= 19 {
				nodeWidth = 32
			}
			if err := cur.Skip(int(nodeCount)*nodeWidth + int(stringSize)); err != nil {
				return nil, err
			}
		}

		types = append(types, TypeEntry{ClassID: classID})
	}
	return types, nil
}

func readPathID(cur *bincursor.Cursor, version int32) (int64, error) {
	if version >= 14 {
		return cur.ReadI64()
	}
	v, err := cur.ReadI32()
	return int64(v), err
}

func readObjectDirectory(cur *bincursor.Cursor, version int32, types []TypeEntry) ([]ObjectInfo, error) {
	count, err := cur.ReadI32()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("negative object count %d", count)
	}

	objs := make([]ObjectInfo, 0, count)
	for i := int32(0); i < count; i++ {
		if version >= 22 {
			if err := cur.Align(4); err != nil {
				return nil, err
			}
		}

		pathID, err := readPathID(cur, version)
		if err != nil {
			return nil, err
		}

		var byteStart int64
		if version >= 22 {
			byteStart, err = cur.ReadI64()
		} else {
			var v int32
			v, err = cur.ReadI32()
			byteStart = int64(v)
		}
		if err != nil {
			return nil, err
		}

		byteSize, err := cur.ReadU32()
		if err != nil {
			return nil, err
		}
		typeID, err := cur.ReadI32()
		if err != nil {
			return nil, err
		}

		classID := typeID
		if version < 16 {
			cid, err := cur.ReadU16()
			if err != nil {
				return nil, err
			}
			classID = int32(cid)
		} else if int(typeID) >= 0 && int(typeID) < len(types) {
			classID = types[typeID].ClassID
		}

		if version == 15 || version == 16 {
			if err := cur.Skip(1); err != nil { // stripped flag
				return nil, err
			}
		}

		objs = append(objs, ObjectInfo{
			PathID:    pathID,
			ByteStart: byteStart,
			ByteSize:  byteSize,
			TypeID:    typeID,
			ClassID:   classID,
		})
	}
	return objs, nil
}

func skipScriptsTable(cur *bincursor.Cursor, version int32) error {
	count, err := cur.ReadI32()
	if err != nil {
		return err
	}
	if count < 0 {
		return fmt.Errorf("negative script count %d", count)
	}
	width := 4
	if version >= 14 {
		width = 8
	}
	return cur.Skip(int(count) * width)
}

func readExternals(cur *bincursor.Cursor) ([]string, error) {
	count, err := cur.ReadI32()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("negative externals count %d", count)
	}

	externals := make([]string, 0, count)
	for i := int32(0); i < count; i++ {
		if _, err := cur.ReadCString(); err != nil { // asset name
			return nil, err
		}
		if err := cur.Skip(16); err != nil { // GUID
			return nil, err
		}
		if _, err := cur.ReadI32(); err != nil { // type
			return nil, err
		}
		pathName, err := cur.ReadCString()
		if err != nil {
			return nil, err
		}
		externals = append(externals, basename(pathName))
	}
	return externals, nil
}

func basename(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// objectCursor returns a cursor scoped to one object's byte range within
// the asset's data section, carrying the asset's own endianness.
func objectCursor(f *File, data []byte, o ObjectInfo) (*bincursor.Cursor, error) {
	start := int(f.Header.DataOffset + o.ByteStart)
	end := start + int(o.ByteSize)
	if start < 0 || end > len(data) || start > end {
		return nil, fmt.Errorf("object at path-id %d out of range", o.PathID)
	}
	return bincursor.New(data[start:end], f.Header.BigEndian), nil
}

func scanMonoScripts(f *File, data []byte, state *resolver.State) error {
	for _, o := range f.Objects {
		if o.ClassID != ClassMonoScript {
			continue
		}
		cur, err := objectCursor(f, data, o)
		if err != nil {
			log.Asset("monoscript at path-id %d: %v", o.PathID, err)
			continue
		}

		scriptName, err := readAlignedString(cur)
		if err != nil {
			log.Asset("monoscript name at path-id %d: %v", o.PathID, err)
			continue
		}
		if _, err := cur.ReadI32(); err != nil { // execution order
			continue
		}
		if err := cur.Skip(16); err != nil { // properties hash
			continue
		}
		className, err := readAlignedString(cur)
		if err != nil {
			continue
		}
		namespaceName, err := readAlignedString(cur)
		if err != nil {
			continue
		}
		if _, err := readAlignedString(cur); err != nil { // assembly name
			continue
		}

		fullName := scriptName
		switch {
		case namespaceName != "" && className != "":
			fullName = namespaceName + "." + className
		case className != "":
			fullName = className
		}

		state.Table.Register(f.Name, o.PathID, fullName)
		state.AllScripts[fullName] = true
	}
	return nil
}

func readAlignedString(cur *bincursor.Cursor) (string, error) {
	s, err := cur.ReadLengthPrefixedString(maxInlineStringLen)
	if err != nil {
		return "", err
	}
	if err := cur.Align(4); err != nil {
		return "", err
	}
	return s, nil
}

// monoBehaviourScriptPointer reads the (file-id, path-id) pointer to a
// MonoBehaviour's backing MonoScript, per the standard serialized prefix:
// game-object pointer, enabled flag (4-byte aligned), script pointer.
func monoBehaviourScriptPointer(f *File, data []byte, o ObjectInfo) (int32, int64, error) {
	cur, err := objectCursor(f, data, o)
	if err != nil {
		return 0, 0, err
	}
	if _, err := cur.ReadI32(); err != nil { // game object: file-id
		return 0, 0, err
	}
	if _, err := readPathID(cur, f.Header.Version); err != nil { // game object: path-id
		return 0, 0, err
	}
	if err := cur.Skip(1); err != nil { // enabled
		return 0, 0, err
	}
	if err := cur.Align(4); err != nil {
		return 0, 0, err
	}
	scriptFileID, err := cur.ReadI32()
	if err != nil {
		return 0, 0, err
	}
	scriptPathID, err := readPathID(cur, f.Header.Version)
	if err != nil {
		return 0, 0, err
	}
	return scriptFileID, scriptPathID, nil
}

func isSceneFile(name string) bool {
	base := basename(name)
	return strings.HasPrefix(strings.ToLower(base), "level")
}

func scanGameObjects(f *File, data []byte, state *resolver.State) error {
	scene := isSceneFile(f.Name)

	for _, o := range f.Objects {
		if o.ClassID != ClassGameObject {
			continue
		}
		cur, err := objectCursor(f, data, o)
		if err != nil {
			log.Asset("game object at path-id %d: %v", o.PathID, err)
			continue
		}

		componentCount, err := cur.ReadI32()
		if err != nil {
			log.Asset("game object component count at path-id %d: %v", o.PathID, err)
			continue
		}
		if componentCount < 0 || componentCount > maxComponentCount {
			log.Asset("game object at path-id %d has implausible component count %d, skipping", o.PathID, componentCount)
			continue
		}

		names := make([]string, 0, componentCount)
		for i := int32(0); i < componentCount; i++ {
			fileID, err := cur.ReadI32()
			if err != nil {
				break
			}
			pathID, err := readPathID(cur, f.Header.Version)
			if err != nil {
				break
			}
			names = append(names, componentName(f, data, state, fileID, pathID))
		}

		if _, err := cur.ReadI32(); err != nil { // layer
			continue
		}
		if _, err := cur.ReadLengthPrefixedString(maxInlineStringLen); err != nil { // name
			continue
		}

		if scene {
			for _, n := range names {
				state.SceneComponents[n] = true
			}
		}
	}
	return nil
}

// componentName names one GameObject component pointer. Local (fileID==0)
// pointers are classified by looking up the referenced object's class in
// this file's own directory; MonoBehaviour components are then resolved to
// their backing script name. Cross-file component pointers are rare in
// practice (components normally live in the same file as their
// GameObject); this reader has no class information for them and falls
// back to the generic Component name.
func componentName(f *File, data []byte, state *resolver.State, fileID int32, pathID int64) string {
	if fileID != 0 {
		return ClassName(ClassComponent)
	}

	target, ok := f.ObjectsByPathID[pathID]
	if !ok {
		return ClassName(ClassComponent)
	}
	if target.ClassID != ClassMonoBehaviour {
		return ClassName(target.ClassID)
	}

	scriptFileID, scriptPathID, err := monoBehaviourScriptPointer(f, data, target)
	if err != nil {
		log.Asset("monobehaviour script pointer at path-id %d: %v", pathID, err)
		return ClassName(ClassMonoBehaviour)
	}
	return state.Table.Resolve(f.Name, f.Externals, scriptFileID, scriptPathID)
}
