package asset

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildinspect/buildinspect/internal/resolver"
)

func be32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func lengthPrefixed(s string) []byte {
	out := be32(uint32(len(s)))
	out = append(out, []byte(s)...)
	for len(out)%4 != 0 {
		out = append(out, 0x00)
	}
	return out
}

type objSpec struct {
	pathID    int32
	classID   uint16
	byteStart int32
	content   []byte
}

// buildAsset assembles a minimal version-7 serialized asset (no endian
// flag, no extended header, no type table, legacy u16 class-id in the
// object directory) carrying the given objects, with their contents laid
// out in order after the metadata.
func buildAsset(t *testing.T, objs []objSpec) []byte {
	t.Helper()

	var meta []byte
	meta = append(meta, be32(0)...)    // metadata size placeholder
	meta = append(meta, be32(0)...)    // file size placeholder
	meta = append(meta, be32(7)...)    // version
	meta = append(meta, be32(0)...)    // data offset placeholder

	meta = append(meta, []byte("2022.3.14f1")...)
	meta = append(meta, 0x00)
	meta = append(meta, be32(0)...) // platform

	meta = append(meta, be32(uint32(len(objs)))...)
	for _, o := range objs {
		meta = append(meta, be32(uint32(o.pathID))...)
		meta = append(meta, be32(uint32(o.byteStart))...)
		meta = append(meta, be32(uint32(len(o.content)))...)
		meta = append(meta, be32(uint32(o.classID))...) // typeID (unused pre-v16)
		cls := make([]byte, 2)
		binary.BigEndian.PutUint16(cls, o.classID)
		meta = append(meta, cls...)
	}

	meta = append(meta, be32(0)...) // externals count

	dataOffset := len(meta)
	binary.BigEndian.PutUint32(meta[12:16], uint32(dataOffset))

	var data []byte
	for _, o := range objs {
		data = append(data, o.content...)
	}

	return append(meta, data...)
}

func TestParseMonoScriptAndGameObjectResolution(t *testing.T) {
	scriptName := lengthPrefixed("MyScript")
	className := lengthPrefixed("PlayerController")
	namespaceName := lengthPrefixed("Game.Core")
	assemblyName := lengthPrefixed("Assembly-CSharp")

	var monoScript []byte
	monoScript = append(monoScript, scriptName...)
	monoScript = append(monoScript, be32(0)...)        // execution order
	monoScript = append(monoScript, make([]byte, 16)...) // properties hash
	monoScript = append(monoScript, className...)
	monoScript = append(monoScript, namespaceName...)
	monoScript = append(monoScript, assemblyName...)

	var monoBehaviour []byte
	monoBehaviour = append(monoBehaviour, be32(0)...) // game object file-id
	monoBehaviour = append(monoBehaviour, be32(3)...) // game object path-id
	monoBehaviour = append(monoBehaviour, 0x01)        // enabled
	monoBehaviour = append(monoBehaviour, 0x00, 0x00, 0x00) // align to 4
	monoBehaviour = append(monoBehaviour, be32(0)...) // script file-id
	monoBehaviour = append(monoBehaviour, be32(1)...) // script path-id

	var gameObject []byte
	gameObject = append(gameObject, be32(1)...) // component count
	gameObject = append(gameObject, be32(0)...) // component file-id
	gameObject = append(gameObject, be32(2)...) // component path-id (the MonoBehaviour)
	gameObject = append(gameObject, be32(0)...) // layer
	gameObject = append(gameObject, lengthPrefixed("Player")...)

	objs := []objSpec{
		{pathID: 1, classID: uint16(ClassMonoScript), byteStart: 0, content: monoScript},
		{pathID: 2, classID: uint16(ClassMonoBehaviour), byteStart: int32(len(monoScript)), content: monoBehaviour},
		{pathID: 3, classID: uint16(ClassGameObject), byteStart: int32(len(monoScript) + len(monoBehaviour)), content: gameObject},
	}

	data := buildAsset(t, objs)
	state := resolver.NewState()

	f, err := Parse("level0", data, false, state)
	require.NoError(t, err)
	require.Len(t, f.Objects, 3)

	assert.True(t, state.AllScripts["Game.Core.PlayerController"])
	assert.True(t, state.SceneComponents["Game.Core.PlayerController"])
}

func TestParseScriptsOnlySkipsGameObjects(t *testing.T) {
	monoScript := lengthPrefixed("StandaloneScript")
	monoScript = append(monoScript, be32(0)...)
	monoScript = append(monoScript, make([]byte, 16)...)
	monoScript = append(monoScript, lengthPrefixed("Foo")...)
	monoScript = append(monoScript, lengthPrefixed("")...)
	monoScript = append(monoScript, lengthPrefixed("Assembly-CSharp")...)

	transform := be32(0)

	var gameObject []byte
	gameObject = append(gameObject, be32(1)...) // component count
	gameObject = append(gameObject, be32(0)...) // component file-id
	gameObject = append(gameObject, be32(2)...) // component path-id (the Transform)
	gameObject = append(gameObject, be32(0)...) // layer
	gameObject = append(gameObject, lengthPrefixed("Root")...)

	objs := []objSpec{
		{pathID: 1, classID: uint16(ClassMonoScript), byteStart: 0, content: monoScript},
		{pathID: 2, classID: uint16(ClassTransform), byteStart: int32(len(monoScript)), content: transform},
		{pathID: 3, classID: uint16(ClassGameObject), byteStart: int32(len(monoScript) + len(transform)), content: gameObject},
	}
	data := buildAsset(t, objs)
	state := resolver.NewState()

	// A scene-named file: a full pass would record "Transform" here.
	f, err := Parse("level1", data, true, state)
	require.NoError(t, err)
	require.Len(t, f.Objects, 3)
	assert.True(t, state.AllScripts["Foo"])
	assert.Empty(t, state.SceneComponents)
}

func TestClassNameFallsBackToPlaceholder(t *testing.T) {
	assert.Equal(t, "GameObject", ClassName(ClassGameObject))
	assert.Equal(t, "ClassID(9001)", ClassName(9001))
}

func TestIsSceneFileDetectsLevelPrefix(t *testing.T) {
	assert.True(t, isSceneFile("level0"))
	assert.True(t, isSceneFile("archive/LEVEL3"))
	assert.False(t, isSceneFile("sharedassets0.assets"))
}
