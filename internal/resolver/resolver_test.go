package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSameFileHit(t *testing.T) {
	tbl := NewTable()
	tbl.Register("level0", 7, "Game.PlayerController")

	got := tbl.Resolve("level0", nil, 0, 7)
	assert.Equal(t, "Game.PlayerController", got)
}

func TestResolveExternalFileIndexing(t *testing.T) {
	tbl := NewTable()
	tbl.Register("sharedassets1.assets", 3, "Game.EnemySpawner")

	externals := []string{"sharedassets1.assets"}
	got := tbl.Resolve("level0", externals, 1, 3)
	assert.Equal(t, "Game.EnemySpawner", got)
}

func TestResolveFallsBackToPathIDScan(t *testing.T) {
	tbl := NewTable()
	tbl.Register("other.assets", 9, "Game.Orphan")

	got := tbl.Resolve("level0", nil, 0, 9)
	assert.Equal(t, "Game.Orphan", got)
}

func TestResolveFallbackIsDeterministicAcrossCollidingFiles(t *testing.T) {
	tbl := NewTable()
	tbl.Register("assetsA.assets", 9, "Game.PlayerController")
	tbl.Register("assetsB.assets", 9, "Game.EnemyAI")

	first := tbl.Resolve("level0", nil, 0, 9)
	for i := 0; i < 20; i++ {
		got := tbl.Resolve("level0", nil, 0, 9)
		assert.Equal(t, first, got, "fallback pick must be stable across repeated calls")
	}
}

func TestResolveMissReturnsSentinel(t *testing.T) {
	tbl := NewTable()
	got := tbl.Resolve("level0", nil, 0, 42)
	assert.Equal(t, "MonoBehaviour", got)
}

func TestClearRemovesEntries(t *testing.T) {
	tbl := NewTable()
	tbl.Register("level0", 1, "Game.Foo")
	tbl.Clear()

	got := tbl.Resolve("level0", nil, 0, 1)
	assert.Equal(t, "MonoBehaviour", got)
}

func TestStateClearResetsEvidenceSets(t *testing.T) {
	s := NewState()
	s.AllScripts["Game.Foo"] = true
	s.SceneComponents["SubScene"] = true
	s.Table.Register("level0", 1, "Game.Foo")

	s.Clear()

	assert.Empty(t, s.AllScripts)
	assert.Empty(t, s.SceneComponents)
	assert.Equal(t, "MonoBehaviour", s.Table.Resolve("level0", nil, 0, 1))
}
