package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngineVersionFirstMatchWins(t *testing.T) {
	got := EngineVersion("build contains 2022.3.14f1 somewhere", "", "ignored 2021.1.1f1")
	assert.Equal(t, "2022.3.14f1", got)
}

func TestEngineVersionUnknownWhenNoMatch(t *testing.T) {
	assert.Equal(t, "Unknown", EngineVersion("", "no version here"))
}

func TestRenderPipelineUnknownWithoutMetadata(t *testing.T) {
	assert.Equal(t, "Unknown", RenderPipeline(""))
}

func TestRenderPipelineURP(t *testing.T) {
	assert.Equal(t, "URP", RenderPipeline("references com.unity.render-pipelines.universal heavily"))
}

func TestRenderPipelineHDRP(t *testing.T) {
	assert.Equal(t, "HDRP", RenderPipeline("uses HDRenderPipeline internally"))
}

func TestRenderPipelineBuiltinFallback(t *testing.T) {
	assert.Equal(t, "Built-in", RenderPipeline("nothing recognizable here"))
}

func TestEntityRuntimeSceneWins(t *testing.T) {
	scene := map[string]bool{"SubScene": true}
	assert.Equal(t, "yes (Scene)", EntityRuntime(scene, "Unity.Entities", ""))
}

func TestEntityRuntimeManifestOnly(t *testing.T) {
	got := EntityRuntime(map[string]bool{}, "includes Unity.Entities somewhere", "")
	assert.Equal(t, "yes", got)
}

func TestEntityPhysicsAndThirdPartyIndependent(t *testing.T) {
	assert.Equal(t, "yes", EntityPhysics("Unity.Physics listed"))
	assert.Equal(t, "no", EntityPhysics(""))
	assert.Equal(t, "no", ThirdPartyPhysics("Unity.Physics listed", "", ""))
}

func TestThirdPartyPhysicsAssemblyVariant(t *testing.T) {
	assert.Equal(t, "yes (Assembly)", ThirdPartyPhysics("Havok.Physics", "", ""))
	assert.Equal(t, "yes", ThirdPartyPhysics("", "mentions Havok.Physics", ""))
}

func TestLegacyUIScriptWinsRegardlessOfMetadata(t *testing.T) {
	scripts := map[string]bool{"Game.NGUIText": true}
	got := LegacyUI(scripts, "", "no ngui reference at all")
	assert.Equal(t, "yes (Script)", got)
}

func TestUIToolkitScene(t *testing.T) {
	assert.Equal(t, "yes (Scene)", UIToolkit(map[string]bool{"MainUIDocument": true}))
	assert.Equal(t, "no", UIToolkit(map[string]bool{}))
}

func TestContentPipelineCatalogHash(t *testing.T) {
	assert.True(t, ContentPipeline([]string{"assets/aa/catalog_1.hash"}, nil))
	assert.False(t, ContentPipeline([]string{"assets/bin/Data/globalgamemanagers"}, nil))
}

func TestContentPipelineGlobMatch(t *testing.T) {
	assert.True(t, ContentPipeline([]string{"assets/bin/Data/globalgamemanagers"}, []string{"assets/aa/catalog_1.json"}))
}

func TestMajorScriptsRanking(t *testing.T) {
	scripts := map[string]bool{
		"UnityEngine.UI.Image":     true,
		"UnityEngine.UI.Text":      true,
		"Unity.Burst.BurstCompiler": true,
		"MyGame.Enemy":             true,
		"MyGame.Enemy.Spawner":     true,
		"Foo":                      true,
	}
	got := MajorScripts(scripts)

	want := map[string]int{
		"UnityEngine.UI": 2,
		"Unity.Burst":    1,
		"MyGame":         2,
		"Foo":            1,
	}
	assert.Len(t, got, len(want))
	for _, sc := range got {
		assert.Equal(t, want[sc.Key], sc.Count, "key %s", sc.Key)
	}
}
