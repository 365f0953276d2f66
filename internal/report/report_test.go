package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildinspect/buildinspect/internal/evidence"
)

func TestJSONRoundTripsFieldNames(t *testing.T) {
	r := &Result{
		Title:         "Build Inspection",
		EngineVersion: "2022.3.14f1",
		MajorScripts:  []evidence.ScriptCount{{Key: "MyGame", Count: 3}},
	}

	data, err := r.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"engine_version": "2022.3.14f1"`)
	assert.Contains(t, string(data), `"major_scripts"`)
}

func TestTextIncludesEveryFinding(t *testing.T) {
	r := &Result{
		Title:               "Build Inspection",
		EngineVersion:       "2022.3.14f1",
		RenderPipeline:      "URP",
		EntityRuntimeUsed:   "no",
		EntityPhysicsUsed:   "no",
		ThirdPartyPhysics:   "no",
		LegacyUIUsed:        "no",
		ContentPipelineUsed: "no",
		UIToolkitUsed:       "no",
	}

	text := r.Text()
	assert.Contains(t, text, "2022.3.14f1")
	assert.Contains(t, text, "URP")
}

func TestContentPipelineField(t *testing.T) {
	assert.Equal(t, "yes", ContentPipelineField(true))
	assert.Equal(t, "no", ContentPipelineField(false))
}
