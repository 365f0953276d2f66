// Package report defines the assembled analysis result (§3 AnalysisResult)
// and its two serializations: a JSON form for tooling and a short text form
// for terminal output.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/buildinspect/buildinspect/internal/evidence"
)

// Result is the final, caller-facing product of one analysis call.
type Result struct {
	Title                string                `json:"title"`
	EngineVersion        string                `json:"engine_version"`
	RenderPipeline       string                `json:"render_pipeline"`
	EntityRuntimeUsed    string                `json:"entity_runtime_used"`
	EntityPhysicsUsed    string                `json:"entity_physics_used"`
	ThirdPartyPhysics    string                `json:"third_party_physics_used"`
	LegacyUIUsed         string                `json:"legacy_ui_used"`
	ContentPipelineUsed  string                `json:"content_pipeline_used"`
	UIToolkitUsed        string                `json:"ui_toolkit_used"`
	MajorScripts         []evidence.ScriptCount `json:"major_scripts"`
	PersistedMetadataPath string               `json:"persisted_metadata_path,omitempty"`
	PersistedManifestPath string               `json:"persisted_manifest_path,omitempty"`
}

func boolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// ContentPipelineField renders the boolean content-pipeline detector
// result in the same yes/no vocabulary as the other variant findings.
func ContentPipelineField(present bool) string {
	return boolToYesNo(present)
}

// JSON renders the result as indented JSON.
func (r *Result) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Text renders a short human-readable summary, one finding per line.
func (r *Result) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.Title)
	fmt.Fprintf(&b, "engine version:        %s\n", r.EngineVersion)
	fmt.Fprintf(&b, "render pipeline:       %s\n", r.RenderPipeline)
	fmt.Fprintf(&b, "entity runtime:        %s\n", r.EntityRuntimeUsed)
	fmt.Fprintf(&b, "entity physics:        %s\n", r.EntityPhysicsUsed)
	fmt.Fprintf(&b, "third-party physics:   %s\n", r.ThirdPartyPhysics)
	fmt.Fprintf(&b, "legacy UI:             %s\n", r.LegacyUIUsed)
	fmt.Fprintf(&b, "content pipeline:      %s\n", r.ContentPipelineUsed)
	fmt.Fprintf(&b, "UI toolkit:            %s\n", r.UIToolkitUsed)
	if len(r.MajorScripts) > 0 {
		fmt.Fprintf(&b, "major scripts:\n")
		for _, sc := range r.MajorScripts {
			fmt.Fprintf(&b, "  %-40s %d\n", sc.Key, sc.Count)
		}
	}
	return b.String()
}
