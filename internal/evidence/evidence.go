// Package evidence implements the detector rules that fuse structural
// evidence (scene components, resolved script names), textual evidence
// (strings recovered from an IL metadata blob), and manifest evidence (two
// well-known JSON files, queried as substrings) into the small set of
// yes/no/variant findings a report presents. Every detector here is a pure
// function over its explicit inputs; none of them hold state.
package evidence

import (
	"regexp"
	"sort"
	"strings"
)

var engineVersionPattern = regexp.MustCompile(`(20[0-9]{2}|[5-9][0-9]{3})\.[0-9]+\.[0-9]+[fpab][0-9]*`)

const unknown = "Unknown"

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func containsAnyFold(haystack string, needles ...string) bool {
	for _, n := range needles {
		if containsFold(haystack, n) {
			return true
		}
	}
	return false
}

// EngineVersion returns the first regex match of a Unity-style version
// string across texts, tried in order, or "Unknown" if none match.
func EngineVersion(texts ...string) string {
	for _, t := range texts {
		if t == "" {
			continue
		}
		if m := engineVersionPattern.FindString(t); m != "" {
			return m
		}
	}
	return unknown
}

// RenderPipeline classifies the render pipeline in use from the printable
// text extracted from the IL metadata blob. An empty input (no metadata
// recovered) yields "Unknown"; metadata present but matching none of the
// known pipelines yields "Built-in".
func RenderPipeline(metadataText string) string {
	if metadataText == "" {
		return unknown
	}
	lower := strings.ToLower(metadataText)
	switch {
	case containsAnyFold(lower,
		"com.unity.render-pipelines.universal",
		"unityengine.rendering.universal",
		"universalrenderpipeline",
		"forwardrenderer",
		"renderer2d"):
		return "URP"
	case containsAnyFold(lower,
		"com.unity.render-pipelines.high-definition",
		"unityengine.rendering.highdefinition",
		"hdrenderpipeline"):
		return "HDRP"
	case containsFold(lower, "com.unity.render-pipelines.core"):
		return "SRP"
	default:
		return "Built-in"
	}
}

// EntityRuntime reports whether the data-oriented entity runtime
// (Unity.Entities) is linked in.
func EntityRuntime(sceneComponents map[string]bool, assembliesManifest, runtimeInitManifest string) string {
	if sceneComponents["SubScene"] {
		return "yes (Scene)"
	}
	if containsAnyFold(assembliesManifest, "Unity.Entities", "Unity.Entities.Hybrid") ||
		containsAnyFold(runtimeInitManifest, "Unity.Entities", "Unity.Entities.Hybrid") {
		return "yes"
	}
	return "no"
}

// EntityPhysics reports whether the entity-based physics package
// (Unity.Physics) is linked in.
func EntityPhysics(assembliesManifest string) string {
	if containsFold(assembliesManifest, "Unity.Physics") {
		return "yes"
	}
	return "no"
}

// ThirdPartyPhysics reports whether the Havok physics back-end is linked
// in, distinguishing the stronger assembly-manifest signal from the weaker
// textual one.
func ThirdPartyPhysics(assembliesManifest, runtimeInitManifest, metadataText string) string {
	if containsAnyFold(assembliesManifest, "Havok.Physics", "com.havok.physics") {
		return "yes (Assembly)"
	}
	if containsFold(runtimeInitManifest, "Havok.Physics") || containsFold(metadataText, "Havok.Physics") {
		return "yes"
	}
	return "no"
}

// LegacyUI reports whether the NGUI legacy UI library is linked in.
func LegacyUI(allScripts map[string]bool, assembliesManifest, metadataText string) string {
	for name := range allScripts {
		if containsFold(name, "NGUI") {
			return "yes (Script)"
		}
	}
	if containsFold(assembliesManifest, "NGUI") || containsFold(metadataText, "NGUI") {
		return "yes"
	}
	return "no"
}

// UIToolkit reports whether the runtime UI toolkit (UIDocument) appears on
// any scene.
func UIToolkit(sceneComponents map[string]bool) string {
	for name := range sceneComponents {
		if containsFold(name, "UIDocument") {
			return "yes (Scene)"
		}
	}
	return "no"
}

// ContentPipeline reports whether the Addressables content pipeline is
// present: either a catalog file was located by the caller's glob probe
// (catalogMatches, from container.Index.FindGlob), or an entry name carries
// the aa/ path marker or the substring addressables.
func ContentPipeline(entries []string, catalogMatches []string) bool {
	if len(catalogMatches) > 0 {
		return true
	}
	for _, e := range entries {
		norm := strings.ToLower(strings.ReplaceAll(e, "\\", "/"))
		if strings.Contains(norm, "aa/") || strings.Contains(norm, "addressables") {
			return true
		}
	}
	return false
}

// ScriptCount is one entry of the major-scripts ranking.
type ScriptCount struct {
	Key   string
	Count int
}

var unityNamespaces = map[string]bool{
	"UnityEngine": true,
	"Unity":       true,
	"UnityEditor": true,
}

func majorScriptKey(fullName string) string {
	segments := strings.Split(fullName, ".")
	if len(segments) == 1 {
		return "(no namespace)"
	}
	if unityNamespaces[segments[0]] && len(segments) >= 3 {
		return segments[0] + "." + segments[1]
	}
	return segments[0]
}

// MajorScripts ranks the namespaces/roots behind AllScripts by how many
// scripts fall under each, returning the top 30 descending by count. Ties
// are broken by key for a stable, reproducible ordering.
func MajorScripts(allScripts map[string]bool) []ScriptCount {
	counts := make(map[string]int)
	for name := range allScripts {
		counts[majorScriptKey(name)]++
	}

	out := make([]ScriptCount, 0, len(counts))
	for k, c := range counts {
		out = append(out, ScriptCount{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > 30 {
		out = out[:30]
	}
	return out
}
