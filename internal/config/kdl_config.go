package config

import (
	"fmt"
	"os"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL attempts to load configuration from the given .buildinspect.kdl
// path. A missing file returns (nil, nil) so the caller can fall back to
// defaults.
func LoadKDL(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return parseKDL(string(content))
}

func parseKDL(content string) (*Config, error) {
	cfg := defaultConfig()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "download_root":
			if s, ok := firstStringArg(n); ok {
				cfg.DownloadRoot = s
			}
		case "search_roots":
			cfg.SearchRoots = append(cfg.SearchRoots, collectStringArgs(n)...)
		case "detectors":
			for _, cn := range n.Children {
				applyDetectorToggle(&cfg.Detectors, nodeName(cn), cn)
			}
		}
	}

	return cfg, nil
}

func applyDetectorToggle(d *Detectors, name string, n *document.Node) {
	b, ok := firstBoolArg(n)
	if !ok {
		return
	}
	switch name {
	case "engine_version":
		d.EngineVersion = b
	case "render_pipeline":
		d.RenderPipeline = b
	case "entity_runtime":
		d.EntityRuntime = b
	case "entity_physics":
		d.EntityPhysics = b
	case "third_party_physics":
		d.ThirdPartyPhysics = b
	case "legacy_ui":
		d.LegacyUI = b
	case "ui_toolkit":
		d.UIToolkit = b
	case "content_pipeline":
		d.ContentPipeline = b
	case "major_scripts":
		d.MajorScripts = b
	}
}

// Helper functions over the kdl-go document model, matched to how the
// teacher's propagation-config loader walks nodes and arguments.
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
