// Package facade implements the Driver/Analyzer façade (§4.7): it sequences
// the whole pipeline from opened containers through evidence fusion to a
// persisted report, and offers a non-blocking wrapper around the
// synchronous core so a caller's UI thread never blocks on an analysis.
package facade

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/buildinspect/buildinspect/internal/asset"
	"github.com/buildinspect/buildinspect/internal/bundle"
	"github.com/buildinspect/buildinspect/internal/config"
	"github.com/buildinspect/buildinspect/internal/container"
	pipelineerrors "github.com/buildinspect/buildinspect/internal/errors"
	"github.com/buildinspect/buildinspect/internal/evidence"
	"github.com/buildinspect/buildinspect/internal/log"
	"github.com/buildinspect/buildinspect/internal/report"
	"github.com/buildinspect/buildinspect/internal/resolver"
	"github.com/buildinspect/buildinspect/internal/scanner"
	"github.com/buildinspect/buildinspect/internal/transport"
)

const (
	pathGlobalGameManagers = "assets/bin/Data/globalgamemanagers"
	pathDataBundle         = "assets/bin/Data/data.unity3d"
	pathLibArm64           = "lib/arm64-v8a/libunity.so"
	pathLibArmv7           = "lib/armeabi-v7a/libunity.so"
	pathAssembliesManifest = "assets/bin/Data/ScriptingAssemblies.json"
	pathRuntimeInitManifest = "assets/bin/Data/RuntimeInitializeOnLoads.json"
	pathMetadataBlob       = "assets/bin/Data/Managed/Metadata/global-metadata.dat"

	lastAnalysisDir     = "LastAnalysis"
	persistedMetadata   = "global-metadata.dat"
	persistedAssemblies = "ScriptingAssemblies.json"

	printableMinRun = 4
)

// Facade owns the shared resolver state for one caller. Analyze must not be
// invoked concurrently with itself on the same Facade; use the non-blocking
// wrapper (Async) when the caller needs that.
type Facade struct {
	cfg       *config.Config
	transport transport.Transport
	state     *resolver.State
}

// New creates a Facade over the given configuration and transport
// collaborator. A nil transport defaults to transport.NullTransport{}.
func New(cfg *config.Config, tr transport.Transport) *Facade {
	if tr == nil {
		tr = transport.NullTransport{}
	}
	return &Facade{cfg: cfg, transport: tr, state: resolver.NewState()}
}

// Analyze runs one full, synchronous analysis over the given container
// archive paths and returns the assembled report.
func (f *Facade) Analyze(ctx context.Context, archivePaths []string) (*report.Result, error) {
	f.state.Clear()

	idx, err := container.Open(f.resolveArchivePaths(archivePaths))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := idx.Close(); cerr != nil {
			log.Driver("closing containers: %v", cerr)
		}
	}()

	assembliesBytes, _ := idx.FindEntry(pathAssembliesManifest)
	runtimeInitBytes, _ := idx.FindEntry(pathRuntimeInitManifest)
	assembliesText := string(assembliesBytes)
	runtimeInitText := string(runtimeInitBytes)

	metadataBytes, metadataFound := idx.FindEntry(pathMetadataBlob)
	metadataText := scanner.ExtractPrintableASCII(metadataBytes, printableMinRun)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.scanPass(idx, true); err != nil {
		log.Driver("scripts-only pass incomplete: %v", err)
	}
	if err := f.scanPass(idx, false); err != nil {
		log.Driver("full pass incomplete: %v", err)
	}

	det := f.detectors()

	engineVersion := "Unknown"
	if det.EngineVersion {
		engineVersion = evidence.EngineVersion(
			textEntry(idx, pathGlobalGameManagers),
			textEntry(idx, pathDataBundle),
			textEntry(idx, pathLibArm64),
			textEntry(idx, pathLibArmv7),
			metadataText,
		)
	}

	entryNames := make([]string, 0)
	for _, e := range idx.IterEntries() {
		entryNames = append(entryNames, e.Name)
	}

	result := &report.Result{Title: "Build Inspection", EngineVersion: engineVersion}

	if det.RenderPipeline {
		result.RenderPipeline = evidence.RenderPipeline(metadataText)
	} else {
		result.RenderPipeline = "Unknown"
	}
	if det.EntityRuntime {
		result.EntityRuntimeUsed = evidence.EntityRuntime(f.state.SceneComponents, assembliesText, runtimeInitText)
	} else {
		result.EntityRuntimeUsed = "no"
	}
	if det.EntityPhysics {
		result.EntityPhysicsUsed = evidence.EntityPhysics(assembliesText)
	} else {
		result.EntityPhysicsUsed = "no"
	}
	if det.ThirdPartyPhysics {
		result.ThirdPartyPhysics = evidence.ThirdPartyPhysics(assembliesText, runtimeInitText, metadataText)
	} else {
		result.ThirdPartyPhysics = "no"
	}
	if det.LegacyUI {
		result.LegacyUIUsed = evidence.LegacyUI(f.state.AllScripts, assembliesText, metadataText)
	} else {
		result.LegacyUIUsed = "no"
	}
	if det.ContentPipeline {
		result.ContentPipelineUsed = report.ContentPipelineField(evidence.ContentPipeline(entryNames, catalogMatches(idx)))
	} else {
		result.ContentPipelineUsed = "no"
	}
	if det.UIToolkit {
		result.UIToolkitUsed = evidence.UIToolkit(f.state.SceneComponents)
	} else {
		result.UIToolkitUsed = "no"
	}
	if det.MajorScripts {
		result.MajorScripts = evidence.MajorScripts(f.state.AllScripts)
	}

	if f.cfg != nil {
		result.PersistedMetadataPath, result.PersistedManifestPath = f.persist(metadataBytes, metadataFound, assembliesText)
	}

	return result, nil
}

// resolveArchivePaths leaves absolute paths and anything that already exists
// relative to the working directory untouched; a path that resolves to
// nothing is retried under each configured search root, in order, and the
// first existing candidate wins. This lets callers pass bare archive names
// (e.g. from a device pull) without knowing which download directory they
// landed in.
func (f *Facade) resolveArchivePaths(paths []string) []string {
	if f.cfg == nil || len(f.cfg.SearchRoots) == 0 {
		return paths
	}

	resolved := make([]string, len(paths))
	for i, p := range paths {
		resolved[i] = f.resolveArchivePath(p)
	}
	return resolved
}

func (f *Facade) resolveArchivePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	if _, err := os.Stat(p); err == nil {
		return p
	}
	for _, root := range f.cfg.SearchRoots {
		candidate := filepath.Join(root, p)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return p
}

// detectors returns the configured detector toggles, or all-enabled when
// the Facade carries no configuration.
func (f *Facade) detectors() config.Detectors {
	if f.cfg == nil {
		return config.DefaultDetectors()
	}
	return f.cfg.Detectors
}

// catalogMatches probes for Addressables catalog files by glob, since their
// names vary by build hash (catalog_2022.3.14f1.hash, catalog.json, ...).
func catalogMatches(idx *container.Index) []string {
	var matches []string
	for _, pattern := range []string{"**/catalog*.json", "**/catalog*.hash"} {
		m, err := idx.FindGlob(pattern)
		if err != nil {
			log.Driver("catalog glob %s: %v", pattern, err)
			continue
		}
		matches = append(matches, m...)
	}
	return matches
}

func textEntry(idx *container.Index, path string) string {
	data, ok := idx.FindEntry(path)
	if !ok {
		return ""
	}
	return scanner.ExtractPrintableASCII(data, printableMinRun)
}

// scanPass walks every container entry once. Entries that look like
// standalone serialized assets are parsed directly; everything else is
// tried as a UnityFS bundle, whose qualifying nodes are then parsed as
// serialized assets in turn.
func (f *Facade) scanPass(idx *container.Index, scriptsOnly bool) error {
	for _, e := range idx.IterEntries() {
		data, ok := idx.FindEntry(e.Name)
		if !ok {
			continue
		}

		if bundle.ShouldParseAsAsset(bundle.Node{Path: e.Name}) {
			if _, err := asset.Parse(e.Name, data, scriptsOnly, f.state); err != nil {
				log.Asset("skipping %s: %v", e.Name, err)
			}
			continue
		}

		b, err := bundle.Parse(data)
		if err != nil {
			log.Bundle("skipping %s: %v", e.Name, err)
			continue
		}
		if b == nil {
			continue // not a UnityFS container, nothing to walk
		}

		for _, n := range b.Nodes {
			if !bundle.ShouldParseAsAsset(n) {
				continue
			}
			nodeData, err := b.Materialize(n)
			if err != nil {
				log.Bundle("materializing %s/%s: %v", e.Name, n.Path, err)
				continue
			}
			if _, err := asset.Parse(n.Path, nodeData, scriptsOnly, f.state); err != nil {
				log.Asset("skipping %s/%s: %v", e.Name, n.Path, err)
			}
		}
	}
	return nil
}

// persist writes the two raw artifacts to <download-root>/LastAnalysis/.
// Failures are logged and swallowed (KindPersistFailure): the in-memory
// result is still returned to the caller. metadataFound distinguishes "no
// metadata blob in this archive" from "metadata blob was empty"; only the
// former should report an empty path rather than a written-but-empty file.
func (f *Facade) persist(metadataBytes []byte, metadataFound bool, assembliesText string) (metadataPath, manifestPath string) {
	dir := filepath.Join(f.cfg.DownloadRoot, lastAnalysisDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Driver("%s", pipelineerrors.New(pipelineerrors.KindPersistFailure, "mkdir", err).Error())
		return "", ""
	}

	if metadataFound {
		metadataPath = filepath.Join(dir, persistedMetadata)
		if err := os.WriteFile(metadataPath, metadataBytes, 0o644); err != nil {
			log.Driver("%s", pipelineerrors.New(pipelineerrors.KindPersistFailure, "write-metadata", err).WithFile(metadataPath).Error())
			metadataPath = ""
		}
	}

	manifestPath = filepath.Join(dir, persistedAssemblies)
	if err := os.WriteFile(manifestPath, []byte(assembliesText), 0o644); err != nil {
		log.Driver("%s", pipelineerrors.New(pipelineerrors.KindPersistFailure, "write-manifest", err).WithFile(manifestPath).Error())
		manifestPath = ""
	}

	return metadataPath, manifestPath
}

// archiveKey derives a stable singleflight/lookup key for a set of archive
// paths. Paths are sorted first so the same archive set coalesces into one
// in-flight analysis regardless of the order callers happened to list them.
func archiveKey(paths []string) string {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}
