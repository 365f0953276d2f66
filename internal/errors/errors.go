// Package errors defines the typed error kinds raised by the analysis
// pipeline (§7 of the build inspector's error handling design).
package errors

import (
	"fmt"
	"time"
)

// Kind classifies an error raised anywhere in the pipeline.
type Kind string

const (
	// KindNoContainers: no archive could be opened. Fatal to the analysis call.
	KindNoContainers Kind = "no_containers"
	// KindBadBundleHeader: UnityFS signature mismatch. The bundle is skipped.
	KindBadBundleHeader Kind = "bad_bundle_header"
	// KindUnsupportedCompression: the block-info uses an unrecognized
	// compression type. The bundle is skipped.
	KindUnsupportedCompression Kind = "unsupported_compression"
	// KindDecodeFailure: decompressing the block-info or a storage block
	// failed: an LZ4 decode produced a non-positive length, or a storage
	// block uses an unrecognized compression type. A failing storage block
	// skips only the node being materialized.
	KindDecodeFailure Kind = "decode_failure"
	// KindMalformedAsset: negative sizes, out-of-range indices, or a
	// truncated stream while parsing a serialized asset file.
	KindMalformedAsset Kind = "malformed_asset"
	// KindShortRead: an integer read ran past the end of the buffer.
	KindShortRead Kind = "short_read"
	// KindResolverMiss: a MonoBehaviour's script pointer could not be
	// resolved to a name. Non-fatal; a sentinel name is substituted.
	KindResolverMiss Kind = "resolver_miss"
	// KindPersistFailure: writing one of the two raw artifacts failed.
	// Swallowed; the in-memory result is still returned.
	KindPersistFailure Kind = "persist_failure"
)

// PipelineError carries a Kind plus enough context to log or recover from
// a failure at the bundle, asset, or container boundary it occurred in.
type PipelineError struct {
	Kind       Kind
	Operation  string
	File       string
	Underlying error
	Timestamp  time.Time

	// Recoverable is true when the failing unit (a node, an asset, a
	// bundle) was skipped and the surrounding pass continued.
	Recoverable bool
}

// New creates a PipelineError for the given kind and operation.
func New(kind Kind, op string, err error) *PipelineError {
	return &PipelineError{
		Kind:        kind,
		Operation:   op,
		Underlying:  err,
		Timestamp:   time.Now(),
		Recoverable: kind != KindNoContainers,
	}
}

// WithFile attaches the file or archive-entry path the error occurred in.
func (e *PipelineError) WithFile(path string) *PipelineError {
	e.File = path
	return e
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s failed for %s: %v", e.Kind, e.Operation, e.File, e.Underlying)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Kind, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *PipelineError) Unwrap() error {
	return e.Underlying
}

// IsRecoverable reports whether the surrounding pass can continue past
// this error.
func (e *PipelineError) IsRecoverable() bool {
	return e.Recoverable
}
