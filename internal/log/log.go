// Package log provides the pipeline's component-tagged debug logging. It is
// silent by default; a line is written only when an output has been set
// with SetOutput and debug logging is enabled, through the
// BUILDINSPECT_DEBUG environment variable or EnableDebug. Every parse unit (a node, an asset, a bundle) logs
// through here on recoverable failure rather than returning the failure to
// its caller.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// EnableDebug can be overridden at build time:
//
//	go build -ldflags "-X github.com/buildinspect/buildinspect/internal/log.EnableDebug=true"
var EnableDebug = "false"

var (
	mu  sync.Mutex
	out io.Writer
)

// SetOutput sets the writer debug lines are sent to. Pass nil to disable.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

func writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return out
}

// Enabled reports whether debug logging is currently active.
func Enabled() bool {
	if EnableDebug == "true" {
		return true
	}
	v := os.Getenv("BUILDINSPECT_DEBUG")
	return v == "1" || v == "true"
}

// Component logs a line tagged with a pipeline component name
// (CONTAINER, BUNDLE, ASSET, RESOLVER, EVIDENCE, DRIVER).
func Component(component, format string, args ...interface{}) {
	if !Enabled() {
		return
	}
	w := writer()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[%s] "+format+"\n", append([]interface{}{component}, args...)...)
}

func Container(format string, args ...interface{}) { Component("CONTAINER", format, args...) }
func Bundle(format string, args ...interface{})    { Component("BUNDLE", format, args...) }
func Asset(format string, args ...interface{})     { Component("ASSET", format, args...) }
func Resolver(format string, args ...interface{})  { Component("RESOLVER", format, args...) }
func Evidence(format string, args ...interface{})  { Component("EVIDENCE", format, args...) }
func Driver(format string, args ...interface{})    { Component("DRIVER", format, args...) }
