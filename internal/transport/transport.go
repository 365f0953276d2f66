// Package transport declares the device-transport collaborator the core
// pipeline consumes but never implements (§6): a shell-invocation wrapper
// around a platform debug tool that enumerates connected devices and pulls
// archives off them. The core only depends on this narrow interface; a
// concrete implementation wiring it to a real tool is out of scope.
package transport

import "context"

// Device identifies one connected device as reported by the transport.
type Device struct {
	Serial string
	Model  string
}

// Transport is the out-of-scope collaborator interface. Implementations
// are expected to shell out to a platform debug tool; this package ships
// only a no-op implementation for tests and for callers with no device
// workflow.
type Transport interface {
	// ListDevices enumerates currently connected devices.
	ListDevices(ctx context.Context) ([]Device, error)
	// Probe reports whether addr (host:port or serial) is reachable.
	Probe(ctx context.Context, addr string) bool
	// PackageArchivePaths enumerates the on-device archive paths installed
	// for pkg (the primary APK plus any expansion files).
	PackageArchivePaths(ctx context.Context, serial, pkg string) ([]string, error)
	// Pull copies a remote on-device path to a local path.
	Pull(ctx context.Context, serial, remote, local string) error
}

// NullTransport implements Transport with no connected devices and no
// reachable addresses, for callers that only analyze archives already on
// disk.
type NullTransport struct{}

func (NullTransport) ListDevices(context.Context) ([]Device, error) { return nil, nil }

func (NullTransport) Probe(context.Context, string) bool { return false }

func (NullTransport) PackageArchivePaths(context.Context, string, string) ([]string, error) {
	return nil, nil
}

func (NullTransport) Pull(context.Context, string, string, string) error { return nil }

var _ Transport = NullTransport{}
