//go:build !govips || !cgo

package pipeline

// Startup is a no-op for the pure-Go engine; it has no process-wide state.
func Startup() error { return nil }

// Shutdown mirrors Startup.
func Shutdown() {}

func newTransformer() (Transformer, error) {
	return stdlibTransformer{}, nil
}
