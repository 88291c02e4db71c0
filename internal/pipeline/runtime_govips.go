//go:build govips && cgo

package pipeline

import (
	"runtime"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	startupOnce sync.Once
	runtimeMu   sync.Mutex
	running     bool
)

// Startup initialises libvips once per process. The operation cache is
// disabled: requests never share images, so cached operations only hold memory.
func Startup() error {
	startupOnce.Do(func() {
		vips.LoggingSettings(nil, vips.LogLevelWarning)
		vips.Startup(&vips.Config{
			ConcurrencyLevel: runtime.NumCPU(),
			MaxCacheFiles:    0,
			MaxCacheMem:      0,
			MaxCacheSize:     0,
		})

		runtimeMu.Lock()
		running = true
		runtimeMu.Unlock()
	})
	return nil
}

func Shutdown() {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if !running {
		return
	}
	vips.Shutdown()
	running = false
}

func newTransformer() (Transformer, error) {
	return govipsTransformer{}, nil
}
