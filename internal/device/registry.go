package device

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Dialer creates a session for a profile. The session is not opened.
type Dialer func(ctx context.Context, p *Profile) (Session, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Dialer)
)

// Register makes a driver available by name. Registering a name twice
// replaces the earlier dialer.
func Register(name string, d Dialer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = d
}

// Drivers lists the registered driver names.
func Drivers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dial creates a session using the profile's driver.
func Dial(ctx context.Context, p *Profile) (Session, error) {
	registryMu.RLock()
	d, ok := registry[p.Driver]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, p.Driver)
	}
	return d(ctx, p)
}
