package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/sydneydb/sydney/internal/fileparam"
	lf "github.com/sydneydb/sydney/internal/logicalfile"
	"github.com/sydneydb/sydney/internal/merge"
)

// driverMerger implements merge.Merger by dispatching each reserved
// entry to the FileDriver.Compact method of whichever driver owns that
// file, keeping internal/merge itself free of btreedriver/kdtreedriver
// knowledge (DESIGN.md's stated seam). Drivers register themselves as
// they're opened by the session/execruntime layer.
type driverMerger struct {
	mu      sync.RWMutex
	drivers map[string]lf.FileDriver
}

func newDriverMerger() *driverMerger {
	return &driverMerger{drivers: make(map[string]lf.FileDriver)}
}

func (m *driverMerger) Register(id fileparam.FileIdentity, driver lf.FileDriver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[mergeFileKey(id)] = driver
}

func (m *driverMerger) Unregister(id fileparam.FileIdentity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drivers, mergeFileKey(id))
}

func (m *driverMerger) Merge(ctx context.Context, e merge.Entry) error {
	m.mu.RLock()
	driver, ok := m.drivers[mergeFileKey(e.File)]
	m.mu.RUnlock()
	if !ok {
		return lf.ErrFileNotFound
	}
	return driver.Compact(ctx)
}

func mergeFileKey(id fileparam.FileIdentity) string {
	return fmt.Sprintf("%d.%d.%d", id.DatabaseID, id.TableID, id.FileID)
}
