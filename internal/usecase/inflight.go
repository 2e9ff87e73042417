package usecase

import (
	"sync"

	"pasarloka/pkg/errors"
)

// inflightGuard admits one state-changing operation per entity at a time. A
// second request for the same id while one is in flight fails with
// OPERATION_IN_PROGRESS instead of racing the first.
type inflightGuard struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func newInflightGuard() *inflightGuard {
	return &inflightGuard{ids: make(map[string]struct{})}
}

func (g *inflightGuard) begin(entityID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.ids[entityID]; busy {
		return errors.OperationInProgress(entityID)
	}
	g.ids[entityID] = struct{}{}
	return nil
}

func (g *inflightGuard) end(entityID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.ids, entityID)
}
