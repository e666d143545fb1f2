package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/dag"
)

// nodeRun is the per-run scheduling record for one node in pool mode.
type nodeRun struct {
	node *dag.Node
	// depCount counts unfinished upstream nodes; the node is ready at zero.
	depCount atomic.Int32
	// dependents holds downstream node names in registration order.
	dependents []string
	// settleOnce guards the skip path so a node is skipped at most once.
	settleOnce sync.Once
}

// runPool executes the graph with a fixed pool of workers. Independent
// branches run concurrently; a failed node's transitive dependents are
// skipped, and under FailFast the whole run is cancelled.
func (e *Executor) runPool(ctx context.Context, rs *runState, order []string) {
	logger := ctxlog.FromContext(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	runs := make(map[string]*nodeRun, len(order))
	for _, name := range order {
		node, ok := e.graph.Node(name)
		if !ok {
			continue
		}
		deps, _ := e.graph.Dependencies(name)
		dependents, _ := e.graph.Dependents(name)
		nr := &nodeRun{node: node, dependents: dependents}
		nr.depCount.Store(int32(len(deps)))
		runs[name] = nr
	}

	readyChan := make(chan *nodeRun, len(runs))
	for _, name := range order {
		if nr := runs[name]; nr.depCount.Load() == 0 {
			readyChan <- nr
		}
	}

	var wg sync.WaitGroup
	wg.Add(len(runs))

	logger.Debug("Starting worker pool.", "workers", e.workers)
	for i := 0; i < e.workers; i++ {
		go e.worker(runCtx, rs, runs, readyChan, cancel, &wg, i)
	}

	wg.Wait()
	close(readyChan)
}

// worker is the processing loop for one pool worker.
func (e *Executor) worker(ctx context.Context, rs *runState, runs map[string]*nodeRun, readyChan chan *nodeRun, cancel context.CancelFunc, wg *sync.WaitGroup, workerID int) {
	logger := ctxlog.FromContext(ctx).With("workerID", workerID)
	logger.Debug("Worker started.")

	for nr := range readyChan {
		if err := ctx.Err(); err != nil {
			e.settleSkip(ctx, rs, runs, nr, err, wg)
			continue
		}

		if err := e.runNode(ctx, rs, nr.node); err != nil {
			if e.policy == FailFast {
				cancel()
			}
			e.skipDependents(ctx, rs, runs, nr, wg)
			wg.Done()
			continue
		}

		for _, name := range nr.dependents {
			dependent := runs[name]
			if dependent.depCount.Add(-1) == 0 {
				readyChan <- dependent
			}
		}
		wg.Done()
	}
	logger.Debug("Worker finished.")
}

// settleSkip marks a node skipped exactly once and cascades to its
// dependents, keeping the WaitGroup balanced.
func (e *Executor) settleSkip(ctx context.Context, rs *runState, runs map[string]*nodeRun, nr *nodeRun, reason error, wg *sync.WaitGroup) {
	nr.settleOnce.Do(func() {
		rs.recordSkip(nr.node.Name, reason)
		wg.Done()
		e.skipDependents(ctx, rs, runs, nr, wg)
	})
}

// skipDependents recursively skips every downstream node of a failed or
// skipped node. A skipped node's depCount never reaches zero, so it cannot
// also arrive on the ready channel.
func (e *Executor) skipDependents(ctx context.Context, rs *runState, runs map[string]*nodeRun, nr *nodeRun, wg *sync.WaitGroup) {
	logger := ctxlog.FromContext(ctx)
	for _, name := range nr.dependents {
		dependent := runs[name]
		dependent.settleOnce.Do(func() {
			logger.Warn("Skipping dependent node due to upstream failure.", "node", name, "dependency", nr.node.Name)
			rs.recordSkip(name, fmt.Errorf("skipped due to upstream failure of '%s'", nr.node.Name))
			wg.Done()
			e.skipDependents(ctx, rs, runs, dependent, wg)
		})
	}
}
