package impls

import (
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sungeunk/openvino/gpu/backends"
	"github.com/sungeunk/openvino/gpu/graph"
	"github.com/sungeunk/openvino/gpu/kernels"
	"github.com/sungeunk/openvino/internal/cacheguard"
	"k8s.io/klog/v2"
)

// ParamsBuilder converts a graph node's attributes and layouts into the
// normalized parameter record understood by kernel selection, including the
// conditional optional inputs. One exists per operator family per engine.
type ParamsBuilder func(node *graph.Node) (kernels.Params, kernels.Options, error)

// NewFactory wraps a ParamsBuilder into the generic dispatch sequence shared
// by every operator family: build parameters, ask the operator's kernel
// selector for ranked candidates, and materialize the best one.
func NewFactory(builder ParamsBuilder) Factory {
	return func(node *graph.Node) (*Compiled, error) {
		if node.CanBeOptimized {
			// No-op views need no kernel; the execution runtime bypasses them.
			return &Compiled{NodeID: node.ID, canBeOptimized: true}, nil
		}
		params, opts, err := builder(node)
		if err != nil {
			// Builder failures carry the same diagnostics as selection
			// failures: the failing node and its dispatch key.
			return nil, &SelectionError{NodeID: node.ID, Key: keyFor(node), Err: err}
		}
		best := kernels.SelectorFor(node.OpType()).BestKernels(params, opts)
		if len(best) == 0 {
			return nil, &SelectionError{NodeID: node.ID, Key: keyFor(node), Err: ErrNoViableKernel}
		}
		// The selector owns the ranking; the driver always takes the first.
		return &Compiled{NodeID: node.ID, Kernel: best[0]}, nil
	}
}

var freezeOnce sync.Once

// Select chooses the concrete implementation for one graph node. It is
// invoked once per node during graph compilation and may run concurrently
// for independent nodes.
//
// Failures are returned as a *SelectionError carrying the node id and
// dispatch key and wrapping the underlying cause: ErrNoImplementationFound,
// ErrNoViableKernel, ErrUnsupportedAxis or a parameter-builder validation
// error. All are fatal to the compilation of the node's graph.
func Select(node *graph.Node) (*Compiled, error) {
	freezeOnce.Do(Freeze)

	op := node.OpType()
	key := keyFor(node)
	if caps, found := backends.CapabilitiesOf(node.Engine); found {
		if !caps.SupportsOp(op) || !caps.SupportsDType(key.DType) {
			return nil, &SelectionError{NodeID: node.ID, Key: key, Err: ErrNoImplementationFound}
		}
	}
	factory := lookup(op, key)
	if factory == nil {
		return nil, &SelectionError{NodeID: node.ID, Key: key, Err: ErrNoImplementationFound}
	}
	compiled, err := factory(node)
	if err != nil {
		return nil, err
	}
	if klog.V(2).Enabled() {
		out := node.OutputLayout()
		klog.Infof("impls: node %q (%s, key %s) -> kernel %q, output %s (%s)",
			node.ID, op, key, compiled.Kernel.Name, out, humanize.Bytes(uint64(out.Memory())))
	}
	return compiled, nil
}

// compileGuard serializes concurrent compilations of the same cached program
// artifact: two goroutines compiling the same program id run one at a time,
// unrelated programs run in parallel.
var compileGuard = cacheguard.New()

// CompileProgram selects an implementation for every node of the program,
// compiling independent nodes concurrently. The first failing node aborts
// the whole compilation.
//
// The result maps node id to its compiled implementation, which the caller
// hands over to each node.
func CompileProgram(p *graph.Program) (map[string]*Compiled, error) {
	entry := compileGuard.Lock(p.ID.String())
	defer entry.Unlock()

	compiledPerNode := make(map[string]*Compiled, len(p.Nodes))
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	for _, node := range p.Nodes {
		wg.Add(1)
		go func(node *graph.Node) {
			defer wg.Done()
			compiled, err := Select(node)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			compiledPerNode[node.ID] = compiled
		}(node)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, errors.WithMessagef(firstErr, "compiling program %s", p.ID)
	}
	return compiledPerNode, nil
}
