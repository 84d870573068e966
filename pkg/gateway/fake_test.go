package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

var testNetwork = NetworkDescriptor{Name: "homestead", ChainID: 1, ENSAddress: "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"}

var errProbe = errors.New("connection refused")

type fakeEndpoint struct {
	name    string
	network NetworkDescriptor

	probe   func(ctx context.Context) (uint64, error)
	perform func(ctx context.Context, method string, params any) (any, error)

	probes   atomic.Int32
	performs atomic.Int32

	mu      sync.Mutex
	methods []string
}

func newFake(name string) *fakeEndpoint {
	return &fakeEndpoint{
		name:    name,
		network: testNetwork,
		probe: func(context.Context) (uint64, error) {
			return 100, nil
		},
		perform: func(_ context.Context, method string, _ any) (any, error) {
			if method == MethodSendTransaction {
				return "0xhash-" + name, nil
			}
			return name, nil
		},
	}
}

// slowFake advances clk by latency during every probe.
func slowFake(name string, clk *clock.Mock, latency time.Duration) *fakeEndpoint {
	f := newFake(name)
	f.probe = func(context.Context) (uint64, error) {
		clk.Add(latency)
		return 100, nil
	}
	return f
}

func failingFake(name string) *fakeEndpoint {
	f := newFake(name)
	f.probe = func(context.Context) (uint64, error) {
		return 0, errProbe
	}
	return f
}

func (f *fakeEndpoint) Name() string               { return f.name }
func (f *fakeEndpoint) Network() NetworkDescriptor { return f.network }

func (f *fakeEndpoint) BlockNumber(ctx context.Context) (uint64, error) {
	f.probes.Add(1)
	return f.probe(ctx)
}

func (f *fakeEndpoint) Perform(ctx context.Context, method string, params any) (any, error) {
	f.performs.Add(1)
	f.mu.Lock()
	f.methods = append(f.methods, method)
	f.mu.Unlock()
	return f.perform(ctx, method, params)
}

// limitedEndpoint only serves the listed methods.
type limitedEndpoint struct {
	*fakeEndpoint
	supported map[string]bool
}

func (l *limitedEndpoint) Supports(method string) bool { return l.supported[method] }

type recordingObserver struct {
	mu          sync.Mutex
	evaluations []EvaluationEvent
	broadcasts  []BroadcastEvent
}

func (o *recordingObserver) ObserveEvaluation(ev EvaluationEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.evaluations = append(o.evaluations, ev)
}

func (o *recordingObserver) ObserveBroadcast(ev BroadcastEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.broadcasts = append(o.broadcasts, ev)
}

func endpoints(fakes ...*fakeEndpoint) []Endpoint {
	out := make([]Endpoint, len(fakes))
	for i, f := range fakes {
		out[i] = f
	}
	return out
}
