// Package observability lets a binary attach metrics or tracing to renders
// without the libraries depending on any backend.
//
// Libraries emit events through the registered hooks; main registers its own
// implementation once at startup. Until then every hook is a no-op.
//
//	observability.SetPipelineHooks(&promHooks{})
//
//	observability.Pipeline().OnRenderStart(ctx, renderID, zoom)
//	// ... composite ...
//	observability.Pipeline().OnRenderComplete(ctx, renderID, time.Since(start), err)
package observability

import (
	"context"
	"math/big"
	"sync"
	"time"
)

// PipelineHooks receives events from pipeline.Runner.
type PipelineHooks interface {
	OnResolveStart(ctx context.Context, signalID *big.Int)
	OnResolveComplete(ctx context.Context, signalID *big.Int, duration time.Duration, err error)

	OnRenderStart(ctx context.Context, renderID string, zoom float64)
	OnRenderComplete(ctx context.Context, renderID string, duration time.Duration, err error)
}

// HTTPHooks receives events from the REST clients. Paths never include
// query strings, which may carry access tokens.
type HTTPHooks interface {
	OnRequest(ctx context.Context, service, host, path string)
	OnResponse(ctx context.Context, service, host, path string, statusCode int, duration time.Duration)
	// OnError records a transport failure; no response was received.
	OnError(ctx context.Context, service, host, path string, err error)
}

// NoopPipelineHooks ignores every event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnResolveStart(context.Context, *big.Int)                          {}
func (NoopPipelineHooks) OnResolveComplete(context.Context, *big.Int, time.Duration, error) {}
func (NoopPipelineHooks) OnRenderStart(context.Context, string, float64)                    {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, time.Duration, error)    {}

// NoopHTTPHooks ignores every event.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

var (
	hooksMu       sync.RWMutex
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
)

// SetPipelineHooks registers h. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetHTTPHooks registers h. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores the no-op hooks. Tests use it to clean up.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	httpHooks = NoopHTTPHooks{}
}
