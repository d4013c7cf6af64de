package cli

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// ShutdownSignals are the signals that stop a running server.
var ShutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// SignalContext is cancelled by the first shutdown signal and remembers it.
type SignalContext struct {
	context.Context
	cancel context.CancelFunc
	got    atomic.Pointer[os.Signal]
}

// NewSignalContext returns a context cancelled on SIGINT or SIGTERM.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{Context: ctx, cancel: cancel}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, ShutdownSignals...)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			sc.got.Store(&sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return sc
}

// Cancel releases the context and stops signal delivery.
func (sc *SignalContext) Cancel() { sc.cancel() }

// Signal returns the signal that stopped the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	if p := sc.got.Load(); p != nil {
		return *p
	}
	return nil
}
