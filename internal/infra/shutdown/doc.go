// Package shutdown coordinates process termination.
//
//	ctx, stop := shutdown.SignalContext(context.Background())
//	defer stop()
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(provider.Close)
//	defer h.Shutdown()
//
// SignalContext cancels on SIGINT or SIGTERM so in-flight provider calls
// stop early. Hooks run once, newest first.
package shutdown
