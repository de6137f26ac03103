// Package tracing wires the optional Langfuse callback handler into the eino
// model calls made by the recommend agent.
package tracing

import (
	"log/slog"
	"os"

	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"
)

// Setup registers the Langfuse callback handler globally when
// LANGFUSE_PUBLIC_KEY and LANGFUSE_SECRET_KEY are set, and logs whether
// tracing is active. It returns a flush function that must be called before
// process exit so buffered traces are sent; when tracing is unconfigured the
// flush is a no-op, so callers can always `defer flush()`.
func Setup(log *slog.Logger) (flush func(), ok bool) {
	publicKey := os.Getenv("LANGFUSE_PUBLIC_KEY")
	secretKey := os.Getenv("LANGFUSE_SECRET_KEY")
	if publicKey == "" || secretKey == "" {
		log.Info("langfuse tracing disabled",
			slog.String("reason", "LANGFUSE_PUBLIC_KEY or LANGFUSE_SECRET_KEY not set"),
		)
		return func() {}, false
	}

	host := os.Getenv("LANGFUSE_HOST")
	if host == "" {
		host = "http://localhost:3000"
	}

	handler, flusher := langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      host,
		PublicKey: publicKey,
		SecretKey: secretKey,
	})
	callbacks.AppendGlobalHandlers(handler)

	log.Info("langfuse tracing enabled", slog.String("host", host))
	return flusher, true
}
