package ports

import "context"

// Logger is the leveled logging port shared by every layer. The context is
// threaded through for implementations that extract trace or request
// metadata; the stderr adapter ignores it. Fields is variadic so call sites
// without structured data stay short; only the first map is read.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...map[string]interface{})
	Info(ctx context.Context, msg string, fields ...map[string]interface{})
	Warn(ctx context.Context, msg string, fields ...map[string]interface{})
	// Error takes the error alongside the message so adapters can render
	// it separately from the free text.
	Error(ctx context.Context, err error, msg string, fields ...map[string]interface{})
}
