package goStepUp

import (
	"context"

	"github.com/MrEthical07/goStepUp/session"
)

type clientIPContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The engine uses it
// for the guest send quota and audit events when a [Request] carries none.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

// requestContext binds the session and client IP of req to ctx.
func requestContext(ctx context.Context, req Request) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if req.SessionID != "" {
		ctx = session.WithID(ctx, req.SessionID)
	}
	if req.ClientIP != "" {
		ctx = WithClientIP(ctx, req.ClientIP)
	}
	return ctx
}
