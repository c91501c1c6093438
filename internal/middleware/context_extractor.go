// internal/middleware/context_extractor.go
package middleware

import (
	"context"
	"net"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"

	"github.com/gurkanbulca/neighborhelp/pkg/auth"
)

// ContextKeys for storing request metadata
type ContextKey string

const (
	ContextKeyIPAddress ContextKey = "ip_address"
	ContextKeyUserAgent ContextKey = "user_agent"
	ContextKeyRequestID ContextKey = "request_id"
	ContextKeyIdentity  ContextKey = "identity"
)

// ExtractMetadata copies the client address and user agent of an HTTP
// request into its context.
func ExtractMetadata() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if ip := c.ClientIP(); ip != "" {
			ctx = context.WithValue(ctx, ContextKeyIPAddress, ip)
		}
		if ua := c.Request.UserAgent(); ua != "" {
			ctx = context.WithValue(ctx, ContextKeyUserAgent, ua)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// MetadataExtractorInterceptor does the same for gRPC calls.
func MetadataExtractorInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		return handler(enrichContext(ctx), req)
	}
}

// enrichContext extracts IP address and user agent from the context
func enrichContext(ctx context.Context) context.Context {
	if ipAddress := extractIPAddress(ctx); ipAddress != "" {
		ctx = context.WithValue(ctx, ContextKeyIPAddress, ipAddress)
	}
	if userAgent := extractUserAgent(ctx); userAgent != "" {
		ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	}
	return ctx
}

// extractIPAddress extracts the client IP address from the context
func extractIPAddress(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok {
		return ""
	}
	if tcpAddr, ok := p.Addr.(*net.TCPAddr); ok {
		return tcpAddr.IP.String()
	}

	addr := p.Addr.String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// extractUserAgent extracts the user agent from gRPC metadata
func extractUserAgent(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, header := range []string{"user-agent", "grpc-user-agent", "x-user-agent"} {
		if values := md.Get(header); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// WithIdentity returns ctx carrying the authenticated user.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, id)
}

// IdentityFromContext returns the authenticated user, if any.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(ContextKeyIdentity).(auth.Identity)
	return id, ok && id.UserID != ""
}

// GetUserIDFromContext returns the authenticated user id or "".
func GetUserIDFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.UserID
}

// ClientInfo is what request logs record about the caller.
type ClientInfo struct {
	IPAddress string
	UserAgent string
	RequestID string
	UserID    string
	UserRole  string
}

// GetClientInfoFromContext extracts all client information from context
func GetClientInfoFromContext(ctx context.Context) *ClientInfo {
	info := &ClientInfo{}
	info.IPAddress, _ = ctx.Value(ContextKeyIPAddress).(string)
	info.UserAgent, _ = ctx.Value(ContextKeyUserAgent).(string)
	info.RequestID, _ = ctx.Value(ContextKeyRequestID).(string)
	if id, ok := IdentityFromContext(ctx); ok {
		info.UserID = id.UserID
		info.UserRole = id.Role
	}
	return info
}
