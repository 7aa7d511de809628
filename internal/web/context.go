package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/datagrid/internal/backend/rest"
	"github.com/JonMunkholm/datagrid/internal/core"
)

// requestMetadata stores the caller's user ID and IP address in the request
// context. The IP is already resolved by TrustedRealIP.
func requestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(withRequestMetadata(r.Context(), r)))
	})
}

func withRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	ctx = core.ContextWithIPAddress(ctx, ip)
	if user := r.Header.Get(rest.HeaderUserID); user != "" {
		ctx = core.ContextWithUserID(ctx, user)
	}
	return ctx
}

type tableContextKey struct{}

// requireTable resolves {endpoint} against the table registry and stores the
// definition in the request context. Unknown tables get a 404.
func (s *Server) requireTable(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		def, err := core.Lookup(endpointParam(r))
		if err != nil {
			respondError(w, r, err, http.StatusNotFound)
			return
		}
		ctx := context.WithValue(r.Context(), tableContextKey{}, def)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// tableFrom returns the definition stored by requireTable.
func tableFrom(r *http.Request) core.TableDefinition {
	def, _ := r.Context().Value(tableContextKey{}).(core.TableDefinition)
	return def
}
