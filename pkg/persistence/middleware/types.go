// Package middleware wraps artifact stores with cross-cutting behavior.
//
//	store := middleware.Chain(redis.New(addr, "", 0),
//		middleware.NewMetricsMiddleware(reg, "redis"),
//		encrypt,
//	)
package middleware

import "github.com/aretw0/speriment/pkg/ports"

// Middleware allows wrapping an ArtifactStore to add behavior.
type Middleware func(ports.ArtifactStore) ports.ArtifactStore

// Chain applies mws to store in order; the last one is the outermost.
func Chain(store ports.ArtifactStore, mws ...Middleware) ports.ArtifactStore {
	for _, mw := range mws {
		store = mw(store)
	}
	return store
}
