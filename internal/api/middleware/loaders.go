package middleware

import (
	"net/http"

	"github.com/zatekoja/propertymarket/backend/internal/application/loaders"
	"github.com/zatekoja/propertymarket/backend/internal/domain/repositories"
)

// DataLoaderMiddleware attaches fresh request-scoped dataloaders
func DataLoaderMiddleware(userRepo repositories.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := loaders.WithLoaders(r.Context(), loaders.NewLoaders(userRepo))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
