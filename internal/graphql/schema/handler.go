package schema

import (
	"context"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/zatekoja/propertymarket/backend/internal/graphql/resolvers"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/observability"
)

// NewHandler builds the /graphql endpoint. Loaders and claims are expected on
// the request context from the shared middleware chain.
func NewHandler(resolver *resolvers.Resolver) http.Handler {
	srv := handler.New(NewExecutableSchema(resolver))

	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})

	srv.SetQueryCache(lru.New[*ast.QueryDocument](1000))
	srv.SetErrorPresenter(PresentError)
	srv.Use(OperationLogger{})

	return srv
}

// OperationLogger logs each executed operation with its duration
type OperationLogger struct{}

var _ interface {
	graphql.HandlerExtension
	graphql.ResponseInterceptor
} = OperationLogger{}

// ExtensionName implements graphql.HandlerExtension
func (OperationLogger) ExtensionName() string {
	return "OperationLogger"
}

// Validate implements graphql.HandlerExtension
func (OperationLogger) Validate(graphql.ExecutableSchema) error {
	return nil
}

// InterceptResponse implements graphql.ResponseInterceptor
func (OperationLogger) InterceptResponse(ctx context.Context, next graphql.ResponseHandler) *graphql.Response {
	start := time.Now()
	resp := next(ctx)
	if resp == nil {
		return nil
	}

	logger := observability.LoggerFromContext(ctx)
	event := logger.Debug()
	if len(resp.Errors) > 0 {
		event = logger.Warn().Int("errors", len(resp.Errors))
	}
	if graphql.HasOperationContext(ctx) {
		opCtx := graphql.GetOperationContext(ctx)
		event = event.Str("operation", opCtx.OperationName)
	}
	event.Dur("duration", time.Since(start)).Msg("graphql")
	return resp
}
