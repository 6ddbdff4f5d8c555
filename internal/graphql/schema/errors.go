package schema

import (
	"context"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

// PresentError exposes AppError types as the "code" extension. Internal
// failures keep their path but lose their message.
func PresentError(ctx context.Context, err error) *gqlerror.Error {
	gqlErr := graphql.DefaultErrorPresenter(ctx, err)

	appErr, ok := apperrors.As(err)
	if !ok {
		return gqlErr
	}

	if gqlErr.Extensions == nil {
		gqlErr.Extensions = map[string]interface{}{}
	}
	gqlErr.Extensions["code"] = string(appErr.Type)
	if appErr.Field != "" {
		gqlErr.Extensions["field"] = appErr.Field
	}

	switch appErr.Type {
	case apperrors.ErrorTypeInternal, apperrors.ErrorTypeStorageUnavailable, apperrors.ErrorTypeAggregationFailure:
		logger := observability.LoggerFromContext(ctx)
		logger.Error().Err(err).Str("path", gqlErr.Path.String()).Msg("graphql resolver failed")
		gqlErr.Message = string(appErr.Type)
	default:
		gqlErr.Message = appErr.Message
	}
	return gqlErr
}
