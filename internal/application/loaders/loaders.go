package loaders

import (
	"context"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Loaders contains the request-scoped dataloaders
type Loaders struct {
	AgentLoader *dataloader.Loader[string, *entities.User]
}

// NewLoaders creates a new instance of Loaders. Loaders cache per instance,
// so build one per request.
func NewLoaders(userRepo repositories.UserRepository) *Loaders {
	return &Loaders{
		AgentLoader: dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[*entities.User] {
			results := make([]*dataloader.Result[*entities.User], len(keys))
			users, err := userRepo.GetByIDs(ctx, keys)

			userMap := make(map[string]*entities.User)
			if err == nil {
				for _, u := range users {
					userMap[u.ID] = u
				}
			}

			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[*entities.User]{Error: err}
				} else if u, ok := userMap[key]; ok {
					results[i] = &dataloader.Result[*entities.User]{Data: u}
				} else {
					results[i] = &dataloader.Result[*entities.User]{Error: apperrors.NewNotFoundError("agent " + key + " not found")}
				}
			}
			return results
		}, dataloader.WithWait[string, *entities.User](2*time.Millisecond)),
	}
}

// For returns the loaders for a given context, or nil if none are attached
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

// LoadAgents resolves agent summaries for ids in one batch. Missing agents
// are left out of the result.
func (l *Loaders) LoadAgents(ctx context.Context, ids []string) map[string]*entities.AgentSummary {
	out := make(map[string]*entities.AgentSummary, len(ids))
	if len(ids) == 0 {
		return out
	}

	users, errs := l.AgentLoader.LoadMany(ctx, ids)()
	for i, u := range users {
		if i < len(errs) && errs[i] != nil {
			continue
		}
		if u != nil {
			out[u.ID] = u.Summary()
		}
	}
	return out
}
