package scalars

import (
	"time"

	"github.com/99designs/gqlgen/graphql"
)

// MarshalDateTime writes t as an RFC 3339 UTC string. The zero time is null.
func MarshalDateTime(t time.Time) graphql.Marshaler {
	if t.IsZero() {
		return graphql.Null
	}
	return graphql.MarshalString(t.UTC().Format(time.RFC3339))
}

// MarshalOptionalInt writes n, or null when it is nil.
func MarshalOptionalInt(n *int) graphql.Marshaler {
	if n == nil {
		return graphql.Null
	}
	return graphql.MarshalInt(*n)
}

// MarshalStrings writes a non-null list of strings. A nil slice is [].
func MarshalStrings(values []string) graphql.Marshaler {
	out := make(graphql.Array, len(values))
	for i, v := range values {
		out[i] = graphql.MarshalString(v)
	}
	return out
}
