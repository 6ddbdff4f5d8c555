package typesense

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingSchema(t *testing.T) {
	schema := ListingSchema()

	assert.Equal(t, ListingsCollection, schema.Name)
	require.NotNil(t, schema.DefaultSortingField)
	assert.Equal(t, "created_at", *schema.DefaultSortingField)

	fields := make(map[string]string, len(schema.Fields))
	for _, f := range schema.Fields {
		fields[f.Name] = f.Type
	}
	assert.Equal(t, "float", fields["price"])
	assert.Equal(t, "string[]", fields["tags"])
	assert.Equal(t, "int32", fields["bedrooms"])
	assert.Equal(t, "int64", fields["created_at"])
}
