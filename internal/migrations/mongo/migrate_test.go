package mongo

import (
	"testing"

	mongotx "spadesk/pkg/db/mongo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCollectionsCoverAllStores(t *testing.T) {
	for _, name := range []string{
		mongotx.CustomersCollection,
		mongotx.ServicesCollection,
		mongotx.VisitsCollection,
		mongotx.BookingsCollection,
		mongotx.DepositsCollection,
		mongotx.UsageCollection,
		mongotx.VIPPurchasesCollection,
	} {
		def, ok := Collections[name]
		require.True(t, ok, name)
		assert.NotEmpty(t, def.Indexes, name)
		assert.Contains(t, def.Validator, "$jsonSchema", name)
	}
	assert.Len(t, Collections, 7)
}

func TestUniqueIndexes(t *testing.T) {
	tests := []struct {
		collection string
		key        string
	}{
		{mongotx.CustomersCollection, "phone"},
		{mongotx.ServicesCollection, "code"},
		{mongotx.DepositsCollection, "receipt_number"},
	}

	for _, tt := range tests {
		t.Run(tt.collection, func(t *testing.T) {
			var found bool
			for _, idx := range Collections[tt.collection].Indexes {
				keys := idx.Keys.(bson.D)
				if len(keys) == 1 && keys[0].Key == tt.key {
					require.NotNil(t, idx.Options)
					require.NotNil(t, idx.Options.Unique)
					assert.True(t, *idx.Options.Unique)
					found = true
				}
			}
			assert.True(t, found, "no unique index on %s", tt.key)
		})
	}
}
