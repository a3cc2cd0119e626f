package db

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

type priced struct {
	Price decimal.Decimal `bson:"price"`
}

func TestDecimalStoredAsDecimal128(t *testing.T) {
	raw, err := bson.MarshalWithRegistry(Registry(), priced{Price: decimal.RequireFromString("12.50")})
	require.NoError(t, err)

	assert.Equal(t, bsontype.Decimal128, bson.Raw(raw).Lookup("price").Type)

	var out priced
	require.NoError(t, bson.UnmarshalWithRegistry(Registry(), raw, &out))
	assert.True(t, out.Price.Equal(decimal.RequireFromString("12.5")))
}

func TestDecimalDecodesLegacyNumbers(t *testing.T) {
	cases := map[string]interface{}{
		"double": 10.5,
		"int32":  int32(7),
		"int64":  int64(9),
		"string": "3.25",
	}
	want := map[string]string{"double": "10.5", "int32": "7", "int64": "9", "string": "3.25"}

	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			raw, err := bson.Marshal(bson.M{"price": v})
			require.NoError(t, err)

			var out priced
			require.NoError(t, bson.UnmarshalWithRegistry(Registry(), raw, &out))
			assert.Equal(t, want[name], out.Price.String())
		})
	}
}
