package schema

import (
	"testing"

	"github.com/hamba/avro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductV1(t *testing.T) {
	t.Run("Regular", func(t *testing.T) {
		vMarshal := ProductV1{
			ProductID:   "0b0e7a52-3c1d-4f7a-9b8e-000000000001",
			Name:        "Leather Bag",
			Price:       89.5,
			Category:    "Accessories",
			Subcategory: "Bags",
			Brand:       "Acme",
			Description: "Brown leather travel bag",
			Image:       "https://img.example/bag.png",
			Stock:       12,
		}

		var productSchema avro.Schema
		require.NotPanics(t, func() {
			productSchema = ProductV1Avro()
		})

		data, err := avro.Marshal(productSchema, vMarshal)
		require.NoError(t, err)

		var vUnmarshal ProductV1
		err = avro.Unmarshal(productSchema, data, &vUnmarshal)
		require.NoError(t, err)
		assert.Equal(t, vMarshal, vUnmarshal)
	})

	t.Run("MissingRequiredField", func(t *testing.T) {
		_, err := avro.Marshal(ProductV1Avro(), struct {
			ProductID string `avro:"product_id"`
		}{"x"})
		assert.Error(t, err)
	})
}

func TestProductFilterV1(t *testing.T) {
	vMarshal := ProductFilterV1{
		ProductID: "0b0e7a52-3c1d-4f7a-9b8e-000000000001",
		Blocked:   true,
	}

	var fSchema avro.Schema
	require.NotPanics(t, func() {
		fSchema = ProductFilterV1Avro()
	})

	data, err := avro.Marshal(fSchema, vMarshal)
	require.NoError(t, err)

	var vUnmarshal ProductFilterV1
	err = avro.Unmarshal(fSchema, data, &vUnmarshal)
	require.NoError(t, err)
	assert.Equal(t, vMarshal, vUnmarshal)
}
