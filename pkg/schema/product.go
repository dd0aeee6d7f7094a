package schema

import "github.com/hamba/avro/v2"

const ProductSchemaTextV1 = `{
	"type": "record",
	"namespace": "shop.products",
	"name": "product",
	"fields": [
		{"name": "product_id", "type": "string"},
		{"name": "name", "type": "string"},
		{"name": "price", "type": "double"},
		{"name": "category", "type": "string"},
		{"name": "subcategory", "type": "string", "default": ""},
		{"name": "brand", "type": "string", "default": ""},
		{"name": "description", "type": "string", "default": ""},
		{"name": "image", "type": "string", "default": ""},
		{"name": "stock", "type": "long", "default": 0}
	]
}`

const ProductFilterSchemaTextV1 = `{
	"type": "record",
	"namespace": "shop.products",
	"name": "product_filter",
	"fields": [
		{"name": "product_id", "type": "string"},
		{"name": "blocked", "type": "boolean"}
	]
}`

type (
	ProductV1 struct {
		ProductID   string  `avro:"product_id"`
		Name        string  `avro:"name"`
		Price       float64 `avro:"price"`
		Category    string  `avro:"category"`
		Subcategory string  `avro:"subcategory"`
		Brand       string  `avro:"brand"`
		Description string  `avro:"description"`
		Image       string  `avro:"image"`
		Stock       int64   `avro:"stock"`
	}

	ProductFilterV1 struct {
		ProductID string `avro:"product_id"`
		Blocked   bool   `avro:"blocked"`
	}
)

// ProductV1Avro panics if the schema text is invalid.
func ProductV1Avro() avro.Schema {
	return avro.MustParse(ProductSchemaTextV1)
}

// ProductFilterV1Avro panics if the schema text is invalid.
func ProductFilterV1Avro() avro.Schema {
	return avro.MustParse(ProductFilterSchemaTextV1)
}
