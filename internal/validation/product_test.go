package validation_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog/internal/models"
	"catalog/internal/validation"
)

const validPen = `{"name":"Pen","description":"Blue pen","price":1.5,"category":"Office","stock":10}`

func TestValidate_FullValid(t *testing.T) {
	v := validation.NewProductValidator()

	input, errs := v.Validate([]byte(validPen), validation.Full)

	require.Nil(t, errs)
	require.NotNil(t, input)
	assert.Equal(t, "Pen", *input.Name)
	assert.Equal(t, "Blue pen", *input.Description)
	assert.True(t, decimal.NewFromFloat(1.5).Equal(*input.Price))
	assert.Equal(t, "Office", *input.Category)
	assert.Equal(t, int64(10), *input.Stock)
	assert.Equal(t, models.StatusAvailable, *input.Status)
	assert.Nil(t, input.ImageURL)
}

func TestValidate_FullDefaults(t *testing.T) {
	v := validation.NewProductValidator()

	input, errs := v.Validate([]byte(`{"name":"Pen","description":"Blue pen","price":2,"category":"Office"}`), validation.Full)

	require.Nil(t, errs)
	assert.Equal(t, int64(0), *input.Stock)
	assert.Equal(t, models.StatusAvailable, *input.Status)
}

func TestValidate_CoercesNumericStrings(t *testing.T) {
	v := validation.NewProductValidator()

	input, errs := v.Validate([]byte(`{"name":"Pen","description":"Blue pen","price":" 3.25 ","category":"Office","stock":"7"}`), validation.Full)

	require.Nil(t, errs)
	assert.Equal(t, "3.25", input.Price.String())
	assert.Equal(t, int64(7), *input.Stock)
}

func TestValidate_StripsUnknownFields(t *testing.T) {
	v := validation.NewProductValidator()

	body := `{"id":99,"createdAt":"yesterday","name":"Pen","description":"Blue pen","price":1,"category":"Office","color":"blue"}`
	input, errs := v.Validate([]byte(body), validation.Full)

	require.Nil(t, errs)
	assert.Equal(t, "Pen", *input.Name)
}

func TestValidate_FieldErrors(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		mode     validation.Mode
		expected []validation.FieldError
	}{
		{
			name: "missing required fields",
			body: `{}`,
			mode: validation.Full,
			expected: []validation.FieldError{
				{Field: "name", Reason: "name is required"},
				{Field: "description", Reason: "description is required"},
				{Field: "price", Reason: "price is required"},
				{Field: "category", Reason: "category is required"},
			},
		},
		{
			name: "short strings",
			body: `{"name":"P","description":"ab","price":1,"category":"O"}`,
			mode: validation.Full,
			expected: []validation.FieldError{
				{Field: "name", Reason: "name must be at least 2 characters long"},
				{Field: "description", Reason: "description must be at least 3 characters long"},
				{Field: "category", Reason: "category must be at least 2 characters long"},
			},
		},
		{
			name:     "zero price on create",
			body:     `{"name":"Pen","description":"Blue pen","price":0,"category":"Office"}`,
			mode:     validation.Full,
			expected: []validation.FieldError{{Field: "price", Reason: "price must be a positive number"}},
		},
		{
			name:     "negative price on update",
			body:     `{"price":-4.2}`,
			mode:     validation.Partial,
			expected: []validation.FieldError{{Field: "price", Reason: "price must be a positive number"}},
		},
		{
			name:     "price below one cent",
			body:     `{"price":0.001}`,
			mode:     validation.Partial,
			expected: []validation.FieldError{{Field: "price", Reason: "price must be a positive number"}},
		},
		{
			name:     "price above column range",
			body:     `{"price":100000000}`,
			mode:     validation.Partial,
			expected: []validation.FieldError{{Field: "price", Reason: "price must not exceed 99999999.99"}},
		},
		{
			name:     "price rounding past column range",
			body:     `{"price":99999999.995}`,
			mode:     validation.Partial,
			expected: []validation.FieldError{{Field: "price", Reason: "price must not exceed 99999999.99"}},
		},
		{
			name:     "price beyond float range",
			body:     `{"name":"Pen","description":"Blue pen","price":1e400,"category":"Office"}`,
			mode:     validation.Full,
			expected: []validation.FieldError{{Field: "price", Reason: "price is out of range"}},
		},
		{
			name:     "price with huge exponent",
			body:     `{"price":"1e40000000"}`,
			mode:     validation.Partial,
			expected: []validation.FieldError{{Field: "price", Reason: "price is out of range"}},
		},
		{
			name:     "price with huge negative exponent",
			body:     `{"price":1e-40000000}`,
			mode:     validation.Partial,
			expected: []validation.FieldError{{Field: "price", Reason: "price is out of range"}},
		},
		{
			name:     "price with too many digits",
			body:     `{"price":"1.` + strings.Repeat("0", 100) + `1"}`,
			mode:     validation.Partial,
			expected: []validation.FieldError{{Field: "price", Reason: "price is out of range"}},
		},
		{
			name:     "stock with huge exponent",
			body:     `{"stock":1e40000000}`,
			mode:     validation.Partial,
			expected: []validation.FieldError{{Field: "stock", Reason: "stock is out of range"}},
		},
		{
			name:     "stock beyond int64",
			body:     `{"stock":9223372036854775808}`,
			mode:     validation.Partial,
			expected: []validation.FieldError{{Field: "stock", Reason: "stock is out of range"}},
		},
		{
			name:     "negative stock",
			body:     `{"stock":-1}`,
			mode:     validation.Partial,
			expected: []validation.FieldError{{Field: "stock", Reason: "stock must not be negative"}},
		},
		{
			name:     "fractional stock",
			body:     `{"stock":1.5}`,
			mode:     validation.Partial,
			expected: []validation.FieldError{{Field: "stock", Reason: "stock must be a whole number"}},
		},
		{
			name:     "non numeric stock",
			body:     `{"stock":"lots"}`,
			mode:     validation.Partial,
			expected: []validation.FieldError{{Field: "stock", Reason: "stock must be a number"}},
		},
		{
			name:     "boolean price",
			body:     `{"price":true}`,
			mode:     validation.Partial,
			expected: []validation.FieldError{{Field: "price", Reason: "price must be a number"}},
		},
		{
			name:     "unknown status",
			body:     `{"status":"archived"}`,
			mode:     validation.Partial,
			expected: []validation.FieldError{{Field: "status", Reason: "status must be one of: available, unavailable"}},
		},
		{
			name:     "invalid image url",
			body:     `{"imageUrl":"not-a-url"}`,
			mode:     validation.Partial,
			expected: []validation.FieldError{{Field: "imageUrl", Reason: "imageUrl must be a valid URL"}},
		},
		{
			name: "null name reported once",
			body: `{"name":null,"description":"Blue pen","price":1,"category":"Office"}`,
			mode: validation.Full,
			expected: []validation.FieldError{
				{Field: "name", Reason: "name must be a string"},
			},
		},
		{
			name:     "array body",
			body:     `[1,2]`,
			mode:     validation.Full,
			expected: []validation.FieldError{{Field: validation.BodyField, Reason: "payload must be a JSON object"}},
		},
		{
			name:     "null body",
			body:     `null`,
			mode:     validation.Partial,
			expected: []validation.FieldError{{Field: validation.BodyField, Reason: "payload must be a JSON object"}},
		},
		{
			name:     "truncated body",
			body:     `{"name":`,
			mode:     validation.Partial,
			expected: []validation.FieldError{{Field: validation.BodyField, Reason: "payload is not valid JSON"}},
		},
		{
			name:     "stray closing brace",
			body:     `{"stock":1}}`,
			mode:     validation.Partial,
			expected: []validation.FieldError{{Field: validation.BodyField, Reason: "payload is not valid JSON"}},
		},
		{
			name:     "trailing second object",
			body:     `{"stock":1} {"stock":2}`,
			mode:     validation.Partial,
			expected: []validation.FieldError{{Field: validation.BodyField, Reason: "payload is not valid JSON"}},
		},
	}

	v := validation.NewProductValidator()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			input, errs := v.Validate([]byte(tc.body), tc.mode)

			assert.Nil(t, input)
			assert.Equal(t, tc.expected, errs)
		})
	}
}

func TestValidate_PartialSubset(t *testing.T) {
	v := validation.NewProductValidator()

	input, errs := v.Validate([]byte(`{"stock":0}`), validation.Partial)

	require.Nil(t, errs)
	require.NotNil(t, input.Stock)
	assert.Equal(t, int64(0), *input.Stock)
	assert.Nil(t, input.Name)
	assert.Nil(t, input.Price)
	assert.Nil(t, input.Status, "partial mode applies no defaults")
}

func TestValidate_PartialEmptyBody(t *testing.T) {
	v := validation.NewProductValidator()

	for _, body := range []string{"", "  ", "{}"} {
		input, errs := v.Validate([]byte(body), validation.Partial)
		require.Nil(t, errs, "body %q", body)
		assert.Equal(t, &validation.ProductInput{}, input)
	}
}

func TestValidate_LengthCountsCharacters(t *testing.T) {
	v := validation.NewProductValidator()

	// Two runes, four bytes.
	input, errs := v.Validate([]byte(`{"name":"çã"}`), validation.Partial)

	require.Nil(t, errs)
	assert.Equal(t, "çã", *input.Name)
}

func TestProductInput_ApplyTo(t *testing.T) {
	url := "https://example.com/old.png"
	product := models.Product{
		ID:          3,
		Name:        "Pen",
		Description: "Blue pen",
		Price:       decimal.NewFromFloat(1.5),
		ImageURL:    &url,
		Category:    "Office",
		Stock:       10,
		Status:      models.StatusAvailable,
	}

	stock := int64(0)
	status := models.StatusUnavailable
	input := validation.ProductInput{Stock: &stock, Status: &status}
	input.ApplyTo(&product)

	assert.Equal(t, int64(0), product.Stock)
	assert.Equal(t, models.StatusUnavailable, product.Status)
	assert.Equal(t, "Pen", product.Name)
	assert.Equal(t, "Blue pen", product.Description)
	assert.Equal(t, "1.5", product.Price.String())
	assert.Equal(t, "Office", product.Category)
	require.NotNil(t, product.ImageURL)
	assert.Equal(t, url, *product.ImageURL)
}

func TestValidate_PriceUpperBound(t *testing.T) {
	v := validation.NewProductValidator()

	input, errs := v.Validate([]byte(`{"price":"99999999.99","stock":"9223372036854775807"}`), validation.Partial)

	require.Nil(t, errs)
	assert.Equal(t, "99999999.99", input.Price.String())
	assert.Equal(t, int64(9223372036854775807), *input.Stock)
}

func TestValidate_HugeExponentsAnswerQuickly(t *testing.T) {
	v := validation.NewProductValidator()

	for _, body := range []string{
		`{"price":"1e40000000"}`,
		`{"price":"-1e-40000000"}`,
		`{"stock":"1e-40000000"}`,
		`{"stock":"9e2147483647"}`,
	} {
		start := time.Now()
		input, errs := v.Validate([]byte(body), validation.Partial)
		assert.Nil(t, input, "body %s", body)
		assert.Len(t, errs, 1, "body %s", body)
		assert.Less(t, time.Since(start), time.Second, "body %s", body)
	}
}
