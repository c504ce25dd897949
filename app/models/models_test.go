package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier/storefront/app/models"
)

func TestUserJSONOmitsHash(t *testing.T) {
	u := models.User{ID: "u-1", Username: "ada", Email: "ada@example.com", PasswordHash: "$2a$10$x", CreatedAt: time.Now()}

	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "$2a$")
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range models.OrderStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, models.OrderStatus("refunded").Valid())
	assert.False(t, models.OrderStatus("").Valid())
}

func TestProductPatchApply(t *testing.T) {
	p := models.Product{Name: "Navy Polo", Price: 65, Sizes: []string{"M"}, Stock: 3}
	price := 59.5
	sizes := []string{"S", "M"}
	patch := models.ProductPatch{Price: &price, Sizes: &sizes}

	assert.False(t, patch.Empty())
	patch.Apply(&p)

	assert.Equal(t, "Navy Polo", p.Name)
	assert.Equal(t, 59.5, p.Price)
	assert.Equal(t, []string{"S", "M"}, p.Sizes)
	assert.Equal(t, 3, p.Stock)

	sizes[0] = "XXL"
	assert.Equal(t, "S", p.Sizes[0], "patch slices are copied")
	assert.True(t, models.ProductPatch{}.Empty())
}

func TestProductPatchNullIsOmitted(t *testing.T) {
	var patch models.ProductPatch
	require.NoError(t, json.Unmarshal([]byte(`{"name":null,"stock":0}`), &patch))

	assert.Nil(t, patch.Name)
	require.NotNil(t, patch.Stock)
	assert.Equal(t, 0, *patch.Stock)
}

func TestSameVariant(t *testing.T) {
	a := models.CartLine{ProductID: "p-1", Size: "M", Color: "Black"}
	assert.True(t, a.SameVariant(models.CartLine{ID: "other", ProductID: "p-1", Size: "M", Color: "Black", Quantity: 9}))
	assert.False(t, a.SameVariant(models.CartLine{ProductID: "p-1", Size: "L", Color: "Black"}))
}
