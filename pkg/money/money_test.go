package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atelier/storefront/pkg/money"
)

func TestSubtotal(t *testing.T) {
	assert.Equal(t, 90.0, money.Subtotal(45, 2))
	assert.Equal(t, 0.3, money.Subtotal(0.1, 3))
	assert.Equal(t, 0.0, money.Subtotal(295, 0))
}

func TestSum(t *testing.T) {
	assert.Equal(t, 0.3, money.Sum(0.1, 0.2))
	assert.Equal(t, 0.0, money.Sum())
	assert.Equal(t, 385.0, money.Sum(90, 295))
}
