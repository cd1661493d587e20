package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerOf(t *testing.T) {
	assert.Equal(t, GuestOwner, OwnerOf(nil))
	assert.True(t, OwnerOf(nil).IsGuest())
	assert.Equal(t, OwnerID("1700000000000"), OwnerOf(&User{ID: 1700000000000}))
}

func TestOwnerIDJSON(t *testing.T) {
	b, err := json.Marshal(CartItem{UserID: OwnerOf(&User{ID: 42})})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"user_id":42`)

	b, err = json.Marshal(CartItem{UserID: GuestOwner})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"user_id":"guest"`)

	var item CartItem
	require.NoError(t, json.Unmarshal([]byte(`{"user_id":7}`), &item))
	assert.Equal(t, OwnerID("7"), item.UserID)
	require.NoError(t, json.Unmarshal([]byte(`{"user_id":"guest"}`), &item))
	assert.True(t, item.UserID.IsGuest())
}

func TestSubtotal(t *testing.T) {
	items := []CartItem{
		{Price: decimal.NewFromInt(120), Quantity: 3},
		{Price: decimal.RequireFromString("80.50"), Quantity: 2},
	}
	assert.True(t, Subtotal(items).Equal(decimal.RequireFromString("521")))
	assert.True(t, Subtotal(nil).IsZero())
}

func TestProductColor(t *testing.T) {
	p := &Product{Colors: []Color{{ID: 101, ColorName: "Red"}}}

	c, ok := p.Color(101)
	require.True(t, ok)
	assert.Equal(t, "Red", c.ColorName)

	_, ok = p.Color(999)
	assert.False(t, ok)
}

func TestUserHasRole(t *testing.T) {
	var anonymous *User
	assert.False(t, anonymous.HasRole(RoleUser))
	assert.True(t, (&User{Role: RoleAdmin}).HasRole(RoleAdmin))
	assert.False(t, (&User{Role: RoleUser}).HasRole(RoleAdmin))
}
