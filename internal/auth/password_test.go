package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	pm := NewPasswordManager(bcrypt.MinCost)

	hash, err := pm.HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	ok, err := pm.VerifyPassword(hash, "s3cret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = pm.VerifyPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashesAreSalted(t *testing.T) {
	pm := NewPasswordManager(bcrypt.MinCost)

	a, err := pm.HashPassword("same")
	require.NoError(t, err)
	b, err := pm.HashPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyMalformedHash(t *testing.T) {
	pm := NewPasswordManager(bcrypt.MinCost)

	ok, err := pm.VerifyPassword("not-a-hash", "anything")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestCostFallsBackToDefault(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordManager(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordManager(99).cost)
	assert.Equal(t, bcrypt.MinCost, NewPasswordManager(bcrypt.MinCost).cost)
}

func TestBurnCompare(t *testing.T) {
	pm := NewPasswordManager(bcrypt.MinCost)
	pm.BurnCompare("anything")
	pm.BurnCompare("again")

	cost, err := bcrypt.Cost(pm.dummy)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}
