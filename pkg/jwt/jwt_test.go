package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	token, err := Generate("secret", "u-1", "bodeguero", "serial-inventory", time.Hour)
	require.NoError(t, err)

	id, err := Parse("secret", "serial-inventory", token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u-1", Role: "bodeguero"}, id)
}

func TestParse_Rejects(t *testing.T) {
	valid, err := Generate("secret", "u-1", "admin", "serial-inventory", time.Hour)
	require.NoError(t, err)
	expired, err := Generate("secret", "u-1", "admin", "serial-inventory", -time.Minute)
	require.NoError(t, err)

	_, err = Parse("otro", "serial-inventory", valid)
	assert.Error(t, err, "firma")
	_, err = Parse("secret", "otro-emisor", valid)
	assert.Error(t, err, "emisor")
	_, err = Parse("secret", "serial-inventory", expired)
	assert.Error(t, err, "expirado")
	_, err = Parse("", "", valid)
	assert.Error(t, err, "secret vacío")
}
