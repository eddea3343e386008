package codevault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVault_RoundTrip(t *testing.T) {
	vault, err := New(nil)
	require.NoError(t, err)

	codes := []string{"123456", "A1B2C3D4", "кодпитания99"}
	for _, code := range codes {
		ct, err := vault.Encrypt(code)
		require.NoError(t, err)
		assert.NotContains(t, string(ct), code)

		plain, err := vault.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, code, plain)
	}

	// Однобайтовый код: случайный шифртекст может содержать любой отдельный
	// байт, поэтому проверяем только обратимость.
	ct, err := vault.Encrypt("x")
	require.NoError(t, err)
	plain, err := vault.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "x", plain)
}

func TestVault_EncryptNotDeterministic(t *testing.T) {
	vault, err := New(nil)
	require.NoError(t, err)

	first, err := vault.Encrypt("555777")
	require.NoError(t, err)
	second, err := vault.Encrypt("555777")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVault_DecryptTampered(t *testing.T) {
	vault, err := New(nil)
	require.NoError(t, err)

	ct, err := vault.Encrypt("987654")
	require.NoError(t, err)

	ct[len(ct)-1] ^= 0xFF
	_, err = vault.Decrypt(ct)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestVault_DecryptWrongKey(t *testing.T) {
	first, err := New(nil)
	require.NoError(t, err)
	second, err := New(nil)
	require.NoError(t, err)

	ct, err := first.Encrypt("424242")
	require.NoError(t, err)

	_, err = second.Decrypt(ct)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestVault_DecryptTooShort(t *testing.T) {
	vault, err := New(nil)
	require.NoError(t, err)

	_, err = vault.Decrypt([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestNew_BadKeyLength(t *testing.T) {
	_, err := New([]byte("short"))
	assert.Error(t, err)
}
