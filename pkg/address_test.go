package pkg

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const identityVersionByte = 102

func TestValidateIdentityAddress(t *testing.T) {
	t.Run("valid address", func(t *testing.T) {
		payload := make([]byte, 20)
		for i := range payload {
			payload[i] = byte(i + 1)
		}
		address := base58.CheckEncode(payload, identityVersionByte)
		require.NoError(t, ValidateIdentityAddress(address))
	})
	t.Run("wrong length", func(t *testing.T) {
		assert.Error(t, ValidateIdentityAddress("iTooShort"))
	})
	t.Run("wrong prefix", func(t *testing.T) {
		assert.Error(t, ValidateIdentityAddress("RCG8KwJNDVwpUBcdoa6AoHqHVJsA1uMYMR"))
	})
	t.Run("bad checksum", func(t *testing.T) {
		payload := make([]byte, 20)
		address := base58.CheckEncode(payload, identityVersionByte)
		corrupted := address[:len(address)-1] + "2"
		if corrupted == address {
			corrupted = address[:len(address)-1] + "3"
		}
		assert.Error(t, ValidateIdentityAddress(corrupted))
	})
	t.Run("empty", func(t *testing.T) {
		assert.Error(t, ValidateIdentityAddress(""))
	})
}
