package pkg

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// identity addresses are base58check encoded and 34 characters long,
// starting with "i"
const identityAddressLen = 34

// ValidateIdentityAddress checks that address is a well-formed on-chain
// identity address: "i"-prefixed base58check of the expected length.
func ValidateIdentityAddress(address string) error {
	if len(address) != identityAddressLen {
		return fmt.Errorf("identity address must be %d characters, got %d", identityAddressLen, len(address))
	}
	if address[0] != 'i' {
		return fmt.Errorf("identity address must start with 'i'")
	}

	if _, _, err := base58.CheckDecode(address); err != nil {
		return fmt.Errorf("identity address is not valid base58check: %w", err)
	}
	return nil
}
