package utils

import (
	"regexp"
	"strings"
)

var bareHexAddress = regexp.MustCompile("^[0-9a-fA-F]{40}$")

// IsEvmAddress reports whether address is a 20-byte hex address, with or
// without the 0x prefix.
func IsEvmAddress(address string) bool {
	return bareHexAddress.MatchString(strings.TrimPrefix(strings.TrimPrefix(address, "0x"), "0X"))
}

// NormalizeEvmAddress trims whitespace and adds a lowercase 0x prefix when
// missing. Case is preserved so that checksum validation still applies.
func NormalizeEvmAddress(address string) string {
	address = strings.TrimSpace(address)
	switch {
	case strings.HasPrefix(address, "0x"):
		return address
	case strings.HasPrefix(address, "0X"):
		return "0x" + address[2:]
	case bareHexAddress.MatchString(address):
		return "0x" + address
	}
	return address
}

// ShortAddress abbreviates an address for log lines, e.g. 0x196a…2b7E.
func ShortAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}
