package siwe

import (
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	hostLabelPattern = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)
	addressPattern   = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	noncePattern     = regexp.MustCompile(`^[a-zA-Z0-9]{8,64}$`)
)

// IsValidDomain reports whether domain is an RFC 3986 authority:
// [userinfo@]host[:port] where host is a DNS name, an IPv4 address or a
// bracketed IPv6 literal.
func IsValidDomain(domain string) bool {
	if domain == "" || strings.ContainsAny(domain, " \t\r\n/?#") {
		return false
	}
	u, err := url.Parse("//" + domain)
	if err != nil || u.Host == "" || u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		return false
	}

	if port := u.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n > 65535 {
			return false
		}
	} else if strings.HasSuffix(u.Host, ":") {
		return false
	}

	host := u.Hostname()
	if strings.HasPrefix(u.Host, "[") {
		ip := net.ParseIP(host)
		return ip != nil && ip.To4() == nil
	}
	if strings.Contains(host, ":") {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	for _, label := range strings.Split(host, ".") {
		if !hostLabelPattern.MatchString(label) {
			return false
		}
	}
	return true
}

// IsValidAddress reports whether address is 0x-prefixed 20-byte hex.
func IsValidAddress(address string) bool {
	return addressPattern.MatchString(address)
}

// ChecksumAddress returns the EIP-55 form of address. An address written
// in mixed case must already carry a correct checksum.
func ChecksumAddress(address string) (string, bool) {
	if !IsValidAddress(address) {
		return "", false
	}
	checksummed := common.HexToAddress(address).Hex()

	body := address[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && address != checksummed {
		return "", false
	}
	return checksummed, true
}

// sameAddress compares two hex addresses as 20-byte values.
func sameAddress(a, b string) bool {
	if !IsValidAddress(a) || !IsValidAddress(b) {
		return false
	}
	return common.HexToAddress(a) == common.HexToAddress(b)
}

func isValidNonce(nonce string) bool {
	return noncePattern.MatchString(nonce)
}

func isValidURI(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return u.Scheme != ""
}
