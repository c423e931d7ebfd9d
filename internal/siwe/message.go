// Package siwe implements EIP-4361 "Sign-In with Ethereum": canonical
// message construction, parsing, and signature verification.
//
// REF: https://eips.ethereum.org/EIPS/eip-4361
package siwe

import (
	"strconv"
	"strings"
	"time"
)

const (
	headerSuffix = " wants you to sign in with your Ethereum account:"

	// Version is the only message version this package accepts.
	Version = "1"

	timeLayout = "2006-01-02T15:04:05Z"
)

// Message is the structured form of a SIWE message. A Message is treated as
// immutable once built or parsed.
type Message struct {
	Domain         string
	Address        string
	Statement      *string
	URI            string
	Version        string
	ChainID        int64
	Nonce          string
	IssuedAt       time.Time
	ExpirationTime *time.Time
	NotBefore      *time.Time
	RequestID      *string
	Resources      []string

	raw string
}

// Text returns the exact bytes that were parsed or built. Signatures are
// always checked against these bytes, never against a re-rendering.
func (m *Message) Text() string {
	if m.raw != "" {
		return m.raw
	}
	return m.String()
}

// String renders the canonical text that wallets sign. The output is
// byte-stable: equal messages always produce identical bytes.
func (m *Message) String() string {
	var sb strings.Builder

	sb.WriteString(m.Domain)
	sb.WriteString(headerSuffix)
	sb.WriteString("\n")
	sb.WriteString(m.Address)
	sb.WriteString("\n\n")

	if m.Statement != nil {
		sb.WriteString(*m.Statement)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString("URI: " + m.URI + "\n")
	sb.WriteString("Version: " + m.Version + "\n")
	sb.WriteString("Chain ID: " + strconv.FormatInt(m.ChainID, 10) + "\n")
	sb.WriteString("Nonce: " + m.Nonce + "\n")
	sb.WriteString("Issued At: " + formatTime(m.IssuedAt))

	if m.ExpirationTime != nil {
		sb.WriteString("\nExpiration Time: " + formatTime(*m.ExpirationTime))
	}
	if m.NotBefore != nil {
		sb.WriteString("\nNot Before: " + formatTime(*m.NotBefore))
	}
	if m.RequestID != nil {
		sb.WriteString("\nRequest ID: " + *m.RequestID)
	}
	if len(m.Resources) > 0 {
		sb.WriteString("\nResources:")
		for _, resource := range m.Resources {
			sb.WriteString("\n- " + resource)
		}
	}

	return sb.String()
}

// ValidAt reports whether t falls inside the message's [NotBefore,
// ExpirationTime] window. Unset bounds are open.
func (m *Message) ValidAt(t time.Time) (bool, Reason) {
	if m.NotBefore != nil && t.Before(*m.NotBefore) {
		return false, ReasonNotYetValid
	}
	if m.ExpirationTime != nil && t.After(*m.ExpirationTime) {
		return false, ReasonExpired
	}
	return true, ""
}

func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timeLayout)
}
