package siwe

import (
	"strconv"
	"strings"
	"time"

	"github.com/relvacode/iso8601"
)

// ParseMessage parses canonical SIWE text back into a Message. It is the
// inverse of Message.String.
func ParseMessage(raw string) (*Message, error) {
	lines := strings.Split(raw, "\n")
	if len(lines) < 6 {
		return nil, ErrMessageTooShort
	}

	// Parse first line exactly
	header := lines[0]
	if !strings.HasSuffix(header, headerSuffix) {
		return nil, ErrInvalidHeader
	}

	domain := strings.TrimSuffix(header, headerSuffix)
	if !IsValidDomain(domain) {
		return nil, ErrInvalidDomain
	}

	address := lines[1]
	if !IsValidAddress(address) {
		return nil, ErrInvalidAddress
	}

	msg := &Message{
		Domain:  domain,
		Address: address,
		raw:     raw,
	}

	if lines[2] != "" {
		return nil, ErrThirdLineNotEmpty
	}

	// Canonical form has a second blank line when there is no statement.
	// Older signers omit it and start the fields on the fourth line.
	startIndex := 3
	switch {
	case lines[3] == "":
		startIndex = 4
	case lines[4] == "":
		statement := lines[3]
		msg.Statement = &statement
		startIndex = 5
	}

	seen := make(map[string]bool)
	inResources := false
	for i := startIndex; i < len(lines); i++ {
		line := lines[i]

		if inResources {
			if after, ok := strings.CutPrefix(line, "- "); ok {
				if !isValidURI(after) {
					return nil, errInvalidResource(len(msg.Resources))
				}
				msg.Resources = append(msg.Resources, after)
				continue
			}
			inResources = false
		}

		if line == "Resources:" {
			if seen[line] {
				return nil, errDuplicateField("Resources")
			}
			seen[line] = true
			inResources = true
			continue
		}

		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ": ")
		if !found {
			return nil, errUnparsableLine(i)
		}
		if seen[key] {
			return nil, errDuplicateField(key)
		}
		seen[key] = true

		switch key {
		case "URI":
			if !isValidURI(value) {
				return nil, ErrInvalidURI
			}
			msg.URI = value

		case "Version":
			msg.Version = value

		case "Chain ID":
			chainID, err := strconv.ParseInt(value, 10, 64)
			if err != nil || chainID <= 0 {
				return nil, ErrInvalidChainID
			}
			msg.ChainID = chainID

		case "Nonce":
			if !isValidNonce(value) {
				return nil, ErrInvalidNonce
			}
			msg.Nonce = value

		case "Issued At":
			ts, err := parseTime(value)
			if err != nil {
				return nil, ErrInvalidIssuedAt
			}
			msg.IssuedAt = ts

		case "Expiration Time":
			ts, err := parseTime(value)
			if err != nil {
				return nil, ErrInvalidExpirationTime
			}
			msg.ExpirationTime = &ts

		case "Not Before":
			ts, err := parseTime(value)
			if err != nil {
				return nil, ErrInvalidNotBefore
			}
			msg.NotBefore = &ts

		case "Request ID":
			requestID := value
			msg.RequestID = &requestID

		default:
			return nil, errUnparsableLine(i)
		}
	}

	if msg.Version != Version {
		return nil, errUnsupportedVersion(msg.Version)
	}

	if msg.URI == "" {
		return nil, ErrMissingURI
	}

	if msg.ChainID == 0 {
		return nil, ErrMissingChainID
	}

	if msg.Nonce == "" {
		return nil, ErrMissingNonce
	}

	if msg.IssuedAt.IsZero() {
		return nil, ErrMissingIssuedAt
	}

	if msg.ExpirationTime != nil {
		if msg.IssuedAt.After(*msg.ExpirationTime) {
			return nil, ErrIssuedAfterExpiration
		}
		if msg.NotBefore != nil && msg.NotBefore.After(*msg.ExpirationTime) {
			return nil, ErrNotBeforeAfterExpiration
		}
	}

	return msg, nil
}

func parseTime(value string) (time.Time, error) {
	ts, err := iso8601.ParseString(value)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}
