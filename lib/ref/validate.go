// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// maxServerNameLength bounds a server name to the DNS name limit plus
// room for a port suffix.
const maxServerNameLength = 255 + len(":65535")

// parsePrefixedID extracts localpart and server from a Matrix identifier
// with the given sigil prefix (@ for user IDs, # for room aliases, ! for
// room IDs). The first ':' after the sigil separates the localpart from
// the server; the server must have the shape host[:port].
func parsePrefixedID(identifier string, sigil byte, kind string) (localpart, server string, err error) {
	if len(identifier) < 2 || identifier[0] != sigil {
		return "", "", fmt.Errorf("invalid %s %q: must start with %c", kind, identifier, sigil)
	}
	colonIndex := strings.IndexByte(identifier[1:], ':')
	if colonIndex < 0 {
		return "", "", fmt.Errorf("invalid %s %q: missing :server", kind, identifier)
	}
	colonIndex++
	if colonIndex < 2 {
		return "", "", fmt.Errorf("invalid %s %q: empty localpart", kind, identifier)
	}
	localpart = identifier[1:colonIndex]
	server = identifier[colonIndex+1:]
	if err := validateServer(server); err != nil {
		return "", "", fmt.Errorf("invalid %s %q: %w", kind, identifier, err)
	}
	for i := 0; i < len(localpart); i++ {
		if localpart[i] <= ' ' {
			return "", "", fmt.Errorf("invalid %s %q: control or space character in localpart", kind, identifier)
		}
	}
	return localpart, server, nil
}

// validateServer checks that a Matrix server name has the shape
// host[:port]. The host is a DNS name, an IPv4 literal, or an IPv6
// literal in square brackets. The port, if present, is 1-5 digits.
func validateServer(server string) error {
	if server == "" {
		return fmt.Errorf("server name is empty")
	}
	if len(server) > maxServerNameLength {
		return fmt.Errorf("server name is %d characters, maximum is %d", len(server), maxServerNameLength)
	}

	host, port := server, ""
	if server[0] == '[' {
		end := strings.IndexByte(server, ']')
		if end < 0 {
			return fmt.Errorf("server name %q: unterminated IPv6 literal", server)
		}
		host = server[1:end]
		rest := server[end+1:]
		if rest != "" {
			if rest[0] != ':' {
				return fmt.Errorf("server name %q: unexpected text after IPv6 literal", server)
			}
			port = rest[1:]
			if port == "" {
				return fmt.Errorf("server name %q: empty port", server)
			}
		}
		if host == "" {
			return fmt.Errorf("server name %q: empty IPv6 literal", server)
		}
		for i := 0; i < len(host); i++ {
			c := host[i]
			if !isHexDigit(c) && c != ':' && c != '.' {
				return fmt.Errorf("server name %q: invalid character %q in IPv6 literal", server, c)
			}
		}
	} else {
		if index := strings.IndexByte(server, ':'); index >= 0 {
			host, port = server[:index], server[index+1:]
			if port == "" {
				return fmt.Errorf("server name %q: empty port", server)
			}
		}
		if host == "" {
			return fmt.Errorf("server name %q: empty host", server)
		}
		for i := 0; i < len(host); i++ {
			c := host[i]
			if !isDNSChar(c) {
				return fmt.Errorf("server name %q: invalid character %q at position %d", server, c, i)
			}
		}
		if host[0] == '.' || host[len(host)-1] == '.' || host[0] == '-' {
			return fmt.Errorf("server name %q: malformed host", server)
		}
	}

	if port != "" {
		if len(port) > 5 {
			return fmt.Errorf("server name %q: port too long", server)
		}
		for i := 0; i < len(port); i++ {
			if port[i] < '0' || port[i] > '9' {
				return fmt.Errorf("server name %q: port must be numeric", server)
			}
		}
	}
	return nil
}

func isDNSChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '.'
}

func isHexDigit(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

// DomainOf returns the text after the first ':' of a Matrix identifier,
// or "" when the identifier has no separator. It does not validate the
// result; callers that need a usable server name pass it through
// ParseServerName.
func DomainOf(identifier string) string {
	_, domain, found := strings.Cut(identifier, ":")
	if !found {
		return ""
	}
	return domain
}
