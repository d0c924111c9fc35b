// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"errors"
	"strings"
	"unicode"
)

// ErrUnterminatedQuote is returned by Tokenize for an unbalanced '"'.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// Tokenize splits a command line on whitespace. Double quotes group
// words into one argument; inside quotes, \" and \\ are escapes. An
// empty quoted string is an argument.
func Tokenize(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inQuote bool
		hasArg  bool
	)
	runes := []rune(line)
	for index := 0; index < len(runes); index++ {
		character := runes[index]
		switch {
		case inQuote && character == '\\' && index+1 < len(runes) && (runes[index+1] == '"' || runes[index+1] == '\\'):
			index++
			current.WriteRune(runes[index])
		case character == '"':
			inQuote = !inQuote
			hasArg = true
		case !inQuote && unicode.IsSpace(character):
			if hasArg {
				args = append(args, current.String())
				current.Reset()
				hasArg = false
			}
		default:
			current.WriteRune(character)
			hasArg = true
		}
	}
	if inQuote {
		return nil, ErrUnterminatedQuote
	}
	if hasArg {
		args = append(args, current.String())
	}
	return args, nil
}

// ParseCommandLine reports whether body addresses the bot with prefix
// and, if so, returns the tokens after the prefix. The prefix must be
// followed by whitespace or the end of the message.
func ParseCommandLine(body, prefix string) ([]string, bool, error) {
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, prefix) {
		return nil, false, nil
	}
	rest := body[len(prefix):]
	if rest != "" && !unicode.IsSpace([]rune(rest)[0]) {
		return nil, false, nil
	}
	args, err := Tokenize(rest)
	if err != nil {
		return nil, true, err
	}
	return args, true, nil
}
