// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"errors"
	"slices"
	"testing"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"kick alice", []string{"kick", "alice"}},
		{"  kick\talice  spam ", []string{"kick", "alice", "spam"}},
		{`createroom "Ops Room" public`, []string{"createroom", "Ops Room", "public"}},
		{`setname ""`, []string{"setname", ""}},
		{`say "a \"quoted\" word"`, []string{"say", `a "quoted" word`}},
		{`path "C:\\dir"`, []string{"path", `C:\dir`}},
		{`raw a\b`, []string{"raw", `a\b`}},
		{`join"ed words"`, []string{"joined words"}},
	}
	for _, test := range tests {
		got, err := Tokenize(test.line)
		if err != nil {
			t.Errorf("Tokenize(%q): %v", test.line, err)
			continue
		}
		if !slices.Equal(got, test.want) {
			t.Errorf("Tokenize(%q) = %q, want %q", test.line, got, test.want)
		}
	}

	if _, err := Tokenize(`say "unterminated`); !errors.Is(err, ErrUnterminatedQuote) {
		t.Errorf("unterminated quote error = %v", err)
	}
}

func TestParseCommandLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		body        string
		want        []string
		wantCommand bool
	}{
		{body: "!admin kick alice", want: []string{"kick", "alice"}, wantCommand: true},
		{body: "  !admin   help ", want: []string{"help"}, wantCommand: true},
		{body: "!admin", wantCommand: true},
		{body: "!administrator kick alice"},
		{body: "hello !admin kick alice"},
		{body: ""},
	}
	for _, test := range tests {
		got, isCommand, err := ParseCommandLine(test.body, "!admin")
		if err != nil {
			t.Errorf("ParseCommandLine(%q): %v", test.body, err)
			continue
		}
		if isCommand != test.wantCommand || !slices.Equal(got, test.want) {
			t.Errorf("ParseCommandLine(%q) = (%q, %v), want (%q, %v)", test.body, got, isCommand, test.want, test.wantCommand)
		}
	}

	if _, isCommand, err := ParseCommandLine(`!admin say "oops`, "!admin"); !isCommand || !errors.Is(err, ErrUnterminatedQuote) {
		t.Errorf("unterminated = (%v, %v)", isCommand, err)
	}
}
