// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/lib/schema"
)

// FormatHTML is the format value for HTML formatted_body.
const FormatHTML = "org.matrix.custom.html"

// The goldmark converter is configured once and shared; Convert keeps
// its state per call. Raw HTML in the source is not passed through, so
// user-controlled text (display names, room topics) cannot inject
// markup.
var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

func markdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		)
	})
	return markdownInstance
}

// RenderHTML converts markdown to the HTML subset Matrix clients
// display. Returns "" if conversion fails.
func RenderHTML(source string) string {
	var buffer bytes.Buffer
	if err := markdown().Convert([]byte(source), &buffer); err != nil {
		return ""
	}
	return strings.TrimSpace(buffer.String())
}

// NewTextMessage creates a plain m.text message.
func NewTextMessage(body string) MessageContent {
	return MessageContent{MsgType: schema.MsgTypeText, Body: body}
}

// NewNotice creates an m.notice whose body is the markdown source and
// whose formatted_body is the rendered HTML. Bots reply with notices so
// that other bots do not respond to them.
func NewNotice(markdownBody string) MessageContent {
	content := MessageContent{MsgType: schema.MsgTypeNotice, Body: markdownBody}
	if rendered := RenderHTML(markdownBody); rendered != "" {
		content.Format = FormatHTML
		content.FormattedBody = rendered
	}
	return content
}

// InReplyTo returns a copy of the content marked as a reply to eventID.
func (content MessageContent) InReplyTo(eventID ref.EventID) MessageContent {
	if eventID.IsZero() {
		return content
	}
	content.RelatesTo = &RelatesTo{InReplyTo: &InReplyTo{EventID: eventID}}
	return content
}
