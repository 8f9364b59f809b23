// Package render produces the per-recipient subject and body of a campaign
// email: brace-delimited placeholder substitution over the campaign templates
// and markdown-to-HTML conversion for the multipart body.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/jimulabs/mailblast/internal/domain"
	"github.com/yuin/goldmark"
)

// ErrRender marks a failed template or markup conversion.
var ErrRender = errors.New("render failed")

var markdown = goldmark.New()

// Fill replaces every occurrence of the recognized placeholder tokens with the
// subscriber's fields. Tokens are case-sensitive; absent fields become the
// empty string. Unrecognized braces pass through untouched.
func Fill(template string, subscriber domain.Subscriber) string {
	replacer := strings.NewReplacer(
		"{firstName}", subscriber.FirstName,
		"{lastName}", subscriber.LastName,
		"{email}", subscriber.Email,
	)
	return replacer.Replace(template)
}

// MarkdownToHTML converts a markdown body to HTML. goldmark renders arbitrary
// user-authored markup without failing, so errors only surface from the
// writer, but the error path is kept for the delivery flow to record.
func MarkdownToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("%w: failed to convert markdown: %v", ErrRender, err)
	}
	return buf.String(), nil
}
