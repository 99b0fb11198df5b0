package dispatch

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/mail"
	"strings"
)

// Compose builds an RFC 822 message with a single base64 text/html part.
// No Date or Message-ID header is emitted, so equal drafts compose to equal
// bytes; the provider stamps both on send.
func Compose(d Draft) ([]byte, error) {
	if len(d.To) == 0 {
		return nil, errors.New("draft has no recipient")
	}
	from, err := formatList([]string{d.From})
	if err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	to, err := formatList(d.To)
	if err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	cc, err := formatList(d.Cc)
	if err != nil {
		return nil, fmt.Errorf("cc: %w", err)
	}

	var b bytes.Buffer
	header := func(k, v string) {
		if v == "" {
			return
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}
	header("MIME-Version", "1.0")
	header("From", from)
	header("To", to)
	header("Cc", cc)
	header("Subject", mime.QEncoding.Encode("utf-8", d.Subject))
	header("Content-Type", `text/html; charset="utf-8"`)
	header("Content-Transfer-Encoding", "base64")
	b.WriteString("\r\n")

	enc := base64.StdEncoding.EncodeToString([]byte(d.HTMLBody))
	for len(enc) > 76 {
		b.WriteString(enc[:76])
		b.WriteString("\r\n")
		enc = enc[76:]
	}
	if enc != "" {
		b.WriteString(enc)
		b.WriteString("\r\n")
	}
	return b.Bytes(), nil
}

func formatList(addrs []string) (string, error) {
	var out []string
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		parsed, err := mail.ParseAddress(a)
		if err != nil {
			return "", fmt.Errorf("invalid address %q: %w", a, err)
		}
		out = append(out, parsed.String())
	}
	return strings.Join(out, ", "), nil
}
