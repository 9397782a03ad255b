package mailstore

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"
)

const maxPartBytes = 6 << 20

type decodedBody struct {
	Text    string
	HTML    string
	From    string
	Subject string
	Date    time.Time
}

// decodeRFC822 pulls the text and html parts plus the headers the
// pipeline cares about out of a raw message. It never fails: an
// unparseable message degrades to its raw bytes as plain text.
func decodeRFC822(raw []byte) decodedBody {
	var d decodedBody
	if len(raw) == 0 {
		return d
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		d.Text = string(raw)
		return d
	}

	d.From = strings.TrimSpace(msg.Header.Get("From"))
	d.Subject = decodeWord(msg.Header.Get("Subject"))
	if ds := msg.Header.Get("Date"); ds != "" {
		if t, err := mail.ParseDate(ds); err == nil {
			d.Date = t
		}
	}

	body, _ := io.ReadAll(io.LimitReader(msg.Body, maxPartBytes))
	d.Text, d.HTML = textParts(msg.Header.Get("Content-Type"),
		msg.Header.Get("Content-Transfer-Encoding"), body)
	if d.Text == "" && d.HTML == "" {
		d.Text = string(body)
	}
	return d
}

// textParts walks a (possibly nested) MIME tree and returns the largest
// text/plain and text/html parts found.
func textParts(contentType, transferEncoding string, body []byte) (plain, html string) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(decodeTransfer(body, transferEncoding)), ""
	}
	mediaType = strings.ToLower(mediaType)

	if !strings.HasPrefix(mediaType, "multipart/") {
		s := string(decodeTransfer(body, transferEncoding))
		if strings.HasPrefix(mediaType, "text/html") {
			return "", s
		}
		return s, ""
	}

	boundary := params["boundary"]
	if boundary == "" {
		return string(decodeTransfer(body, transferEncoding)), ""
	}

	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		p, err := mr.NextPart()
		if err != nil {
			break
		}
		b, _ := io.ReadAll(io.LimitReader(p, maxPartBytes))
		b = decodeTransfer(b, p.Header.Get("Content-Transfer-Encoding"))

		pl, ht := textParts(p.Header.Get("Content-Type"), "", b)
		if len(pl) > len(plain) {
			plain = pl
		}
		if len(ht) > len(html) {
			html = ht
		}
	}
	return plain, html
}

func decodeTransfer(b []byte, encoding string) []byte {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		r := base64.NewDecoder(base64.StdEncoding, bytes.NewReader(b))
		out, _ := io.ReadAll(io.LimitReader(r, maxPartBytes))
		return out
	case "quoted-printable":
		out, _ := io.ReadAll(io.LimitReader(quotedprintable.NewReader(bytes.NewReader(b)), maxPartBytes))
		return out
	default:
		return b
	}
}

// decodeWord undoes RFC 2047 encoded-words in a header value.
func decodeWord(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	out, err := new(mime.WordDecoder).DecodeHeader(s)
	if err != nil {
		return s
	}
	return out
}
