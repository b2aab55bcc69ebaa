package mailparse

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"regexp"
	"strings"

	"mailfetch/internal/models"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

var emailAddressRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// Parse turns one raw RFC 5322 message into a normalized Email.
// Any structural error aborts the parse; header fields and parts that merely fail to decode fall back to their raw value.
func Parse(uid uint32, raw []byte) (*models.Email, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("reading message %d: %w", uid, err)
	}
	defer func() { _ = mr.Close() }()

	header := mr.Header
	email := &models.Email{
		UID:    uid,
		ID:     messageID(header),
		Source: firstAddress(header, "From"),
		To:     addressList(header, "To"),
		Cc:     addressList(header, "Cc"),
	}

	if header.Get("Date") != "" {
		if sent, err := header.Date(); err == nil {
			email.Sent = sent
		}
	}

	// Decode Subject
	if subject, err := header.Subject(); err == nil {
		email.Subject = subject
	} else {
		email.Subject = header.Get("Subject")
	}

	var textBody, htmlBody string
	for {
		// a part in an unknown charset is still returned, with its body undecoded
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		} else if err != nil && !message.IsUnknownCharset(err) {
			return nil, fmt.Errorf("message %d: %w", uid, err)
		}

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			contentType, params, err := h.ContentType()
			if err != nil {
				contentType = "text/plain"
			}

			// inline images and the like are reported alongside regular attachments
			if !strings.HasPrefix(contentType, "text/") {
				att, err := readAttachment(p.Body, params["name"], contentType)
				if err != nil {
					return nil, fmt.Errorf("reading inline part of message %d: %w", uid, err)
				}
				email.Attachments = append(email.Attachments, att)
				continue
			}

			body, err := io.ReadAll(p.Body)
			if err != nil {
				return nil, fmt.Errorf("reading body of message %d: %w", uid, err)
			}
			switch {
			case contentType == "text/plain" && textBody == "":
				textBody = string(body)
			case contentType == "text/html" && htmlBody == "":
				htmlBody = string(body)
			}

		case *mail.AttachmentHeader:
			filename, err := h.Filename()
			if err != nil {
				filename = ""
			}
			contentType, _, err := h.ContentType()
			if err != nil {
				contentType = "application/octet-stream"
			}
			att, err := readAttachment(p.Body, filename, contentType)
			if err != nil {
				return nil, fmt.Errorf("reading attachment of message %d: %w", uid, err)
			}
			email.Attachments = append(email.Attachments, att)
		}
	}

	email.Body = textBody
	if email.Body == "" {
		email.Body = htmlBody
	}

	return email, nil
}

// readAttachment drains the part to measure it; the content itself is not kept
func readAttachment(r io.Reader, filename, contentType string) (models.Attachment, error) {
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return models.Attachment{}, err
	}
	return models.Attachment{
		Filename:    filename,
		ContentType: contentType,
		Size:        n,
	}, nil
}

func messageID(header mail.Header) string {
	if id, err := header.MessageID(); err == nil {
		return id
	}
	return strings.Trim(header.Get("Message-Id"), "<> ")
}

func firstAddress(header mail.Header, key string) string {
	addrs := addressList(header, key)
	if len(addrs) == 0 {
		return ""
	}
	return addrs[0]
}

// addressList returns the bare addresses of an address header.
// Headers that do not parse as an RFC 5322 list are scanned for anything that looks like an address.
func addressList(header mail.Header, key string) []string {
	list, err := header.AddressList(key)
	if err != nil {
		return extractEmailAddresses(header.Get(key))
	}

	var out []string
	for _, addr := range list {
		out = append(out, addr.Address)
	}
	return out
}

// Simple regex to extract email addresses from a header, which may contain names and emails
func extractEmailAddresses(h string) []string {
	return emailAddressRe.FindAllString(h, -1)
}

// DecodeHeader decodes MIME-encoded headers (e.g., "=?UTF-8?B?...?=") to plain text
func DecodeHeader(encoded string) (string, error) {
	decoder := &mime.WordDecoder{CharsetReader: charset.Reader}
	decoded, err := decoder.DecodeHeader(encoded)
	if err != nil {
		return "", err
	}
	return decoded, nil
}
