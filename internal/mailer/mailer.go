// Package mailer sends transactional email over SMTP. Delivery is
// best-effort: callers log failures and move on, an unreachable mail
// server never blocks a donation action.
package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	gomail "gopkg.in/gomail.v2"
)

// Mailer sends email through a single SMTP account.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// New creates a Mailer for the given SMTP endpoint.
func New(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send delivers a plain-text message to one recipient.
func (m *Mailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// SendWithPNG delivers a plain-text message with an inline PNG
// attachment. The image is passed as a base64 data URI, the form QR
// codes are stored in.
func (m *Mailer) SendWithPNG(to, subject, body, filename, dataURI string) error {
	png, err := decodeDataURI(dataURI)
	if err != nil {
		return fmt.Errorf("decode attachment: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	msg.Attach(filename, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(png)
		return err
	}))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func decodeDataURI(uri string) ([]byte, error) {
	_, data, ok := strings.Cut(uri, ",")
	if !ok {
		return nil, fmt.Errorf("not a data uri")
	}
	var buf bytes.Buffer
	dec := base64.NewDecoder(base64.StdEncoding, strings.NewReader(data))
	if _, err := buf.ReadFrom(dec); err != nil {
		return nil, fmt.Errorf("decode base64 payload: %w", err)
	}
	return buf.Bytes(), nil
}
