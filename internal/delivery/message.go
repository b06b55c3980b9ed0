package delivery

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"
)

// DefaultSubject is the subject line of report mails
const DefaultSubject = "Your Project Evaluation Form"

// Attachment is a file carried by a message
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is a report mail ready to be encoded
type Message struct {
	From        string
	Envelope    Envelope
	Subject     string
	Body        string
	Attachments []Attachment
	Date        time.Time
}

// ReportBody is the plain-text body that accompanies a report
func ReportBody(name, period string) string {
	if period == "" {
		return fmt.Sprintf("Kindly find attached %s's performance evaluation", name)
	}
	return fmt.Sprintf("Kindly find attached %s's performance evaluation for %s", name, period)
}

// BuildMessage encodes msg as a multipart/mixed MIME message with a
// quoted-printable text body and base64 attachments.
func BuildMessage(msg *Message) ([]byte, error) {
	if msg == nil || len(msg.Envelope.To) == 0 {
		return nil, ErrNoRecipient
	}
	if msg.From == "" {
		return nil, fmt.Errorf("message has no sender")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	date := msg.Date
	if date.IsZero() {
		date = time.Now()
	}

	header := &strings.Builder{}
	writeHeader(header, "From", msg.From)
	writeHeader(header, "To", strings.Join(msg.Envelope.To, ", "))
	if len(msg.Envelope.Cc) > 0 {
		writeHeader(header, "Cc", strings.Join(msg.Envelope.Cc, ", "))
	}
	writeHeader(header, "Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader(header, "Date", date.Format(time.RFC1123Z))
	writeHeader(header, "MIME-Version", "1.0")
	writeHeader(header, "Content-Type", fmt.Sprintf("multipart/mixed; boundary=%q", w.Boundary()))
	header.WriteString("\r\n")

	body, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create body part: %w", err)
	}
	qp := quotedprintable.NewWriter(body)
	if _, err := qp.Write([]byte(msg.Body)); err != nil {
		return nil, fmt.Errorf("failed to write body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write body: %w", err)
	}

	for _, a := range msg.Attachments {
		if err := writeAttachment(w, a); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close message: %w", err)
	}

	return append([]byte(header.String()), buf.Bytes()...), nil
}

func writeHeader(b *strings.Builder, key, value string) {
	b.WriteString(key + ": " + value + "\r\n")
}

func writeAttachment(w *multipart.Writer, a Attachment) error {
	mediaType, params, err := mime.ParseMediaType(a.ContentType)
	if err != nil {
		mediaType, params = "application/octet-stream", map[string]string{}
	}
	params["name"] = a.Name
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {mime.FormatMediaType(mediaType, params)},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Name})},
	})
	if err != nil {
		return fmt.Errorf("failed to create attachment %s: %w", a.Name, err)
	}

	encoded := base64.StdEncoding.EncodeToString(a.Data)
	for len(encoded) > 76 {
		if _, err := part.Write([]byte(encoded[:76] + "\r\n")); err != nil {
			return fmt.Errorf("failed to write attachment %s: %w", a.Name, err)
		}
		encoded = encoded[76:]
	}
	if _, err := part.Write([]byte(encoded + "\r\n")); err != nil {
		return fmt.Errorf("failed to write attachment %s: %w", a.Name, err)
	}
	return nil
}
