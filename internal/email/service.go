// Package email provides email sending capabilities via SMTP.
package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
)

// Config holds SMTP configuration
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// Attachment is a file attached to an outgoing message.
type Attachment struct {
	Filename string
	MimeType string
	Data     []byte
}

// Service provides email sending
type Service struct {
	config Config
	server string
	auth   smtp.Auth
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewService creates a new email service
func NewService(config Config) *Service {
	auth := smtp.PlainAuth("", config.Username, config.Password, config.Host)

	return &Service{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
		send:   smtp.SendMail,
	}
}

// IsConfigured returns true if email is configured
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != ""
}

func (s *Service) fromHeader() string {
	if s.config.FromName != "" {
		return fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}
	return s.config.From
}

// SendReport sends the finalized report to the client: an HTML body plus the
// rendered documents as base64 attachments.
func (s *Service) SendReport(to []string, subject, htmlBody string, attachments []Attachment) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email not configured")
	}

	msg := buildReportMessage(s.fromHeader(), to, subject, htmlBody, attachments)
	return s.send(s.server, s.auth, s.config.From, to, msg)
}

// buildReportMessage assembles a multipart/mixed message. Split out so tests
// can assert on the wire format without an SMTP server.
func buildReportMessage(from string, to []string, subject, htmlBody string, attachments []Attachment) []byte {
	boundary := "boundary-fieldreport"

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=\"%s\"\r\n", boundary)
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", htmlBody)

	for _, att := range attachments {
		fmt.Fprintf(&msg, "--%s\r\n", boundary)
		fmt.Fprintf(&msg, "Content-Type: %s; name=\"%s\"\r\n", att.MimeType, att.Filename)
		fmt.Fprintf(&msg, "Content-Disposition: attachment; filename=\"%s\"\r\n", att.Filename)
		fmt.Fprintf(&msg, "Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&msg, "\r\n")

		encoded := base64.StdEncoding.EncodeToString(att.Data)
		// 76-character lines per RFC 2045.
		for len(encoded) > 76 {
			msg.WriteString(encoded[:76])
			msg.WriteString("\r\n")
			encoded = encoded[76:]
		}
		msg.WriteString(encoded)
		msg.WriteString("\r\n")
	}

	fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	return msg.Bytes()
}

// ReportData holds data for the report email template.
type ReportData struct {
	OrgName    string
	Folio      string
	ClientName string
	Engineer   string
}

// SendFinalizedReport renders the standard report email and sends it with
// the given attachments.
func (s *Service) SendFinalizedReport(to []string, data ReportData, attachments []Attachment) error {
	subject := fmt.Sprintf("Service Report %s", data.Folio)
	html, err := renderTemplate(reportEmailTemplate, data)
	if err != nil {
		return fmt.Errorf("render report template: %w", err)
	}
	return s.SendReport(to, subject, html, attachments)
}

func renderTemplate(tmpl string, data interface{}) (string, error) {
	t := template.Must(template.New("email").Parse(tmpl))
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const reportEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Service Report {{.Folio}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #2b4c7e; padding-bottom: 10px; margin-bottom: 20px; }
        .folio { font-family: monospace; background: #f0f3f8; padding: 2px 6px; border-radius: 3px; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.OrgName}}</h1>
    </div>

    <h2>Service Report <span class="folio">{{.Folio}}</span></h2>

    <p>Dear {{.ClientName}},</p>

    <p>Please find attached the service report for the work performed by {{.Engineer}}.
    The attached documents contain the full record of activities, findings, and acceptance signatures.</p>

    <p>If anything in the report needs correction, reply to this message and we will follow up.</p>

    <div class="footer">
        <p>This message was sent automatically by {{.OrgName}}. The attached report is the official service record.</p>
    </div>
</body>
</html>`
