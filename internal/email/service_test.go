package email

import (
	"strings"
	"testing"
)

func TestServiceIsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected bool
	}{
		{
			name:     "empty config",
			config:   Config{},
			expected: false,
		},
		{
			name: "missing host",
			config: Config{
				Port: "587",
				From: "reports@example.com",
			},
			expected: false,
		},
		{
			name: "missing port",
			config: Config{
				Host: "smtp.example.com",
				From: "reports@example.com",
			},
			expected: false,
		},
		{
			name: "missing from",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
			},
			expected: false,
		},
		{
			name: "fully configured",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
				From: "reports@example.com",
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.config)
			if svc.IsConfigured() != tt.expected {
				t.Errorf("IsConfigured() = %v, want %v", svc.IsConfigured(), tt.expected)
			}
		})
	}
}

func TestBuildReportMessage(t *testing.T) {
	msg := string(buildReportMessage(
		"Acme Networks <reports@example.com>",
		[]string{"client@example.com"},
		"Service Report OS-20260314-R001",
		"<p>report attached</p>",
		[]Attachment{
			{Filename: "OS-20260314-R001.pdf", MimeType: "application/pdf", Data: []byte("%PDF-1.4 fake")},
		},
	))

	for _, want := range []string{
		"To: client@example.com",
		"From: Acme Networks <reports@example.com>",
		"Subject: Service Report OS-20260314-R001",
		`Content-Type: multipart/mixed; boundary="boundary-fieldreport"`,
		"Content-Type: text/html; charset=UTF-8",
		`Content-Disposition: attachment; filename="OS-20260314-R001.pdf"`,
		"Content-Transfer-Encoding: base64",
		"--boundary-fieldreport--",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message is missing %q", want)
		}
	}

	if strings.Contains(msg, "%PDF") {
		t.Error("attachment body was not base64 encoded")
	}
}

func TestBuildReportMessageWrapsBase64Lines(t *testing.T) {
	data := make([]byte, 600)
	for i := range data {
		data[i] = byte(i % 251)
	}
	msg := string(buildReportMessage("a@b.c", []string{"d@e.f"}, "s", "<p/>",
		[]Attachment{{Filename: "x.bin", MimeType: "application/octet-stream", Data: data}}))

	inBody := false
	for _, line := range strings.Split(msg, "\r\n") {
		if strings.HasPrefix(line, "Content-Transfer-Encoding") {
			inBody = true
			continue
		}
		if inBody && len(line) > 76 {
			t.Fatalf("base64 line longer than 76 chars: %d", len(line))
		}
	}
}

func TestRenderReportTemplate(t *testing.T) {
	data := ReportData{
		OrgName:    "Acme Networks",
		Folio:      "OS-20260314-R001",
		ClientName: "Globex",
		Engineer:   "Rosa Mendez",
	}

	html, err := renderTemplate(reportEmailTemplate, data)
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	if !strings.Contains(html, "Acme Networks") {
		t.Error("template should contain org name")
	}
	if !strings.Contains(html, "OS-20260314-R001") {
		t.Error("template should contain the folio")
	}
	if !strings.Contains(html, "Rosa Mendez") {
		t.Error("template should contain the engineer name")
	}
}
