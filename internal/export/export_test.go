package export

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"fieldreport/api/internal/report"
)

func testImage(t *testing.T) *report.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 8))
	img.Set(0, 0, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return &report.Image{Data: buf.Bytes(), Mime: "image/png", Width: 10, Height: 8}
}

func testModel(t *testing.T) report.Model {
	return report.Model{
		Folio:       "OS-20260314-R002",
		Title:       "Core Switch Maintenance",
		ClientName:  "Globex <Networks>",
		OrgName:     "Acme Networks",
		OrgFooter:   "Acme Networks · Field Services",
		Area:        "Field Services",
		Author:      "Rosa Mendez",
		GeneratedAt: time.Date(2026, 3, 14, 17, 30, 0, 0, time.UTC),
		Sections: []report.Section{
			{
				Title: "General Information",
				Kind:  report.KindKeyValue,
				Pairs: []report.Pair{
					{Label: "Client", Value: "Globex <Networks>"},
					{Label: "Phone", Value: "-"},
				},
			},
			{
				Title: "Service Equipment",
				Kind:  report.KindTable,
				Table: &report.Table{
					Header:    []string{"Brand", "Model", "Serial", "Description"},
					EmptyNote: "No equipment was recorded for this service.",
				},
			},
			{
				Title: "Technical Data",
				Kind:  report.KindNarrative,
				Blocks: []report.Block{
					{Kind: report.BlockHeading, Level: 1, Text: "1.1 Inspection"},
					{Kind: report.BlockListItem, Text: "cleaned filters"},
					{Kind: report.BlockParagraph, Text: "System stable after restart."},
				},
			},
			{
				Title: "Photographic Evidence",
				Kind:  report.KindGallery,
				Figures: []report.Figure{
					{Caption: "Fig 1. Rack front", Image: testImage(t)},
					{Caption: "Fig 2. Service evidence", Image: nil},
				},
			},
			{
				Title: "Acceptance and Signatures",
				Kind:  report.KindSignatures,
				Slots: []report.SignatureSlot{
					{Role: "Service Engineer", Name: "Rosa Mendez", Image: testImage(t)},
					{Role: "Client Acceptance", Name: "J. Fuentes", Image: nil},
					{Role: "Internal Contact", Name: "Pablo Ortiz", Image: nil},
				},
			},
		},
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML(testModel(t))
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}

	for _, want := range []string{
		"Core Switch Maintenance",
		"OS-20260314-R002",
		"Globex &lt;Networks&gt;",
		"No equipment was recorded for this service.",
		"Fig 1. Rack front",
		"image unavailable",
		"data:image/png;base64,",
		"Rosa Mendez",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered page is missing %q", want)
		}
	}
	if strings.Contains(html, "<Networks>") {
		t.Error("client name was not escaped")
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	got := percentEncodeForDataURL("a b<c>&~")
	if got != "a%20b%3Cc%3E%26~" {
		t.Errorf("percentEncodeForDataURL() = %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"OS-20260314-R002", "OS-20260314-R002"},
		{"Core Switch / Maintenance!", "Core-Switch--Maintenance"},
		{"", "service-report"},
		{strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func readPackagePart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open package: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open part %s: %v", name, err)
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read part %s: %v", name, err)
		}
		return string(content)
	}
	t.Fatalf("package has no part %s", name)
	return ""
}

func TestRenderPackage(t *testing.T) {
	result, err := RenderPackage(testModel(t))
	if err != nil {
		t.Fatalf("RenderPackage() error = %v", err)
	}
	if result.Filename != "OS-20260314-R002.docx" {
		t.Errorf("filename = %q", result.Filename)
	}
	if result.MimeType != "application/vnd.openxmlformats-officedocument.wordprocessingml.document" {
		t.Errorf("mime = %q", result.MimeType)
	}

	doc := readPackagePart(t, result.Data, "word/document.xml")
	for _, want := range []string{
		`TOC \o &quot;1-3&quot; \h \z \u`,
		"Core Switch Maintenance",
		"Globex &lt;Networks&gt;",
		`<w:gridSpan w:val="4"/>`,
		"No equipment was recorded for this service.",
		"Fig 1. Rack front",
		"(image unavailable)",
		`r:embed="rId4"`,
		"Document Control",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document.xml is missing %q", want)
		}
	}

	footer := readPackagePart(t, result.Data, "word/footer1.xml")
	if !strings.Contains(footer, " PAGE ") {
		t.Error("footer is missing the page-number field")
	}

	styles := readPackagePart(t, result.Data, "word/styles.xml")
	if !strings.Contains(styles, `<w:outlineLvl w:val="0"/>`) {
		t.Error("styles are missing heading outline levels")
	}

	if part := readPackagePart(t, result.Data, "word/media/image1.png"); part == "" {
		t.Error("embedded image part is empty")
	}

	rels := readPackagePart(t, result.Data, "word/_rels/document.xml.rels")
	if !strings.Contains(rels, `Target="media/image1.png"`) {
		t.Error("document rels are missing the image relationship")
	}
}

func TestRenderPackageTimestampOnCoverOnly(t *testing.T) {
	result, err := RenderPackage(testModel(t))
	if err != nil {
		t.Fatalf("RenderPackage() error = %v", err)
	}

	doc := readPackagePart(t, result.Data, "word/document.xml")
	if got := strings.Count(doc, "2026-03-14"); got != 1 {
		t.Errorf("generation date appears %d times, want once (cover only)", got)
	}
}

func TestRenderPackageHeaderLogo(t *testing.T) {
	model := testModel(t)
	model.Logo = testImage(t)

	result, err := RenderPackage(model)
	if err != nil {
		t.Fatalf("RenderPackage() error = %v", err)
	}

	header := readPackagePart(t, result.Data, "word/header1.xml")
	if !strings.Contains(header, `r:embed="rId1"`) {
		t.Error("header is missing the logo drawing")
	}
	rels := readPackagePart(t, result.Data, "word/_rels/header1.xml.rels")
	if !strings.Contains(rels, `Target="media/image1.png"`) {
		t.Errorf("header rels do not point at the logo media part: %s", rels)
	}

	// Without a logo there is no header relationship part at all.
	plain, err := RenderPackage(testModel(t))
	if err != nil {
		t.Fatalf("RenderPackage() error = %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(plain.Data), int64(len(plain.Data)))
	if err != nil {
		t.Fatalf("open package: %v", err)
	}
	for _, f := range zr.File {
		if f.Name == "word/_rels/header1.xml.rels" {
			t.Error("logo-less package should not carry header rels")
		}
	}
}

func TestRenderPackageDeterministic(t *testing.T) {
	model := testModel(t)
	first, err := RenderPackage(model)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	second, err := RenderPackage(model)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Error("same model rendered different packages")
	}
}
