package export

import (
	"bytes"
	"embed"
	"encoding/base64"
	"html/template"

	"fieldreport/api/internal/imaging"
	"fieldreport/api/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

var reportTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"dataURL": imageDataURL,
		"boxW":    func(img *report.Image, w, h int) int { dw, _ := fitDisplay(img, w, h); return dw },
		"boxH":    func(img *report.Image, w, h int) int { _, dh := fitDisplay(img, w, h); return dh },
	}

	templateContent, err := templateFS.ReadFile("templates/report.html")
	if err != nil {
		// Fallback to built-in template if file not found
		reportTemplate = template.Must(template.New("report").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	reportTemplate = template.Must(template.New("report").Funcs(funcMap).Parse(string(templateContent)))
}

// imageDataURL inlines a raster as a base64 data URL so the print page needs
// no network access.
func imageDataURL(img *report.Image) template.URL {
	if img == nil {
		return ""
	}
	return template.URL("data:" + img.Mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data))
}

func fitDisplay(img *report.Image, boxW, boxH int) (int, int) {
	if img == nil {
		return boxW, boxH
	}
	return imaging.FitBox(img.Width, img.Height, boxW, boxH)
}

// RenderHTML renders the print page for a document model. Exported so the
// markup can be asserted on without a browser.
func RenderHTML(model report.Model) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, model); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackTemplate is used if the embedded template fails to load
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; font-size: 11pt; line-height: 1.5; color: #1a1a1a; }
    h1 { font-size: 16pt; margin-bottom: 0.25rem; }
    h2 { font-size: 13pt; border-bottom: 2px solid #2b4c7e; padding-bottom: 0.25rem; margin-top: 1.5rem; }
    h3 { font-size: 11.5pt; margin-bottom: 0.25rem; }
    table { width: 100%; border-collapse: collapse; margin: 0.5rem 0; }
    th, td { border: 1px solid #999; padding: 4px 8px; text-align: left; vertical-align: top; }
    th { background: #2b4c7e; color: #fff; }
    td.label { width: 30%; font-weight: bold; background: #f0f3f8; }
    td.empty { text-align: center; color: #666; font-style: italic; }
    .meta { color: #666; font-size: 9pt; }
    .gallery { display: flex; flex-wrap: wrap; gap: 12px; }
    .figure { width: 47%; text-align: center; page-break-inside: avoid; }
    .figure .caption { font-size: 9pt; color: #444; }
    .figure .placeholder { border: 1px dashed #999; color: #666; padding: 2rem 0; font-size: 9pt; }
    .signatures { display: flex; justify-content: space-between; margin-top: 2rem; page-break-inside: avoid; }
    .slot { width: 30%; text-align: center; }
    .slot .ink { height: 70px; }
    .slot .line { border-top: 1px solid #333; padding-top: 4px; }
    .slot .role { font-size: 9pt; color: #666; }
    ul { margin: 0.25rem 0; }
  </style>
</head>
<body>
  {{if .Logo}}<img src="{{dataURL .Logo}}" width="{{boxW .Logo 140 60}}" height="{{boxH .Logo 140 60}}" alt="">{{end}}
  <h1>{{.Title}}</h1>
  <div class="meta">{{.OrgName}}{{if .Area}} | {{.Area}}{{end}} | Folio {{.Folio}} | {{.GeneratedAt.Format "Jan 2, 2006 15:04 MST"}}</div>
  {{range .Sections}}
  <h2>{{.Title}}</h2>
  {{if eq .Kind "keyvalue"}}
  <table>
    {{range .Pairs}}<tr><td class="label">{{.Label}}</td><td>{{.Value}}</td></tr>{{end}}
  </table>
  {{else if eq .Kind "table"}}
  <table>
    <tr>{{range .Table.Header}}<th>{{.}}</th>{{end}}</tr>
    {{if .Table.Rows}}
    {{range .Table.Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}
    {{else}}
    <tr><td class="empty" colspan="{{len .Table.Header}}">{{.Table.EmptyNote}}</td></tr>
    {{end}}
  </table>
  {{else if eq .Kind "narrative"}}
  {{range .Blocks}}
  {{if eq .Kind "heading"}}<h3>{{.Text}}</h3>{{else if eq .Kind "list"}}<ul><li>{{.Text}}</li></ul>{{else}}<p>{{.Text}}</p>{{end}}
  {{end}}
  {{else if eq .Kind "gallery"}}
  <div class="gallery">
    {{range .Figures}}
    <div class="figure">
      {{if .Image}}<img src="{{dataURL .Image}}" width="{{boxW .Image 320 240}}" height="{{boxH .Image 320 240}}" alt="">{{else}}<div class="placeholder">image unavailable</div>{{end}}
      <div class="caption">{{.Caption}}</div>
    </div>
    {{end}}
  </div>
  {{else if eq .Kind "signatures"}}
  <div class="signatures">
    {{range .Slots}}
    <div class="slot">
      <div class="ink">{{if .Image}}<img src="{{dataURL .Image}}" width="{{boxW .Image 160 70}}" height="{{boxH .Image 160 70}}" alt="">{{end}}</div>
      <div class="line">{{.Name}}</div>
      <div class="role">{{.Role}}</div>
    </div>
    {{end}}
  </div>
  {{end}}
  {{end}}
  {{if .OrgFooter}}<div class="meta" style="margin-top:2rem">{{.OrgFooter}}</div>{{end}}
</body>
</html>`
