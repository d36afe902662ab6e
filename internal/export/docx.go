package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"fieldreport/api/internal/imaging"
	"fieldreport/api/internal/report"
)

// RenderPackage builds an editable WordprocessingML package from the document
// model: cover page, document-control table, a field-based table of contents,
// native headings and tables, embedded images, and a footer page counter.
// Output is deterministic for a fixed model, including GeneratedAt.
func RenderPackage(model report.Model) (*Result, error) {
	pkg := newPackage()
	body := pkg.buildBody(model)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(rootRelsXML)},
		{"word/document.xml", []byte(documentXML(body))},
		{"word/styles.xml", []byte(stylesXML)},
		{"word/header1.xml", []byte(headerXML(model))},
		{"word/footer1.xml", []byte(footerXML(model))},
		{"word/_rels/document.xml.rels", []byte(pkg.documentRelsXML())},
	}
	if model.Logo != nil {
		// The cover registers the logo before any other drawing, so it is
		// always the first media part; the header shares it.
		parts = append(parts, struct {
			name string
			data []byte
		}{"word/_rels/header1.xml.rels", []byte(headerRelsXML("media/" + pkg.media[0].name))})
	}
	for _, media := range pkg.media {
		parts = append(parts, struct {
			name string
			data []byte
		}{"word/media/" + media.name, media.data})
	}

	for _, part := range parts {
		// Zero Modified keeps the archive byte-stable across renders.
		w, err := zw.CreateHeader(&zip.FileHeader{Name: part.name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("create package part %s: %w", part.name, err)
		}
		if _, err := w.Write(part.data); err != nil {
			return nil, fmt.Errorf("write package part %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close package: %w", err)
	}

	name := model.Folio
	if name == "" {
		name = model.Title
	}
	return &Result{
		Data:     buf.Bytes(),
		Filename: sanitizeFilename(name) + ".docx",
		MimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}, nil
}

const emuPerPixel = 9525

type mediaPart struct {
	name string
	data []byte
}

type docPackage struct {
	media   []mediaPart
	nextRel int
}

func newPackage() *docPackage {
	// rId1-rId3 are reserved for styles, header, and footer.
	return &docPackage{nextRel: 4}
}

// addImage registers a raster as a media part and returns its relationship id.
func (p *docPackage) addImage(img *report.Image) string {
	ext := "jpeg"
	if img.Mime == "image/png" {
		ext = "png"
	}
	rid := fmt.Sprintf("rId%d", p.nextRel)
	p.nextRel++
	p.media = append(p.media, mediaPart{
		name: fmt.Sprintf("image%d.%s", len(p.media)+1, ext),
		data: img.Data,
	})
	return rid
}

func (p *docPackage) documentRelsXML() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	b.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>`)
	b.WriteString(`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/header" Target="header1.xml"/>`)
	b.WriteString(`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer" Target="footer1.xml"/>`)
	for i, media := range p.media {
		fmt.Fprintf(&b, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/%s"/>`, i+4, media.name)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func esc(s string) string { return xmlEscaper.Replace(s) }

// buildBody emits the document body, registering media parts as it goes.
func (p *docPackage) buildBody(model report.Model) string {
	var b strings.Builder

	p.coverPage(&b, model)
	p.controlPage(&b, model)
	tocPage(&b)

	for _, section := range model.Sections {
		heading(&b, 1, section.Title)
		switch section.Kind {
		case report.KindKeyValue:
			keyValueTable(&b, section.Pairs)
		case report.KindTable:
			dataTable(&b, section.Table)
		case report.KindNarrative:
			narrative(&b, section.Blocks)
		case report.KindGallery:
			p.gallery(&b, section.Figures)
		case report.KindSignatures:
			p.signatureBlock(&b, section.Slots)
		}
	}

	return b.String()
}

func (p *docPackage) coverPage(b *strings.Builder, model report.Model) {
	if model.Logo != nil {
		b.WriteString(`<w:p><w:pPr><w:jc w:val="center"/></w:pPr>`)
		p.drawing(b, model.Logo, 220, 90)
		b.WriteString(`</w:p>`)
	}
	spacer(b, 4)
	para(b, "TitleStyle", "center", model.Title)
	para(b, "SubtitleStyle", "center", "Folio "+dashIfEmpty(model.Folio))
	spacer(b, 2)
	para(b, "", "center", model.OrgName)
	if model.Area != "" {
		para(b, "", "center", model.Area)
	}
	para(b, "", "center", "Client: "+dashIfEmpty(model.ClientName))
	para(b, "", "center", "Engineer: "+dashIfEmpty(model.Author))
	para(b, "", "center", "Generated "+model.GeneratedAt.Format("2006-01-02 15:04 MST"))
	pageBreak(b)
}

func (p *docPackage) controlPage(b *strings.Builder, model report.Model) {
	heading(b, 1, "Document Control")
	tableStart(b, columnWidths(4))
	// The date column stays blank for manual revisions; the only generated
	// timestamp in the package is the one on the cover.
	headerRow(b, []string{"Version", "Date", "Author", "Description"})
	row(b, []string{"1.0", "-", dashIfEmpty(model.Author), "Initial issue"})
	tableEnd(b)
	pageBreak(b)
}

func tocPage(b *strings.Builder) {
	heading(b, 1, "Contents")
	b.WriteString(`<w:p><w:fldSimple w:instr=" TOC \o &quot;1-3&quot; \h \z \u "><w:r><w:t>Update this field to build the table of contents.</w:t></w:r></w:fldSimple></w:p>`)
	pageBreak(b)
}

func keyValueTable(b *strings.Builder, pairs []report.Pair) {
	tableStart(b, []int{2800, 6560})
	for _, pair := range pairs {
		b.WriteString(`<w:tr>`)
		labelCell(b, 2800, pair.Label)
		cell(b, 6560, pair.Value, false)
		b.WriteString(`</w:tr>`)
	}
	tableEnd(b)
}

func dataTable(b *strings.Builder, table *report.Table) {
	widths := columnWidths(len(table.Header))
	tableStart(b, widths)
	headerRow(b, table.Header)
	if len(table.Rows) == 0 {
		// Single merged row keeps the empty section visible.
		b.WriteString(`<w:tr><w:tc><w:tcPr>`)
		fmt.Fprintf(b, `<w:tcW w:w="%d" w:type="dxa"/><w:gridSpan w:val="%d"/>`, 9360, len(table.Header))
		b.WriteString(`</w:tcPr><w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:rPr><w:i/></w:rPr>`)
		fmt.Fprintf(b, `<w:t xml:space="preserve">%s</w:t></w:r></w:p></w:tc></w:tr>`, esc(table.EmptyNote))
	}
	for _, cells := range table.Rows {
		row(b, cells)
	}
	tableEnd(b)
}

func narrative(b *strings.Builder, blocks []report.Block) {
	for _, block := range blocks {
		switch block.Kind {
		case report.BlockHeading:
			level := block.Level + 1
			if level > 3 {
				level = 3
			}
			heading(b, level, block.Text)
		case report.BlockListItem:
			b.WriteString(`<w:p><w:pPr><w:ind w:left="720"/></w:pPr><w:r>`)
			fmt.Fprintf(b, `<w:t xml:space="preserve">%s</w:t></w:r></w:p>`, esc(listText(block.Text)))
		default:
			para(b, "", "", block.Text)
		}
	}
}

// listText prefixes a bullet for items that do not carry their own marker.
func listText(text string) string {
	if len(text) > 0 && text[0] >= '0' && text[0] <= '9' {
		return text
	}
	return "• " + text
}

func (p *docPackage) gallery(b *strings.Builder, figures []report.Figure) {
	if len(figures) == 0 {
		para(b, "", "", "No photographic evidence was attached.")
		return
	}
	// Two figures per row.
	tableStart(b, []int{4680, 4680})
	for i := 0; i < len(figures); i += 2 {
		b.WriteString(`<w:tr>`)
		p.figureCell(b, figures[i])
		if i+1 < len(figures) {
			p.figureCell(b, figures[i+1])
		} else {
			cell(b, 4680, "", false)
		}
		b.WriteString(`</w:tr>`)
	}
	tableEnd(b)
}

func (p *docPackage) figureCell(b *strings.Builder, figure report.Figure) {
	b.WriteString(`<w:tc><w:tcPr><w:tcW w:w="4680" w:type="dxa"/></w:tcPr>`)
	b.WriteString(`<w:p><w:pPr><w:jc w:val="center"/></w:pPr>`)
	if figure.Image != nil {
		p.drawing(b, figure.Image, 300, 225)
	} else {
		b.WriteString(`<w:r><w:rPr><w:i/></w:rPr><w:t>(image unavailable)</w:t></w:r>`)
	}
	b.WriteString(`</w:p>`)
	para(b, "CaptionStyle", "center", figure.Caption)
	b.WriteString(`</w:tc>`)
}

func (p *docPackage) signatureBlock(b *strings.Builder, slots []report.SignatureSlot) {
	spacer(b, 2)
	tableStart(b, []int{3120, 3120, 3120})
	b.WriteString(`<w:tr>`)
	for _, slot := range slots {
		b.WriteString(`<w:tc><w:tcPr><w:tcW w:w="3120" w:type="dxa"/></w:tcPr>`)
		b.WriteString(`<w:p><w:pPr><w:jc w:val="center"/></w:pPr>`)
		if slot.Image != nil {
			p.drawing(b, slot.Image, 170, 75)
		} else {
			// Blank vertical space for an ink signature.
			b.WriteString(`<w:r><w:br/><w:br/><w:br/></w:r>`)
		}
		b.WriteString(`</w:p>`)
		b.WriteString(`<w:p><w:pPr><w:jc w:val="center"/><w:pBdr><w:top w:val="single" w:sz="6" w:space="1" w:color="333333"/></w:pBdr></w:pPr>`)
		fmt.Fprintf(b, `<w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, esc(slot.Name))
		para(b, "CaptionStyle", "center", slot.Role)
		b.WriteString(`</w:tc>`)
	}
	b.WriteString(`</w:tr>`)
	tableEnd(b)
}

// drawing emits an inline picture scaled to fit the given pixel box.
func (p *docPackage) drawing(b *strings.Builder, img *report.Image, boxW, boxH int) {
	rid := p.addImage(img)
	drawingXML(b, img, boxW, boxH, rid, len(p.media))
}

// drawingXML writes the inline picture markup for an already-registered
// relationship id. The header drawing uses it directly, since relationship
// ids are scoped to the part that declares them.
func drawingXML(b *strings.Builder, img *report.Image, boxW, boxH int, rid string, id int) {
	w, h := imaging.FitBox(img.Width, img.Height, boxW, boxH)
	cx, cy := w*emuPerPixel, h*emuPerPixel

	b.WriteString(`<w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`)
	fmt.Fprintf(b, `<wp:extent cx="%d" cy="%d"/>`, cx, cy)
	fmt.Fprintf(b, `<wp:docPr id="%d" name="image%d"/>`, id, id)
	b.WriteString(`<a:graphic xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">`)
	b.WriteString(`<a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`)
	b.WriteString(`<pic:pic xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">`)
	fmt.Fprintf(b, `<pic:nvPicPr><pic:cNvPr id="%d" name="image%d"/><pic:cNvPicPr/></pic:nvPicPr>`, id, id)
	fmt.Fprintf(b, `<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`, rid)
	b.WriteString(`<pic:spPr><a:xfrm><a:off x="0" y="0"/>`)
	fmt.Fprintf(b, `<a:ext cx="%d" cy="%d"/></a:xfrm>`, cx, cy)
	b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`)
	b.WriteString(`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`)
}

func heading(b *strings.Builder, level int, text string) {
	fmt.Fprintf(b, `<w:p><w:pPr><w:pStyle w:val="Heading%d"/></w:pPr><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, level, esc(text))
}

func para(b *strings.Builder, style, align, text string) {
	b.WriteString(`<w:p>`)
	if style != "" || align != "" {
		b.WriteString(`<w:pPr>`)
		if style != "" {
			fmt.Fprintf(b, `<w:pStyle w:val="%s"/>`, style)
		}
		if align != "" {
			fmt.Fprintf(b, `<w:jc w:val="%s"/>`, align)
		}
		b.WriteString(`</w:pPr>`)
	}
	fmt.Fprintf(b, `<w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, esc(text))
}

func spacer(b *strings.Builder, n int) {
	for i := 0; i < n; i++ {
		b.WriteString(`<w:p/>`)
	}
}

func pageBreak(b *strings.Builder) {
	b.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
}

func tableStart(b *strings.Builder, widths []int) {
	b.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="9360" w:type="dxa"/>`)
	b.WriteString(`<w:tblBorders>`)
	for _, edge := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		fmt.Fprintf(b, `<w:%s w:val="single" w:sz="4" w:space="0" w:color="999999"/>`, edge)
	}
	b.WriteString(`</w:tblBorders></w:tblPr><w:tblGrid>`)
	for _, width := range widths {
		fmt.Fprintf(b, `<w:gridCol w:w="%d"/>`, width)
	}
	b.WriteString(`</w:tblGrid>`)
}

func tableEnd(b *strings.Builder) {
	b.WriteString(`</w:tbl>`)
}

func headerRow(b *strings.Builder, cells []string) {
	widths := columnWidths(len(cells))
	b.WriteString(`<w:tr><w:trPr><w:tblHeader/></w:trPr>`)
	for i, text := range cells {
		b.WriteString(`<w:tc><w:tcPr>`)
		fmt.Fprintf(b, `<w:tcW w:w="%d" w:type="dxa"/>`, widths[i])
		b.WriteString(`<w:shd w:val="clear" w:color="auto" w:fill="2B4C7E"/></w:tcPr>`)
		b.WriteString(`<w:p><w:r><w:rPr><w:b/><w:color w:val="FFFFFF"/></w:rPr>`)
		fmt.Fprintf(b, `<w:t xml:space="preserve">%s</w:t></w:r></w:p></w:tc>`, esc(text))
	}
	b.WriteString(`</w:tr>`)
}

func row(b *strings.Builder, cells []string) {
	widths := columnWidths(len(cells))
	b.WriteString(`<w:tr>`)
	for i, text := range cells {
		cell(b, widths[i], text, false)
	}
	b.WriteString(`</w:tr>`)
}

func cell(b *strings.Builder, width int, text string, bold bool) {
	b.WriteString(`<w:tc><w:tcPr>`)
	fmt.Fprintf(b, `<w:tcW w:w="%d" w:type="dxa"/></w:tcPr><w:p><w:r>`, width)
	if bold {
		b.WriteString(`<w:rPr><w:b/></w:rPr>`)
	}
	fmt.Fprintf(b, `<w:t xml:space="preserve">%s</w:t></w:r></w:p></w:tc>`, esc(text))
}

func labelCell(b *strings.Builder, width int, text string) {
	b.WriteString(`<w:tc><w:tcPr>`)
	fmt.Fprintf(b, `<w:tcW w:w="%d" w:type="dxa"/>`, width)
	b.WriteString(`<w:shd w:val="clear" w:color="auto" w:fill="F0F3F8"/></w:tcPr>`)
	b.WriteString(`<w:p><w:r><w:rPr><w:b/></w:rPr>`)
	fmt.Fprintf(b, `<w:t xml:space="preserve">%s</w:t></w:r></w:p></w:tc>`, esc(text))
}

// columnWidths splits the 9360 dxa content width evenly.
func columnWidths(n int) []int {
	if n <= 0 {
		return nil
	}
	widths := make([]int, n)
	each := 9360 / n
	for i := range widths {
		widths[i] = each
	}
	widths[n-1] = 9360 - each*(n-1)
	return widths
}

func dashIfEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const contentTypesXML = xmlHeader +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Default Extension="png" ContentType="image/png"/>` +
	`<Default Extension="jpeg" ContentType="image/jpeg"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`<Override PartName="/word/header1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"/>` +
	`<Override PartName="/word/footer1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"/>` +
	`</Types>`

const rootRelsXML = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

func documentXML(body string) string {
	return xmlHeader +
		`<w:document` +
		` xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
		` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing">` +
		`<w:body>` + body +
		`<w:sectPr>` +
		`<w:headerReference w:type="default" r:id="rId2"/>` +
		`<w:footerReference w:type="default" r:id="rId3"/>` +
		`<w:pgSz w:w="12240" w:h="15840"/>` +
		`<w:pgMar w:top="1080" w:right="1080" w:bottom="1080" w:left="1080" w:header="720" w:footer="720"/>` +
		`</w:sectPr>` +
		`</w:body></w:document>`
}

func headerXML(model report.Model) string {
	line := model.OrgName
	if model.Folio != "" {
		line += " · " + model.Folio
	}

	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<w:hdr` +
		` xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
		` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing">`)
	b.WriteString(`<w:p><w:pPr><w:jc w:val="right"/><w:pBdr><w:bottom w:val="single" w:sz="6" w:space="1" w:color="2B4C7E"/></w:pBdr></w:pPr>`)
	if model.Logo != nil {
		drawingXML(&b, model.Logo, 120, 36, "rId1", 1)
		b.WriteString(`<w:r><w:t xml:space="preserve">  </w:t></w:r>`)
	}
	b.WriteString(`<w:r><w:rPr><w:color w:val="666666"/><w:sz w:val="18"/></w:rPr><w:t xml:space="preserve">` + esc(line) + `</w:t></w:r></w:p>`)
	b.WriteString(`</w:hdr>`)
	return b.String()
}

func headerRelsXML(target string) string {
	return xmlHeader +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="` + target + `"/>` +
		`</Relationships>`
}

func footerXML(model report.Model) string {
	return xmlHeader +
		`<w:ftr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:p><w:pPr><w:jc w:val="center"/></w:pPr>` +
		`<w:r><w:rPr><w:color w:val="666666"/><w:sz w:val="18"/></w:rPr><w:t xml:space="preserve">` + esc(model.OrgFooter) + ` — </w:t></w:r>` +
		`<w:r><w:rPr><w:color w:val="666666"/><w:sz w:val="18"/></w:rPr><w:t xml:space="preserve">Page </w:t></w:r>` +
		`<w:r><w:fldChar w:fldCharType="begin"/></w:r>` +
		`<w:r><w:instrText xml:space="preserve"> PAGE </w:instrText></w:r>` +
		`<w:r><w:fldChar w:fldCharType="end"/></w:r>` +
		`</w:p></w:ftr>`
}

const stylesXML = xmlHeader +
	`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Arial" w:hAnsi="Arial"/><w:sz w:val="22"/></w:rPr></w:rPrDefault></w:docDefaults>` +
	`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="TitleStyle"><w:name w:val="Title"/><w:basedOn w:val="Normal"/>` +
	`<w:rPr><w:b/><w:sz w:val="40"/><w:color w:val="2B4C7E"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="SubtitleStyle"><w:name w:val="Subtitle"/><w:basedOn w:val="Normal"/>` +
	`<w:rPr><w:sz w:val="28"/><w:color w:val="666666"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/>` +
	`<w:pPr><w:keepNext/><w:spacing w:before="360" w:after="120"/><w:outlineLvl w:val="0"/></w:pPr>` +
	`<w:rPr><w:b/><w:sz w:val="28"/><w:color w:val="2B4C7E"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/>` +
	`<w:pPr><w:keepNext/><w:spacing w:before="240" w:after="80"/><w:outlineLvl w:val="1"/></w:pPr>` +
	`<w:rPr><w:b/><w:sz w:val="24"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading3"><w:name w:val="heading 3"/><w:basedOn w:val="Normal"/>` +
	`<w:pPr><w:keepNext/><w:spacing w:before="200" w:after="60"/><w:outlineLvl w:val="2"/></w:pPr>` +
	`<w:rPr><w:b/><w:i/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="CaptionStyle"><w:name w:val="caption"/><w:basedOn w:val="Normal"/>` +
	`<w:rPr><w:sz w:val="18"/><w:color w:val="444444"/></w:rPr></w:style>` +
	`</w:styles>`
