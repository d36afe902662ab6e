package report

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"fieldreport/api/internal/blob"
	"fieldreport/api/internal/identity"
	"fieldreport/api/internal/imaging"
	"fieldreport/api/internal/store"
)

// Options carries the organization identity stamped onto every report.
type Options struct {
	OrgName   string
	OrgFooter string
	Area      string
	LogoRef   string
}

// Related bundles the child collections of one order.
type Related struct {
	Equipment []store.EquipmentItem
	Materials []store.MaterialItem
	Custody   []store.CustodyItem
	Evidence  []store.EvidenceItem
}

type Builder struct {
	blobs    blob.Store
	resolver *identity.Resolver
	classify LineClassifier
	opts     Options
}

func NewBuilder(blobs blob.Store, resolver *identity.Resolver, opts Options) *Builder {
	return &Builder{blobs: blobs, resolver: resolver, classify: ClassifyLine, opts: opts}
}

// SetClassifier overrides the narrative line classifier.
func (b *Builder) SetClassifier(c LineClassifier) {
	if c != nil {
		b.classify = c
	}
}

// BuildModel assembles the document model for one order. Section order is
// fixed; empty collections render as explanatory rows, never as dropped
// sections. Missing or unreadable images degrade to placeholders.
func (b *Builder) BuildModel(ctx context.Context, order store.ServiceOrder, related Related) (Model, error) {
	model := Model{
		Folio:       order.Folio,
		Title:       titleOf(order),
		ClientName:  order.ClientName,
		OrgName:     b.opts.OrgName,
		OrgFooter:   b.opts.OrgFooter,
		Area:        b.opts.Area,
		Author:      order.EngineerName,
		GeneratedAt: time.Now().UTC(),
		Logo:        b.loadImage(ctx, b.opts.LogoRef),
	}

	model.Sections = append(model.Sections,
		b.generalInfo(order),
		equipmentSection(related.Equipment),
		materialsSection(related.Materials),
		custodySection(related.Custody),
		b.technicalData(order),
		b.gallery(ctx, related.Evidence),
		costsScheduling(order),
	)

	sig, err := b.signatures(ctx, order)
	if err != nil {
		return Model{}, err
	}
	model.Sections = append(model.Sections, sig)

	return model, nil
}

func titleOf(order store.ServiceOrder) string {
	if strings.TrimSpace(order.Title) != "" {
		return order.Title
	}
	if order.Folio != "" {
		return "Service Report " + order.Folio
	}
	return "Service Report"
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func (b *Builder) generalInfo(order store.ServiceOrder) Section {
	types := make([]string, 0, len(order.ServiceTypes)+1)
	for _, code := range order.ServiceTypes {
		types = append(types, store.ServiceTypeLabel(code))
	}
	if strings.TrimSpace(order.ServiceTypeOther) != "" {
		types = append(types, order.ServiceTypeOther)
	}

	return Section{
		Title: "General Information",
		Kind:  KindKeyValue,
		Pairs: []Pair{
			{Label: "Folio", Value: orDash(order.Folio)},
			{Label: "Client", Value: orDash(order.ClientName)},
			{Label: "Client Contact", Value: orDash(order.ClientContact)},
			{Label: "Email", Value: orDash(order.ClientEmail)},
			{Label: "Phone", Value: orDash(order.ClientPhone)},
			{Label: "Location", Value: orDash(order.Location)},
			{Label: "Service Date", Value: dateOrDash(order.ServiceDate)},
			{Label: "Internal Contact", Value: orDash(order.ContactName)},
			{Label: "Engineer", Value: orDash(order.EngineerName)},
			{Label: "Service Type", Value: orDash(strings.Join(types, ", "))},
			{Label: "Ticket", Value: orDash(order.TicketID)},
		},
	}
}

func equipmentSection(items []store.EquipmentItem) Section {
	table := &Table{
		Header:    []string{"Brand", "Model", "Serial", "Description"},
		EmptyNote: "No equipment was recorded for this service.",
	}
	for _, item := range items {
		table.Rows = append(table.Rows, []string{
			orDash(item.Brand), orDash(item.Model), orDash(item.Serial), orDash(item.Description),
		})
	}
	return Section{Title: "Service Equipment", Kind: KindTable, Table: table}
}

func materialsSection(items []store.MaterialItem) Section {
	table := &Table{
		Header:    []string{"Qty", "Description", "Comments"},
		EmptyNote: "No materials were used for this service.",
	}
	for _, item := range items {
		table.Rows = append(table.Rows, []string{
			fmt.Sprintf("%d", item.Quantity), orDash(item.Description), orDash(item.Comments),
		})
	}
	return Section{Title: "Materials Used", Kind: KindTable, Table: table}
}

func custodySection(items []store.CustodyItem) Section {
	table := &Table{
		Header:    []string{"Qty", "Description", "Comments"},
		EmptyNote: "No items were left in custody for this service.",
	}
	for _, item := range items {
		table.Rows = append(table.Rows, []string{
			fmt.Sprintf("%d", item.Quantity), orDash(item.Description), orDash(item.Comments),
		})
	}
	return Section{Title: "Items in Custody", Kind: KindTable, Table: table}
}

func (b *Builder) technicalData(order store.ServiceOrder) Section {
	var blocks []Block
	blocks = append(blocks, ClassifyText(order.Activities, b.classify)...)
	if strings.TrimSpace(order.Findings) != "" {
		blocks = append(blocks, Block{Kind: BlockHeading, Level: 2, Text: "Findings and Recommendations"})
		blocks = append(blocks, ClassifyText(order.Findings, b.classify)...)
	}
	if len(blocks) == 0 {
		blocks = append(blocks, Block{Kind: BlockParagraph, Text: "-"})
	}
	return Section{Title: "Technical Data", Kind: KindNarrative, Blocks: blocks}
}

func (b *Builder) gallery(ctx context.Context, items []store.EvidenceItem) Section {
	var figures []Figure
	n := 0
	for _, item := range items {
		if item.FileRef == "" {
			continue
		}
		n++
		caption := strings.TrimSpace(item.Caption)
		if caption == "" {
			caption = "Service evidence"
		}
		figures = append(figures, Figure{
			Caption: fmt.Sprintf("Fig %d. %s", n, caption),
			Image:   b.loadImage(ctx, item.FileRef),
		})
	}
	return Section{Title: "Photographic Evidence", Kind: KindGallery, Figures: figures}
}

func costsScheduling(order store.ServiceOrder) Section {
	cost := "-"
	switch {
	case order.CostNotApplicable:
		cost = "Not applicable"
	case order.CostToBeQuoted:
		cost = "To be quoted"
	case order.Cost > 0:
		cost = fmt.Sprintf("$%.2f", order.Cost)
	}

	rescheduled := "No"
	if order.Reschedule {
		rescheduled = "Yes"
	}

	hours := "-"
	if order.Hours > 0 {
		hours = fmt.Sprintf("%.1f", order.Hours)
	}

	return Section{
		Title: "Costs and Scheduling",
		Kind:  KindKeyValue,
		Pairs: []Pair{
			{Label: "Service Hours", Value: hours},
			{Label: "Cost", Value: cost},
			{Label: "Rescheduled", Value: rescheduled},
			{Label: "Reschedule Date", Value: dateOrDash(order.RescheduleDate)},
			{Label: "Reschedule Time", Value: orDash(order.RescheduleTime)},
			{Label: "Reschedule Reason", Value: orDash(order.RescheduleReason)},
		},
	}
}

// signatures fills the three acceptance slots. The engineer and internal
// contact resolve through the identity registry; the client signature comes
// from the ink capture stored on the order itself.
func (b *Builder) signatures(ctx context.Context, order store.ServiceOrder) (Section, error) {
	slots := make([]SignatureSlot, 0, 3)

	engineerRef, found, err := b.resolver.ResolveByID(ctx, order.EngineerID)
	if err != nil {
		return Section{}, err
	}
	if !found {
		engineerRef, _, err = b.resolver.ResolveSignature(ctx, order.EngineerName)
		if err != nil {
			return Section{}, err
		}
	}
	slots = append(slots, SignatureSlot{
		Role:  "Service Engineer",
		Name:  orDash(order.EngineerName),
		Image: b.loadImage(ctx, engineerRef),
	})

	slots = append(slots, SignatureSlot{
		Role:  "Client Acceptance",
		Name:  orDash(order.ClientContact),
		Image: b.loadImage(ctx, order.SignatureRef),
	})

	contactRef, _, err := b.resolver.ResolveSignature(ctx, order.ContactName)
	if err != nil {
		return Section{}, err
	}
	slots = append(slots, SignatureSlot{
		Role:  "Internal Contact",
		Name:  orDash(order.ContactName),
		Image: b.loadImage(ctx, contactRef),
	})

	return Section{Title: "Acceptance and Signatures", Kind: KindSignatures, Slots: slots}, nil
}

// loadImage fetches and probes a stored raster. Any failure returns nil so
// rendering proceeds with a placeholder instead of aborting the document.
func (b *Builder) loadImage(ctx context.Context, ref string) *Image {
	if ref == "" {
		return nil
	}
	data, err := b.blobs.Open(ctx, ref)
	if err != nil {
		log.Printf("report: load image %s: %v", ref, err)
		return nil
	}
	info, err := imaging.Probe(data)
	if err != nil {
		log.Printf("report: probe image %s: %v", ref, err)
		return nil
	}
	return &Image{
		Data:   data,
		Mime:   "image/" + info.Format,
		Width:  info.Width,
		Height: info.Height,
	}
}
