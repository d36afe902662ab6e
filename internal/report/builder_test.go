package report

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"fieldreport/api/internal/identity"
	"fieldreport/api/internal/store"
)

type fakeBlobs struct {
	objects map[string][]byte
	failing map[string]bool
}

func (f *fakeBlobs) Open(_ context.Context, ref string) ([]byte, error) {
	if f.failing[ref] {
		return nil, errors.New("connection reset")
	}
	data, ok := f.objects[ref]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (f *fakeBlobs) Put(context.Context, string, []byte, string) error { return nil }

type fakeRegistry struct {
	identities []store.Identity
}

func (f *fakeRegistry) ListIdentities(context.Context) ([]store.Identity, error) {
	return f.identities, nil
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func testBuilder(t *testing.T, blobs *fakeBlobs) *Builder {
	t.Helper()
	resolver := identity.NewResolver(&fakeRegistry{identities: []store.Identity{
		{ID: "idn_1", FullName: "Rosa Mendez", Username: "rmendez", SignatureRef: "sig/rosa.png"},
		{ID: "idn_2", FullName: "Pablo Ortiz", Username: "portiz", SignatureRef: "sig/pablo.png"},
	}})
	return NewBuilder(blobs, resolver, Options{OrgName: "Acme Networks", Area: "Field Services"})
}

func baseOrder() store.ServiceOrder {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	return store.ServiceOrder{
		ID:           "ord_1",
		Folio:        "OS-20260314-R001",
		Status:       store.StatusFinalized,
		ClientName:   "Globex",
		ContactName:  "Pablo Ortiz",
		EngineerName: "Rosa Mendez",
		ServiceDate:  &date,
		ServiceTypes: []string{"maintenance"},
		Activities:   "1.1 Inspection\n- cleaned filters",
	}
}

func sectionTitles(model Model) []string {
	titles := make([]string, len(model.Sections))
	for i, section := range model.Sections {
		titles[i] = section.Title
	}
	return titles
}

func TestBuildModelSectionOrderIsFixed(t *testing.T) {
	builder := testBuilder(t, &fakeBlobs{})
	want := []string{
		"General Information",
		"Service Equipment",
		"Materials Used",
		"Items in Custody",
		"Technical Data",
		"Photographic Evidence",
		"Costs and Scheduling",
		"Acceptance and Signatures",
	}

	// Same order with every child collection empty and with all populated.
	empty, err := builder.BuildModel(context.Background(), baseOrder(), Related{})
	if err != nil {
		t.Fatalf("BuildModel(empty) error = %v", err)
	}
	full, err := builder.BuildModel(context.Background(), baseOrder(), Related{
		Equipment: []store.EquipmentItem{{Brand: "Cisco", Model: "C9300", Serial: "FCW1"}},
		Materials: []store.MaterialItem{{Quantity: 2, Description: "SFP module"}},
		Custody:   []store.CustodyItem{{Quantity: 1, Description: "Spare PSU"}},
		Evidence:  []store.EvidenceItem{{FileRef: "ev/1.png"}},
	})
	if err != nil {
		t.Fatalf("BuildModel(full) error = %v", err)
	}

	for _, model := range []Model{empty, full} {
		got := sectionTitles(model)
		if len(got) != len(want) {
			t.Fatalf("sections = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("section[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	}
}

func TestBuildModelEmptyTablesKeepExplanatoryRow(t *testing.T) {
	builder := testBuilder(t, &fakeBlobs{})
	model, err := builder.BuildModel(context.Background(), baseOrder(), Related{})
	if err != nil {
		t.Fatalf("BuildModel() error = %v", err)
	}

	for _, i := range []int{1, 2, 3} {
		section := model.Sections[i]
		if len(section.Table.Rows) != 0 {
			t.Fatalf("%s: expected no rows, got %d", section.Title, len(section.Table.Rows))
		}
		if section.Table.EmptyNote == "" {
			t.Errorf("%s: empty table is missing its explanatory note", section.Title)
		}
	}
}

func TestBuildModelCustodyRows(t *testing.T) {
	builder := testBuilder(t, &fakeBlobs{})
	model, err := builder.BuildModel(context.Background(), baseOrder(), Related{
		Custody: []store.CustodyItem{
			{Quantity: 1, Description: "Spare PSU", Comments: "returned next visit"},
			{Quantity: 3, Description: "Patch cables"},
		},
	})
	if err != nil {
		t.Fatalf("BuildModel() error = %v", err)
	}

	custody := model.Sections[3]
	if custody.Title != "Items in Custody" {
		t.Fatalf("section title = %q", custody.Title)
	}
	if len(custody.Table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(custody.Table.Rows))
	}
	if custody.Table.Rows[0][0] != "1" || custody.Table.Rows[0][1] != "Spare PSU" {
		t.Errorf("row[0] = %v", custody.Table.Rows[0])
	}
	if custody.Table.Rows[1][2] != "-" {
		t.Errorf("empty comment should render as dash, got %q", custody.Table.Rows[1][2])
	}
}

func TestBuildModelDashesEmptyValues(t *testing.T) {
	builder := testBuilder(t, &fakeBlobs{})
	order := baseOrder()
	order.ClientPhone = ""
	order.Location = ""

	model, err := builder.BuildModel(context.Background(), order, Related{})
	if err != nil {
		t.Fatalf("BuildModel() error = %v", err)
	}

	for _, pair := range model.Sections[0].Pairs {
		if pair.Value == "" {
			t.Errorf("pair %q has empty value, want \"-\"", pair.Label)
		}
	}
}

func TestBuildModelGalleryCaptions(t *testing.T) {
	pngData := testPNG(t)
	blobs := &fakeBlobs{objects: map[string][]byte{
		"ev/1.png": pngData,
		"ev/2.png": pngData,
	}}
	builder := testBuilder(t, blobs)

	model, err := builder.BuildModel(context.Background(), baseOrder(), Related{
		Evidence: []store.EvidenceItem{
			{FileRef: "ev/1.png", Caption: "Rack front"},
			{FileRef: "ev/2.png"},
			{FileRef: ""}, // no backing file, skipped
		},
	})
	if err != nil {
		t.Fatalf("BuildModel() error = %v", err)
	}

	gallery := model.Sections[5]
	if len(gallery.Figures) != 2 {
		t.Fatalf("figures = %d, want 2", len(gallery.Figures))
	}
	if gallery.Figures[0].Caption != "Fig 1. Rack front" {
		t.Errorf("caption[0] = %q", gallery.Figures[0].Caption)
	}
	if gallery.Figures[1].Caption != "Fig 2. Service evidence" {
		t.Errorf("caption[1] = %q", gallery.Figures[1].Caption)
	}
	if gallery.Figures[0].Image == nil || gallery.Figures[0].Image.Width != 8 {
		t.Errorf("figure image not probed: %+v", gallery.Figures[0].Image)
	}
}

func TestBuildModelUnreadableImageBecomesPlaceholder(t *testing.T) {
	blobs := &fakeBlobs{
		objects: map[string][]byte{"ev/bad.png": []byte("not a png")},
		failing: map[string]bool{"ev/gone.png": true},
	}
	builder := testBuilder(t, blobs)

	model, err := builder.BuildModel(context.Background(), baseOrder(), Related{
		Evidence: []store.EvidenceItem{
			{FileRef: "ev/bad.png", Caption: "Corrupt"},
			{FileRef: "ev/gone.png", Caption: "Missing"},
		},
	})
	if err != nil {
		t.Fatalf("BuildModel() error = %v", err)
	}

	gallery := model.Sections[5]
	if len(gallery.Figures) != 2 {
		t.Fatalf("figures = %d, want 2", len(gallery.Figures))
	}
	for i, figure := range gallery.Figures {
		if figure.Image != nil {
			t.Errorf("figure[%d] should be a placeholder, got image %+v", i, figure.Image)
		}
	}
}

func TestBuildModelSignatureSlots(t *testing.T) {
	pngData := testPNG(t)
	blobs := &fakeBlobs{objects: map[string][]byte{
		"sig/rosa.png":  pngData,
		"sig/pablo.png": pngData,
	}}
	builder := testBuilder(t, blobs)

	model, err := builder.BuildModel(context.Background(), baseOrder(), Related{})
	if err != nil {
		t.Fatalf("BuildModel() error = %v", err)
	}

	slots := model.Sections[7].Slots
	if len(slots) != 3 {
		t.Fatalf("slots = %d, want 3", len(slots))
	}
	if slots[0].Role != "Service Engineer" || slots[0].Image == nil {
		t.Errorf("engineer slot = %+v, want resolved signature", slots[0])
	}
	if slots[1].Role != "Client Acceptance" || slots[1].Image != nil {
		t.Errorf("client slot = %+v, want blank ink space", slots[1])
	}
	if slots[2].Role != "Internal Contact" || slots[2].Image == nil {
		t.Errorf("contact slot = %+v, want resolved signature", slots[2])
	}
}

func TestBuildModelNarrative(t *testing.T) {
	builder := testBuilder(t, &fakeBlobs{})
	order := baseOrder()
	order.Findings = "Firmware is two releases behind."

	model, err := builder.BuildModel(context.Background(), order, Related{})
	if err != nil {
		t.Fatalf("BuildModel() error = %v", err)
	}

	blocks := model.Sections[4].Blocks
	if len(blocks) != 4 {
		t.Fatalf("blocks = %d, want 4", len(blocks))
	}
	if blocks[0].Kind != BlockHeading || blocks[1].Kind != BlockListItem {
		t.Errorf("activities not classified: %+v", blocks[:2])
	}
	if blocks[2].Kind != BlockHeading || !strings.Contains(blocks[2].Text, "Findings") {
		t.Errorf("findings heading missing: %+v", blocks[2])
	}
}
