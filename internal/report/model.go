// Package report builds the neutral document model a service order renders
// to. The model is an ordered section tree consumed unchanged by both output
// adapters; building it never mutates the order or the identity registry.
package report

import "time"

type SectionKind string

const (
	KindKeyValue   SectionKind = "keyvalue"
	KindTable      SectionKind = "table"
	KindNarrative  SectionKind = "narrative"
	KindGallery    SectionKind = "gallery"
	KindSignatures SectionKind = "signatures"
)

// Model is ephemeral and request-scoped; it is rebuilt for every render.
type Model struct {
	Folio       string
	Title       string
	ClientName  string
	OrgName     string
	OrgFooter   string
	Area        string
	Author      string
	GeneratedAt time.Time
	Logo        *Image
	Sections    []Section
}

type Section struct {
	Title string
	Kind  SectionKind

	// Exactly one of the following is populated, selected by Kind.
	Pairs   []Pair
	Table   *Table
	Blocks  []Block
	Figures []Figure
	Slots   []SignatureSlot
}

type Pair struct {
	Label string
	Value string
}

type Table struct {
	Header []string
	Rows   [][]string
	// EmptyNote renders as a single full-width row when Rows is empty, so
	// the section never disappears.
	EmptyNote string
}

type BlockKind string

const (
	BlockHeading   BlockKind = "heading"
	BlockListItem  BlockKind = "list"
	BlockParagraph BlockKind = "paragraph"
)

type Block struct {
	Kind  BlockKind
	Level int // heading depth, 1-3
	Text  string
}

type Image struct {
	Data   []byte
	Mime   string
	Width  int
	Height int
}

// Figure is a gallery entry. A nil Image marks a backing file that could
// not be loaded; adapters render a placeholder instead of aborting.
type Figure struct {
	Caption string
	Image   *Image
}

// SignatureSlot holds one of the three acceptance signatures. A nil Image
// leaves blank space for an ink signature above the printed name.
type SignatureSlot struct {
	Role  string
	Name  string
	Image *Image
}
