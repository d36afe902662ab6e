package report

import (
	"reflect"
	"testing"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line      string
		wantKind  BlockKind
		wantLevel int
	}{
		{"1.1 Rack installation", BlockHeading, 2},
		{"2.3.4 Cable routing", BlockHeading, 3},
		{"1.2.3.4 Deep nesting caps at three", BlockHeading, 3},
		{"II. Site survey", BlockHeading, 1},
		{"IV) Final checks", BlockHeading, 1},
		{"A. Preparation", BlockHeading, 1},
		{"B) Cleanup", BlockHeading, 1},
		{"- replaced the faulty PSU", BlockListItem, 0},
		{"* verified link lights", BlockListItem, 0},
		{"1. tightened all terminals", BlockListItem, 0},
		{"3) reseated the line card", BlockListItem, 0},
		{"The system was restarted and monitored for one hour.", BlockParagraph, 0},
		{"Arrived on site at 9:00.", BlockParagraph, 0},
	}
	for _, tt := range tests {
		got := ClassifyLine(tt.line)
		if got.Kind != tt.wantKind || got.Level != tt.wantLevel {
			t.Errorf("ClassifyLine(%q) = %s level %d, want %s level %d",
				tt.line, got.Kind, got.Level, tt.wantKind, tt.wantLevel)
		}
	}
}

func TestClassifyTextSkipsBlankLines(t *testing.T) {
	blocks := ClassifyText("1.1 Install\n\n  - mounted chassis  \n\nDone.\n", nil)
	want := []Block{
		{Kind: BlockHeading, Level: 2, Text: "1.1 Install"},
		{Kind: BlockListItem, Text: "mounted chassis"},
		{Kind: BlockParagraph, Text: "Done."},
	}
	if !reflect.DeepEqual(blocks, want) {
		t.Errorf("ClassifyText() = %+v, want %+v", blocks, want)
	}
}

func TestClassifyTextCustomClassifier(t *testing.T) {
	everythingIsAList := func(line string) Block {
		return Block{Kind: BlockListItem, Text: line}
	}
	blocks := ClassifyText("1.1 Install\nplain text", everythingIsAList)
	for _, block := range blocks {
		if block.Kind != BlockListItem {
			t.Errorf("custom classifier ignored, got %s for %q", block.Kind, block.Text)
		}
	}
}
