package report

import (
	"regexp"
	"strings"
)

// LineClassifier decides how one trimmed, non-empty narrative line renders.
// It is a plain function so the heuristics can be swapped without touching
// the builder.
type LineClassifier func(line string) Block

var (
	// Multi-segment numbers (1.2, 3.1.4) read as section headings.
	dottedHeadingRe = regexp.MustCompile(`^(\d+(?:\.\d+)+)[.)]?\s+\S`)
	// Uppercase roman numerals (II., IV)) read as top-level headings.
	romanHeadingRe = regexp.MustCompile(`^[IVXLCDM]+[.)]\s+\S`)
	// Single uppercase letters (A., B)) read as top-level headings.
	letterHeadingRe = regexp.MustCompile(`^[A-Z][.)]\s+\S`)
	// Single numbers (1., 2)) and dashes read as list items.
	numberedItemRe = regexp.MustCompile(`^\d+[.)]\s+\S`)
)

// ClassifyLine is the default LineClassifier.
func ClassifyLine(line string) Block {
	if m := dottedHeadingRe.FindStringSubmatch(line); m != nil {
		level := strings.Count(m[1], ".") + 1
		if level > 3 {
			level = 3
		}
		return Block{Kind: BlockHeading, Level: level, Text: line}
	}
	if romanHeadingRe.MatchString(line) || letterHeadingRe.MatchString(line) {
		return Block{Kind: BlockHeading, Level: 1, Text: line}
	}
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
		return Block{Kind: BlockListItem, Text: strings.TrimSpace(line[2:])}
	}
	if numberedItemRe.MatchString(line) {
		return Block{Kind: BlockListItem, Text: line}
	}
	return Block{Kind: BlockParagraph, Text: line}
}

// ClassifyText splits a narrative field into trimmed non-empty lines and
// classifies each one.
func ClassifyText(text string, classify LineClassifier) []Block {
	if classify == nil {
		classify = ClassifyLine
	}
	var blocks []Block
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		blocks = append(blocks, classify(line))
	}
	return blocks
}
