// Package layout turns recognition results and format options into an
// ordered sequence of blocks.
//
// For every result the sequence is
//
//	[separator] [header] body spacer
//
// A separator precedes a result iff it is not the first one, and a header
// precedes the body iff headers are shown and the layout is not continuous.
// Renderers consume the blocks through an Encoder and only decide how each
// block kind looks, never whether it appears.
package layout

import (
	"strings"

	"ocrdoc/pkg/models"
)

// Kind identifies a block.
type Kind int

const (
	KindSeparator Kind = iota
	KindHeader
	KindBody
	KindSpacer
)

func (k Kind) String() string {
	switch k {
	case KindSeparator:
		return "separator"
	case KindHeader:
		return "header"
	case KindBody:
		return "body"
	case KindSpacer:
		return "spacer"
	}
	return "unknown"
}

// HeaderStyle is the shape of a header block.
type HeaderStyle int

const (
	// HeaderNumbered renders "[n] name".
	HeaderNumbered HeaderStyle = iota
	// HeaderStandalone renders the name on its own, centered where supported.
	HeaderStandalone
)

// Block is one layout element.
type Block struct {
	Kind      Kind
	Separator SeparatorStyle // KindSeparator only
	Header    HeaderStyle    // KindHeader only
	Index     int            // SequenceIndex of the owning result
	Name      string         // SourceName of the owning result
	Text      string         // KindBody only
	Lines     []string       // KindBody only; never empty
}

// Plan computes the block sequence for results. results is not modified.
func Plan(results []models.OCRResult, opts Options) []Block {
	blocks := make([]Block, 0, len(results)*4)
	for i, r := range results {
		if i > 0 {
			blocks = append(blocks, Block{Kind: KindSeparator, Separator: opts.SeparatorStyle, Index: r.SequenceIndex, Name: r.SourceName})
		}
		if opts.HeadersVisible() {
			style := HeaderStandalone
			if opts.Layout == Numbered {
				style = HeaderNumbered
			}
			blocks = append(blocks, Block{Kind: KindHeader, Header: style, Index: r.SequenceIndex, Name: r.SourceName})
		}
		blocks = append(blocks,
			Block{Kind: KindBody, Index: r.SequenceIndex, Name: r.SourceName, Text: r.Text, Lines: SplitLines(r.Text)},
			Block{Kind: KindSpacer, Index: r.SequenceIndex, Name: r.SourceName},
		)
	}
	return blocks
}

// SplitLines splits text into lines for paragraph-based encoders. Empty
// text yields a single empty line.
func SplitLines(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}

// Encoder receives blocks in order.
type Encoder interface {
	Separator(style SeparatorStyle) error
	Header(style HeaderStyle, index int, name string) error
	Body(text string, lines []string) error
	Spacer() error
}

// Drive feeds blocks to enc, stopping at the first error.
func Drive(blocks []Block, enc Encoder) error {
	for _, b := range blocks {
		var err error
		switch b.Kind {
		case KindSeparator:
			err = enc.Separator(b.Separator)
		case KindHeader:
			err = enc.Header(b.Header, b.Index, b.Name)
		case KindBody:
			err = enc.Body(b.Text, b.Lines)
		case KindSpacer:
			err = enc.Spacer()
		}
		if err != nil {
			return err
		}
	}
	return nil
}
