package layout

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOptions is returned for option values outside their domain.
var ErrInvalidOptions = errors.New("invalid format options")

// Layout controls how results are grouped.
type Layout string

const (
	Continuous Layout = "continuous"
	Separated  Layout = "separated"
	Numbered   Layout = "numbered"
)

// SeparatorStyle is the divider between consecutive results.
type SeparatorStyle string

const (
	SeparatorLine  SeparatorStyle = "line"
	SeparatorSpace SeparatorStyle = "space"
	SeparatorNone  SeparatorStyle = "none"
)

// LineSpacing is the line height class of body text.
type LineSpacing string

const (
	SpacingSingle LineSpacing = "single"
	SpacingNormal LineSpacing = "normal"
	SpacingDouble LineSpacing = "double"
)

// Font size bounds in points.
const (
	MinFontSize = 8
	MaxFontSize = 18
)

// Options are the layout choices shared by every export format.
type Options struct {
	Layout         Layout         `json:"layout"`
	ShowHeaders    bool           `json:"show_headers"`
	SeparatorStyle SeparatorStyle `json:"separator_style"`
	FontSize       int            `json:"font_size"`
	LineSpacing    LineSpacing    `json:"line_spacing"`
}

// Defaults returns continuous layout, headers on, line separators, 12pt, normal spacing.
func Defaults() Options {
	return Options{
		Layout:         Continuous,
		ShowHeaders:    true,
		SeparatorStyle: SeparatorLine,
		FontSize:       12,
		LineSpacing:    SpacingNormal,
	}
}

// Validate reports the first option outside its domain.
func (o Options) Validate() error {
	switch o.Layout {
	case Continuous, Separated, Numbered:
	default:
		return fmt.Errorf("%w: layout must be continuous, separated or numbered, got %q", ErrInvalidOptions, o.Layout)
	}
	switch o.SeparatorStyle {
	case SeparatorLine, SeparatorSpace, SeparatorNone:
	default:
		return fmt.Errorf("%w: separator style must be line, space or none, got %q", ErrInvalidOptions, o.SeparatorStyle)
	}
	switch o.LineSpacing {
	case SpacingSingle, SpacingNormal, SpacingDouble:
	default:
		return fmt.Errorf("%w: line spacing must be single, normal or double, got %q", ErrInvalidOptions, o.LineSpacing)
	}
	if o.FontSize < MinFontSize || o.FontSize > MaxFontSize {
		return fmt.Errorf("%w: font size must be between %d and %d, got %d", ErrInvalidOptions, MinFontSize, MaxFontSize, o.FontSize)
	}
	return nil
}

// HeadersVisible reports whether results get a header block.
func (o Options) HeadersVisible() bool {
	return o.ShowHeaders && o.Layout != Continuous
}

// Multiplier returns the line height factor: 1, 1.4 or 2.
func (s LineSpacing) Multiplier() float64 {
	switch s {
	case SpacingSingle:
		return 1
	case SpacingDouble:
		return 2
	}
	return 1.4
}

// ParseLayout accepts a layout name case-insensitively.
func ParseLayout(s string) (Layout, error) {
	l := Layout(strings.ToLower(strings.TrimSpace(s)))
	switch l {
	case Continuous, Separated, Numbered:
		return l, nil
	}
	return "", fmt.Errorf("%w: unknown layout %q", ErrInvalidOptions, s)
}

// ParseSeparator accepts a separator style name case-insensitively.
func ParseSeparator(s string) (SeparatorStyle, error) {
	st := SeparatorStyle(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case SeparatorLine, SeparatorSpace, SeparatorNone:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown separator style %q", ErrInvalidOptions, s)
}

// ParseLineSpacing accepts a line spacing name case-insensitively.
func ParseLineSpacing(s string) (LineSpacing, error) {
	sp := LineSpacing(strings.ToLower(strings.TrimSpace(s)))
	switch sp {
	case SpacingSingle, SpacingNormal, SpacingDouble:
		return sp, nil
	}
	return "", fmt.Errorf("%w: unknown line spacing %q", ErrInvalidOptions, s)
}
