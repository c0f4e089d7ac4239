// Package language holds the catalogue of recognition languages.
//
// Codes are Tesseract trained-data identifiers ("tur", "chi_sim"). Several
// codes are combined into one model identifier with "+", which is the form
// every recognition engine receives.
package language

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins language codes into a combined model identifier.
const Separator = "+"

// ErrUnknownLanguage is returned for codes that are not in the registry.
var ErrUnknownLanguage = errors.New("unknown recognition language")

// ErrNoLanguages is returned when a selection is empty.
var ErrNoLanguages = errors.New("at least one recognition language is required")

// Language describes one trained recognition model.
type Language struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
	Tag         string `json:"tag"`
	// Hint is the BCP-47 tag passed to cloud engines as a language hint.
	Hint string `json:"hint"`
}

var languages = []Language{
	{Code: "tur", DisplayName: "Turkish", Tag: "🇹🇷", Hint: "tr"},
	{Code: "eng", DisplayName: "English", Tag: "🇬🇧", Hint: "en"},
	{Code: "deu", DisplayName: "German", Tag: "🇩🇪", Hint: "de"},
	{Code: "fra", DisplayName: "French", Tag: "🇫🇷", Hint: "fr"},
	{Code: "ita", DisplayName: "Italian", Tag: "🇮🇹", Hint: "it"},
	{Code: "spa", DisplayName: "Spanish", Tag: "🇪🇸", Hint: "es"},
	{Code: "por", DisplayName: "Portuguese", Tag: "🇵🇹", Hint: "pt"},
	{Code: "rus", DisplayName: "Russian", Tag: "🇷🇺", Hint: "ru"},
	{Code: "ara", DisplayName: "Arabic", Tag: "🇸🇦", Hint: "ar"},
	{Code: "jpn", DisplayName: "Japanese", Tag: "🇯🇵", Hint: "ja"},
	{Code: "kor", DisplayName: "Korean", Tag: "🇰🇷", Hint: "ko"},
	{Code: "chi_sim", DisplayName: "Chinese (Simplified)", Tag: "🇨🇳", Hint: "zh"},
	{Code: "nld", DisplayName: "Dutch", Tag: "🇳🇱", Hint: "nl"},
	{Code: "pol", DisplayName: "Polish", Tag: "🇵🇱", Hint: "pl"},
	{Code: "ukr", DisplayName: "Ukrainian", Tag: "🇺🇦", Hint: "uk"},
	{Code: "ell", DisplayName: "Greek", Tag: "🇬🇷", Hint: "el"},
}

var byCode = func() map[string]Language {
	m := make(map[string]Language, len(languages))
	for _, l := range languages {
		m[l.Code] = l
	}
	return m
}()

// DefaultCodes is the selection used when the caller does not choose.
var DefaultCodes = []string{"tur", "eng"}

// All returns a copy of the catalogue in display order.
func All() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// Lookup returns the language registered under code.
func Lookup(code string) (Language, bool) {
	l, ok := byCode[code]
	return l, ok
}

// Normalize validates a selection, trims blanks and drops duplicates while
// keeping the first occurrence order.
func Normalize(codes []string) ([]string, error) {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		if _, ok := byCode[c]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, c)
		}
		seen[c] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, ErrNoLanguages
	}
	return out, nil
}

// ParseList splits a comma or plus separated list ("tur,eng" or "tur+eng").
func ParseList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '+' || r == ' '
	})
}

// Combine validates codes and joins them into one model identifier.
func Combine(codes []string) (string, error) {
	norm, err := Normalize(codes)
	if err != nil {
		return "", err
	}
	return strings.Join(norm, Separator), nil
}

// Split turns a combined model identifier back into its codes.
func Split(model string) []string {
	if model == "" {
		return nil
	}
	return strings.Split(model, Separator)
}

// Hints maps a combined model identifier to BCP-47 hints, skipping codes
// without one.
func Hints(model string) []string {
	var hints []string
	for _, c := range Split(model) {
		if l, ok := byCode[c]; ok && l.Hint != "" {
			hints = append(hints, l.Hint)
		}
	}
	return hints
}

// DisplayNames returns human-readable names for a combined model identifier.
func DisplayNames(model string) []string {
	var names []string
	for _, c := range Split(model) {
		if l, ok := byCode[c]; ok {
			names = append(names, l.DisplayName)
		} else {
			names = append(names, c)
		}
	}
	return names
}
