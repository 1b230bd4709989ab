package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Plausibility band for extracted figures, in millions.
const (
	MinPlausibleValue = 100
	MaxPlausibleValue = 20000
)

// DefaultWindow is the number of characters scanned after a label.
const DefaultWindow = 220

var (
	whitespaceRe = regexp.MustCompile(`\s+`)

	// numberRe matches grouped thousands ("2,456") or plain digits.
	numberRe = regexp.MustCompile(`\b\d{1,3}(?:,\d{3})+\b|\b\d+\b`)
)

// normalise collapses whitespace runs to one space and trims the ends.
func normalise(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// valuesAfterLabel finds label in the normalised text and returns up to
// limit plausible figures from the window that follows it, left to right.
// It returns nil when the label is absent.
func valuesAfterLabel(text string, label *regexp.Regexp, window, limit int) []float64 {
	t := normalise(text)
	loc := label.FindStringIndex(t)
	if loc == nil {
		return nil
	}

	tail := runePrefix(t[loc[1]:], window)
	var vals []float64
	for _, tok := range numberRe.FindAllString(tail, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", ""), 64)
		if err != nil {
			continue
		}
		if v < MinPlausibleValue || v > MaxPlausibleValue {
			continue
		}
		vals = append(vals, v)
		if len(vals) == limit {
			break
		}
	}
	return vals
}

// twoValuesAfterLabel returns the first two plausible figures after label.
func twoValuesAfterLabel(text string, label *regexp.Regexp, window int) (first, second float64, ok bool) {
	vals := valuesAfterLabel(text, label, window, 2)
	if len(vals) < 2 {
		return 0, 0, false
	}
	return vals[0], vals[1], true
}

// oneValueAfterLabel returns the first plausible figure after label.
func oneValueAfterLabel(text string, label *regexp.Regexp, window int) (float64, bool) {
	vals := valuesAfterLabel(text, label, window, 1)
	if len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}

// runePrefix returns at most n characters of s.
func runePrefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
