package runner

import (
	"strings"

	"github.com/spf13/cast"
)

// NoTextualResponse is returned by Flatten when nothing textual could
// be pulled out of a model answer.
const NoTextualResponse = "No textual response could be extracted."

// Kind tells which shape a model answer took.
type Kind int

// kinds
const (
	KindText Kind = iota
	KindParts
	KindOther
)

// Part is one element of a segmented answer. Plain marks a bare string,
// the other fields describe a typed block where Value wins over Text.
type Part struct {
	Plain *string

	Type  string
	Text  string
	Value *string
}

// Output is a model answer before normalization: a plain string, a list
// of parts, or something else entirely.
type Output struct {
	Kind  Kind
	Text  string
	Parts []Part
	Other any
}

func TextOutput(s string) Output {
	return Output{Kind: KindText, Text: s}
}

func PartsOutput(parts ...Part) Output {
	return Output{Kind: KindParts, Parts: parts}
}

func OtherOutput(v any) Output {
	return Output{Kind: KindOther, Other: v}
}

func PlainPart(s string) Part {
	return Part{Plain: &s}
}

func BlockPart(text string) Part {
	return Part{Type: "text", Text: text}
}

func ValuePart(v string) Part {
	return Part{Type: "text", Value: &v}
}

// Flatten reduces any answer shape to a single string. Plain text
// passes through untouched, so flattening twice changes nothing.
func Flatten(o Output) string {
	switch o.Kind {
	case KindText:
		return o.Text
	case KindParts:
		var picked []string
		for _, p := range o.Parts {
			// bare strings are kept verbatim, only typed blocks get
			// the blank filter
			if p.Plain != nil {
				picked = append(picked, *p.Plain)
				continue
			}
			if p.Type != "text" {
				continue
			}
			s := p.Text
			if p.Value != nil {
				s = *p.Value
			}
			if len(strings.TrimSpace(s)) > 0 {
				picked = append(picked, s)
			}
		}
		out := strings.TrimSpace(strings.Join(picked, " "))
		if len(out) == 0 {
			return NoTextualResponse
		}
		return out
	default:
		out := cast.ToString(o.Other)
		if len(out) == 0 {
			return NoTextualResponse
		}
		return out
	}
}
