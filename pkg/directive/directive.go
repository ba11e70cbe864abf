// Package directive renders the outputs the surrounding build consumes:
// a line-oriented directive stream and a generated cgo file.
package directive

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Kind of a build directive
type Kind string

const (
	BridgeLib      Kind = "bridge-lib"
	LinkLib        Kind = "link-lib"
	LinkSearch     Kind = "link-search"
	Include        Kind = "include"
	CFlag          Kind = "cflag"
	LDFlag         Kind = "ldflag"
	RerunIfChanged Kind = "rerun-if-changed"
)

// Directive is one build output line
type Directive struct {
	Kind  Kind
	Value string
}

func (d Directive) String() string {
	return fmt.Sprintf("cbridge:%s=%s", d.Kind, d.Value)
}

// Output accumulates directives in emission order
type Output struct {
	directives []Directive
}

// Add appends directives of one kind
func (o *Output) Add(kind Kind, values ...string) {
	for _, v := range values {
		o.directives = append(o.directives, Directive{Kind: kind, Value: v})
	}
}

// Directives returns the accumulated directives
func (o *Output) Directives() []Directive {
	return append([]Directive(nil), o.directives...)
}

// Values returns the values of one kind in order
func (o *Output) Values(kind Kind) []string {
	var out []string
	for _, d := range o.directives {
		if d.Kind == kind {
			out = append(out, d.Value)
		}
	}
	return out
}

// Lines returns the rendered directive stream
func (o *Output) Lines() []string {
	lines := make([]string, 0, len(o.directives))
	for _, d := range o.directives {
		lines = append(lines, d.String())
	}
	return lines
}

// WriteText writes one directive per line
func (o *Output) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, line := range o.Lines() {
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ParseLine parses a rendered directive
func ParseLine(line string) (Directive, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "cbridge:")
	if !ok {
		return Directive{}, fmt.Errorf("not a directive: %q", line)
	}
	kind, value, ok := strings.Cut(rest, "=")
	if !ok || kind == "" {
		return Directive{}, fmt.Errorf("malformed directive: %q", line)
	}
	return Directive{Kind: Kind(kind), Value: value}, nil
}

// Parse rebuilds an Output from rendered lines
func Parse(lines []string) (*Output, error) {
	var out Output
	for _, line := range lines {
		d, err := ParseLine(line)
		if err != nil {
			return nil, err
		}
		out.Add(d.Kind, d.Value)
	}
	return &out, nil
}
