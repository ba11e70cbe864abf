// pkg/directive/cgo.go
package directive

import (
	"fmt"
	"io"
	"strings"
	"text/template"
)

var cgoTemplate = template.Must(template.New("cgo").Parse(`// Code generated by cbridge. DO NOT EDIT.

package {{.Package}}

/*
{{- range .CFlags}}
#cgo CFLAGS: {{.}}
{{- end}}
{{- range .LDFlags}}
#cgo LDFLAGS: {{.}}
{{- end}}
*/
import "C"
`))

// CgoFlags returns the CFLAGS and LDFLAGS for a cgo preamble.
// The bridge archive is linked before the libraries it depends on.
func (o *Output) CgoFlags() (cflags, ldflags []string) {
	for _, inc := range o.Values(Include) {
		cflags = append(cflags, "-I"+quote(inc))
	}
	cflags = append(cflags, o.Values(CFlag)...)

	for _, dir := range o.Values(LinkSearch) {
		ldflags = append(ldflags, "-L"+quote(dir))
	}
	for _, lib := range o.Values(BridgeLib) {
		ldflags = append(ldflags, "-l"+lib)
	}
	for _, lib := range o.Values(LinkLib) {
		ldflags = append(ldflags, "-l"+lib)
	}
	ldflags = append(ldflags, o.Values(LDFlag)...)
	return cflags, ldflags
}

// WriteCgo writes a Go source file carrying the flags as #cgo directives
func (o *Output) WriteCgo(w io.Writer, pkg string) error {
	if pkg == "" {
		return fmt.Errorf("cgo package name is required")
	}
	cflags, ldflags := o.CgoFlags()

	// One flag per line keeps paths with spaces intact
	return cgoTemplate.Execute(w, struct {
		Package string
		CFlags  []string
		LDFlags []string
	}{pkg, cflags, ldflags})
}

func quote(path string) string {
	if strings.ContainsAny(path, " \t") {
		return `"` + path + `"`
	}
	return path
}
