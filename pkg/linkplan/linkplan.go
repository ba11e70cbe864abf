// Package linkplan orders the static archives of a library distribution for linking.
//
// Dependencies are discovered by file name alone: every lib<name>.a next to the
// primary archive is treated as one of its dependencies. There is no dependency
// graph. The primary library is always linked first because static linkers only
// resolve symbols from archives listed after the one that references them.
// The relative order of the dependents is the directory's enumeration order.
package linkplan

import (
	"fmt"
	"strings"

	"github.com/arc-language/cbridge/internal/log"
	"github.com/arc-language/cbridge/pkg/archive"
	"go.uber.org/zap"
)

// Directive asks the linker to link one library
type Directive struct {
	Name    string
	Primary bool
}

// Plan is an ordered sequence of link directives, primary first
type Plan []Directive

// PlanLinks emits the primary library followed by every other archive in libDir
func PlanLinks(libDir, primaryName string) (Plan, error) {
	plan := Plan{{Name: primaryName, Primary: true}}

	candidates, err := archive.Scan(libDir)
	if err != nil {
		return nil, err
	}

	for _, c := range candidates {
		if c.Name == primaryName {
			continue
		}
		plan = append(plan, Directive{Name: c.Name})
	}

	log.L().Debug("planned links",
		zap.String("libDir", libDir),
		zap.Strings("libs", plan.Names()))

	return plan, nil
}

// Primary returns the plan for a library with no discovered dependents
func Primary(name string) Plan {
	return Plan{{Name: name, Primary: true}}
}

// Names returns the library names in link order
func (p Plan) Names() []string {
	names := make([]string, 0, len(p))
	for _, d := range p {
		names = append(names, d.Name)
	}
	return names
}

// LinkFlags returns -l flags in link order
func (p Plan) LinkFlags() []string {
	flags := make([]string, 0, len(p))
	for _, d := range p {
		flags = append(flags, "-l"+d.Name)
	}
	return flags
}

// Validate checks the primary directive is first, unique and that no name repeats
func (p Plan) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("link plan is empty")
	}
	if !p[0].Primary {
		return fmt.Errorf("link plan must start with the primary library, got %q", p[0].Name)
	}

	seen := make(map[string]bool, len(p))
	for i, d := range p {
		if i > 0 && d.Primary {
			return fmt.Errorf("primary library %q listed more than once", d.Name)
		}
		if seen[d.Name] {
			return fmt.Errorf("library %q listed more than once", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}

func (p Plan) String() string {
	return strings.Join(p.Names(), " ")
}
