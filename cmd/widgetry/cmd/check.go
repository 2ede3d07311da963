package cmd

import (
	"fmt"
	"strings"

	"github.com/go-drift/widgetry/pkg/manifest"
)

func init() {
	RegisterCommand(&Command{
		Name:  "check",
		Short: "Validate a manifest and print registry order",
		Long: `Parse and compile a page manifest.

Definition errors (unknown kinds, name collisions, reference cycles,
switches over unknown widgets, bad version thresholds) are reported and
the command fails. On success every view is printed with its children in
registry order, included children at their include position.`,
		Usage: "widgetry check <manifest.yaml>",
		Run:   runCheck,
	})
}

func runCheck(args []string) error {
	pos, _, err := parseArgs(args, nil, nil)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return fmt.Errorf("manifest path is required\n\nUsage: widgetry check <manifest.yaml>")
	}
	set, err := compileManifest(pos[0])
	if err != nil {
		return err
	}
	for _, name := range set.Names() {
		t, _ := set.Template(name)
		header := name
		if t.Parametrized() {
			header += "(" + strings.Join(t.Params(), ", ") + ")"
		}
		if root := t.Root(); root != nil {
			header += fmt.Sprintf("  root=%v", root)
		}
		fmt.Fprintln(stdout, header)
		for _, e := range t.Entries() {
			note := ""
			if e.Included() {
				note = "  (included)"
			}
			fmt.Fprintf(stdout, "  %2d. %-16s %s%s\n", e.Index+1, e.Name, e.Decl.Kind(), note)
		}
	}
	return nil
}

func compileManifest(path string) (*manifest.Set, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	return manifest.Compile(m)
}
