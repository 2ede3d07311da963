package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/go-drift/widgetry/pkg/core"
)

var liveFlags = []string{"url", "config"}

func init() {
	RegisterCommand(&Command{
		Name:  "read",
		Short: "Read a view from a live page",
		Long: `Open a browser on --url, bind the named view of the manifest and
print its values in registry order.

A parametrized view is read once per parameter set its manifest
declares, keyed by the parameter values.

Flags:
  --url URL          Page to open
  --config FILE      Settings file (default: ./widgetry.yaml when present)
  --headful          Show the browser window
  --json             Print JSON instead of YAML`,
		Usage: "widgetry read <manifest.yaml> <view> --url URL [--config FILE] [--headful] [--json]",
		Run:   runRead,
	})
}

// target is a compiled template ready to bind.
type target struct {
	tpl *core.Template
}

func loadTarget(manifestPath, view string) (*target, error) {
	set, err := compileManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	t, ok := set.Template(view)
	if !ok {
		return nil, fmt.Errorf("view %q not in %s (have %v)", view, manifestPath, set.Names())
	}
	return &target{tpl: t}, nil
}

func (t *target) read(ctx context.Context, s *core.Session) (any, error) {
	if t.tpl.Parametrized() {
		return s.Accessor(t.tpl).Read(ctx)
	}
	v, err := s.View(t.tpl)
	if err != nil {
		return nil, err
	}
	return v.ReadValues(ctx)
}

func (t *target) fill(ctx context.Context, s *core.Session, values map[string]any) (core.FillOutcome, error) {
	if t.tpl.Parametrized() {
		return s.Accessor(t.tpl).FillValues(ctx, values)
	}
	v, err := s.View(t.tpl)
	if err != nil {
		return core.FillOutcome{}, err
	}
	return v.FillValues(ctx, values)
}

func runRead(args []string) error {
	pos, f, err := parseArgs(args, liveFlags, []string{"headful", "json"})
	if err != nil {
		return err
	}
	if len(pos) != 2 {
		return fmt.Errorf("manifest and view are required\n\nUsage: widgetry read <manifest.yaml> <view> --url URL")
	}
	tgt, err := loadTarget(pos[0], pos[1])
	if err != nil {
		return err
	}

	ctx := context.Background()
	env, err := setup(ctx, f)
	if err != nil {
		return err
	}
	defer env.Close()

	values, err := tgt.read(ctx, env.session)
	if err != nil {
		return err
	}
	return printValues(values, f.has("json"))
}

func printValues(v any, asJSON bool) error {
	if asJSON {
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, string(out))
		return err
	}
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = stdout.Write(out)
	return err
}
