package cmd

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

func init() {
	RegisterCommand(&Command{
		Name:  "fill",
		Short: "Fill a view on a live page from a values file",
		Long: `Open a browser on --url, bind the named view of the manifest and fill
it with the mapping in --values (YAML). Children are filled in registry
order. The outcome lists whether anything changed, keys that matched no
child and children that cannot be filled.

Flags:
  --values FILE      YAML mapping of child names to values
  --url URL          Page to open
  --config FILE      Settings file (default: ./widgetry.yaml when present)
  --headful          Show the browser window`,
		Usage: "widgetry fill <manifest.yaml> <view> --values FILE --url URL [--config FILE] [--headful]",
		Run:   runFill,
	})
}

type fillResult struct {
	Changed bool     `yaml:"changed"`
	Ignored []string `yaml:"ignored,omitempty"`
	Skipped []string `yaml:"skipped,omitempty"`
}

func runFill(args []string) error {
	pos, f, err := parseArgs(args, append([]string{"values"}, liveFlags...), []string{"headful"})
	if err != nil {
		return err
	}
	if len(pos) != 2 || !f.has("values") {
		return fmt.Errorf("manifest, view and --values are required\n\nUsage: widgetry fill <manifest.yaml> <view> --values FILE --url URL")
	}
	tgt, err := loadTarget(pos[0], pos[1])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(f["values"])
	if err != nil {
		return fmt.Errorf("read values: %w", err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parse values %s: %w", f["values"], err)
	}

	ctx := context.Background()
	env, err := setup(ctx, f)
	if err != nil {
		return err
	}
	defer env.Close()

	out, err := tgt.fill(ctx, env.session, values)
	if err != nil {
		return err
	}
	return printValues(fillResult{Changed: out.Changed, Ignored: out.Ignored, Skipped: out.Skipped}, false)
}
