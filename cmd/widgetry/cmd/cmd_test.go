package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/go-drift/widgetry/pkg/browser"
	"github.com/go-drift/widgetry/pkg/config"
	widgettest "github.com/go-drift/widgetry/pkg/testing"
)

const profileManifest = `
views:
  - name: Address
    root: "#address"
    children:
      - {name: city, kind: text_input, args: {locator: "#city"}}
  - name: Profile
    root: "#profile"
    children:
      - {name: name, kind: text_input, args: {locator: "#name"}}
      - include: Address
      - {name: agree, kind: checkbox, args: {locator: "#agree"}}
`

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevErr := stdout, stderr
	stdout, stderr = &buf, &buf
	t.Cleanup(func() { stdout, stderr = prevOut, prevErr })
	return &buf
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// usePage routes live commands to an in-memory page.
func usePage(t *testing.T, page *widgettest.Page) {
	t.Helper()
	t.Setenv("WIDGETRY_LOG__LEVEL", "error")
	prevBrowser, prevLogger := openBrowser, zap.L()
	openBrowser = func(context.Context, *config.Settings, string, *zap.Logger) (browser.Browser, func(), error) {
		return page, func() {}, nil
	}
	t.Cleanup(func() {
		openBrowser = prevBrowser
		zap.ReplaceGlobals(prevLogger)
	})
}

func profilePage() *widgettest.Page {
	return widgettest.NewPage(
		widgettest.El("profile").Append(
			widgettest.El("name").Tag("input").WithValue("Ann"),
			widgettest.El("address").Append(
				widgettest.El("city").Tag("input").WithValue("Oslo"),
			),
			widgettest.El("agree").Tag("input").Checkable(),
		),
	)
}

func TestCheckPrintsRegistryOrder(t *testing.T) {
	out := captureOutput(t)
	path := writeTemp(t, "pages.yaml", profileManifest)

	require.NoError(t, run([]string{"check", path}))
	assert.Contains(t, out.String(), "Profile  root=#profile\n")
	assert.Contains(t, out.String(), "   1. name             widget\n")
	assert.Contains(t, out.String(), "   2. city             widget  (included)\n")
	assert.Contains(t, out.String(), "   3. agree            widget\n")
}

func TestCheckReportsDefinitionErrors(t *testing.T) {
	captureOutput(t)
	path := writeTemp(t, "pages.yaml", "views:\n  - name: A\n    children:\n      - {name: x, kind: marquee}\n")

	err := run([]string{"check", path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marquee")

	assert.Error(t, run([]string{"check"}))
}

func TestReadPrintsValuesInOrder(t *testing.T) {
	out := captureOutput(t)
	usePage(t, profilePage())
	path := writeTemp(t, "pages.yaml", profileManifest)

	require.NoError(t, run([]string{"read", path, "Profile", "--url", "http://example.test"}))
	assert.Equal(t, "name: Ann\ncity: Oslo\nagree: false\n", out.String())

	out.Reset()
	require.NoError(t, run([]string{"read", path, "Profile", "--json"}))
	assert.JSONEq(t, `{"name":"Ann","city":"Oslo","agree":false}`, out.String())

	assert.Error(t, run([]string{"read", path, "Nope"}))
}

func TestFillPrintsOutcome(t *testing.T) {
	out := captureOutput(t)
	page := profilePage()
	usePage(t, page)
	path := writeTemp(t, "pages.yaml", profileManifest)
	values := writeTemp(t, "values.yaml", "name: Eve\nagree: true\nextra: 1\n")

	require.NoError(t, run([]string{"fill", path, "Profile", "--values", values}))
	assert.Contains(t, out.String(), "changed: true\n")
	assert.Contains(t, out.String(), "- extra")
	assert.Equal(t, "Eve", page.Find("#name").Value)
	assert.True(t, page.Find("#agree").Selected)

	assert.Error(t, run([]string{"fill", path, "Profile"}))
}

func TestVersionAndUnknownCommand(t *testing.T) {
	out := captureOutput(t)

	require.NoError(t, run([]string{"--version"}))
	assert.Contains(t, out.String(), "widgetry version "+Version)

	assert.Error(t, run([]string{"frobnicate"}))

	out.Reset()
	require.NoError(t, run([]string{"read", "--help"}))
	assert.Contains(t, out.String(), "widgetry read <manifest.yaml>")
}

func TestParseArgs(t *testing.T) {
	pos, f, err := parseArgs([]string{"a.yaml", "--url=http://x", "View", "--headful", "--config", "c.yaml"},
		[]string{"url", "config"}, []string{"headful"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.yaml", "View"}, pos)
	assert.Equal(t, flags{"url": "http://x", "headful": "true", "config": "c.yaml"}, f)

	_, _, err = parseArgs([]string{"--url"}, []string{"url"}, nil)
	assert.Error(t, err)
	_, _, err = parseArgs([]string{"--headful=yes"}, nil, []string{"headful"})
	assert.Error(t, err)
	_, _, err = parseArgs([]string{"--bogus"}, nil, nil)
	assert.Error(t, err)
}
