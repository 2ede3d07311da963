package manifest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/widgetry/pkg/core"
	"github.com/go-drift/widgetry/pkg/errors"
	"github.com/go-drift/widgetry/pkg/manifest"
	widgettest "github.com/go-drift/widgetry/pkg/testing"
)

const loginManifest = `
views:
  - name: Credentials
    root: "#credentials"
    children:
      - name: username
        kind: text_input
        args: {locator: "#username"}
      - name: password
        kind: text_input
        args: {locator: "#password"}
  - name: Login
    root: "#login"
    strategy: wait
    wait_timeout: 2s
    children:
      - name: title
        kind: text
        args: {locator: "#title"}
      - include: Credentials
      - name: mode
        kind: text_input
        args: {locator: "#mode"}
      - name: hint
        switch:
          reference: mode
          cases:
            - value: sso
              kind: text
              args: {locator: "#sso-hint"}
            - default: true
              kind: text
              args: {locator: "#pw-hint"}
      - name: submit
        versions:
          - since: lowest
            kind: text
            args: {locator: "#go"}
          - since: "2.0.0"
            kind: text
            args:
              locator:
                versions:
                  - since: "2.0.0"
                    value: "#submit"
  - name: Rows
    root: "#rows"
    children:
      - name: rows
        view: Row
  - name: Row
    params: [id]
    sets: [[a], [b]]
    root: "#row-{id}"
    children:
      - name: label
        kind: text
        args: {locator: span}
`

func loginPage(mode string) *widgettest.Page {
	el := widgettest.El
	return widgettest.NewPage(
		el("login").Append(
			el("title").WithText("Sign in"),
			el("credentials").Append(
				el("username").Tag("input"),
				el("password").Tag("input"),
			),
			el("mode").Tag("input").WithValue(mode),
			el("sso-hint").WithText("Use SSO"),
			el("pw-hint").WithText("Use password"),
			el("go").WithText("Go"),
			el("submit").WithText("Submit"),
		),
		el("rows").Append(
			el("row-a").Append(el("la").Tag("span").WithText("Alpha")),
			el("row-b").Append(el("lb").Tag("span").WithText("Beta")),
		),
	)
}

func compile(t *testing.T, src string, opts ...manifest.Option) *manifest.Set {
	t.Helper()
	m, err := manifest.Parse([]byte(src))
	require.NoError(t, err)
	set, err := manifest.Compile(m, opts...)
	require.NoError(t, err)
	return set
}

func TestCompileKeepsOrder(t *testing.T) {
	set := compile(t, loginManifest)

	assert.Equal(t, []string{"Credentials", "Login", "Rows", "Row"}, set.Names())
	login, ok := set.Template("Login")
	require.True(t, ok)
	assert.Equal(t, []string{"title", "username", "password", "mode", "hint", "submit"}, login.Names())
	row, _ := set.Template("Row")
	assert.True(t, row.Parametrized())
	assert.True(t, row.Enumerable())
}

func TestCompiledViewReads(t *testing.T) {
	set := compile(t, loginManifest)
	login, _ := set.Template("Login")

	tester := widgettest.NewPageTester(t, loginPage("sso"))
	assert.Equal(t, map[string]any{
		"title":    "Sign in",
		"username": "",
		"password": "",
		"mode":     "sso",
		"hint":     "Use SSO",
		"submit":   "Go",
	}, tester.Read(tester.View(login)))
	assert.Equal(t, core.WaitStrategy{Timeout: 2 * time.Second}, tester.View(login).FillStrategy())

	page := loginPage("password")
	page.SetVersion("2.3.0")
	tester = widgettest.NewPageTester(t, page)
	got := tester.Read(tester.View(login))
	assert.Equal(t, "Use password", got["hint"])
	assert.Equal(t, "Submit", got["submit"])
}

func TestCompiledParametrizedView(t *testing.T) {
	set := compile(t, loginManifest)
	rows, _ := set.Template("Rows")
	tester := widgettest.NewPageTester(t, loginPage(""))

	assert.Equal(t, map[string]any{
		"rows": map[string]any{
			"a": map[string]any{"label": "Alpha"},
			"b": map[string]any{"label": "Beta"},
		},
	}, tester.Read(tester.View(rows)))
}

func TestWithProviderReplacesSets(t *testing.T) {
	set := compile(t, loginManifest, manifest.WithProvider("Row",
		func(context.Context, core.Node) ([][]any, error) { return [][]any{{"b"}}, nil }))
	rows, _ := set.Template("Rows")
	tester := widgettest.NewPageTester(t, loginPage(""))

	assert.Equal(t, map[string]any{
		"rows": map[string]any{"b": map[string]any{"label": "Beta"}},
	}, tester.Read(tester.View(rows)))
}

func TestWithKinds(t *testing.T) {
	const src = `
views:
  - name: Page
    children:
      - name: answer
        kind: constant
`
	constant := func(base core.WidgetBase, args core.Args) (core.Widget, error) {
		return &constantWidget{WidgetBase: base}, nil
	}
	_, err := manifest.Compile(mustParse(t, src))
	assert.ErrorIs(t, err, errors.ErrDefinition)

	set := compile(t, src, manifest.WithKinds(map[string]core.Constructor{"constant": constant}))
	page, _ := set.Template("Page")
	tester := widgettest.NewPageTester(t, widgettest.NewPage())
	assert.Equal(t, map[string]any{"answer": 42}, tester.Read(tester.View(page)))
}

type constantWidget struct {
	core.WidgetBase
}

func (w *constantWidget) Read(context.Context) (any, error) { return 42, nil }

func mustParse(t *testing.T, src string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(src))
	require.NoError(t, err)
	return m
}

func TestCompileErrors(t *testing.T) {
	for name, tc := range map[string]struct {
		src  string
		want error
	}{
		"cycle": {
			src: `
views:
  - name: A
    children:
      - {name: b, view: B}
  - name: B
    children:
      - include: A
`,
			want: errors.ErrDefinition,
		},
		"unknown view": {
			src: `
views:
  - name: A
    children:
      - {name: b, view: Missing}
`,
			want: errors.ErrNotFound,
		},
		"duplicate view": {
			src: `
views:
  - name: A
  - name: A
`,
			want: errors.ErrNameCollision,
		},
		"include collision": {
			src: `
views:
  - name: A
    children:
      - {name: x, kind: text, args: {locator: "#x"}}
  - name: B
    children:
      - {name: x, kind: text, args: {locator: "#y"}}
      - include: A
`,
			want: errors.ErrNameCollision,
		},
		"two forms": {
			src: `
views:
  - name: A
    children:
      - name: x
        kind: text
        versions:
          - {since: lowest, kind: text}
`,
			want: errors.ErrDefinition,
		},
		"switch unknown reference": {
			src: `
views:
  - name: A
    children:
      - {name: x, kind: text, args: {locator: "#x"}}
      - name: y
        switch:
          reference: nope
          cases:
            - {value: 1, kind: text, args: {locator: "#y"}}
`,
			want: errors.ErrDefinition,
		},
		"set arity": {
			src: `
views:
  - name: A
    params: [a, b]
    sets: [[1]]
`,
			want: errors.ErrInvalidArguments,
		},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := manifest.Compile(mustParse(t, tc.src))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParseRejectsInvalidManifests(t *testing.T) {
	for name, src := range map[string]string{
		"unknown field":    "views:\n  - name: A\n    colour: red\n",
		"no views":         "views: []\n",
		"missing name":     "views:\n  - root: '#x'\n",
		"bad strategy":     "views:\n  - name: A\n    strategy: eager\n",
		"unnamed child":    "views:\n  - name: A\n    children:\n      - kind: text\n",
		"switch sans case": "views:\n  - name: A\n    children:\n      - name: s\n        switch: {reference: x}\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := manifest.Parse([]byte(src))
			assert.ErrorIs(t, err, errors.ErrDefinition)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(loginManifest), 0o644))

	m, err := manifest.Load(path)
	require.NoError(t, err)
	assert.Len(t, m.Views, 4)

	_, err = manifest.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
