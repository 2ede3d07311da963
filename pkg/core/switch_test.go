package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/widgetry/pkg/core"
	"github.com/go-drift/widgetry/pkg/errors"
	widgettest "github.com/go-drift/widgetry/pkg/testing"
	"github.com/go-drift/widgetry/pkg/widgets"
)

func switchForm(withDefault bool) *core.Template {
	opts := []core.CaseOption{}
	if withDefault {
		opts = append(opts, core.AsDefault())
	}
	sw := core.Switch("kind").
		Case("x", labelOf(core.Args{"text": "P1"})).
		Case("y", labelOf(core.Args{"text": "P2"}), opts...).
		MustBuild()
	return core.NewView("Form").
		Add("kind", widgets.TextInputOf("#kind")).
		Add("body", sw).
		MustBuild()
}

func kindPage(value string) *widgettest.Page {
	return widgettest.NewPage(widgettest.El("kind").Tag("input").WithValue(value))
}

func readBody(t *testing.T, v *core.View) (any, error) {
	t.Helper()
	ctx := context.Background()
	w, err := v.Get(ctx, "body")
	if err != nil {
		return nil, err
	}
	return w.(core.Reader).Read(ctx)
}

func TestSwitchResolution(t *testing.T) {
	for _, tc := range []struct {
		value       string
		withDefault bool
		want        string
		wantErr     error
	}{
		{value: "x", withDefault: true, want: "P1"},
		{value: "y", withDefault: true, want: "P2"},
		{value: "z", withDefault: true, want: "P2"},
		{value: "x", withDefault: false, want: "P1"},
		{value: "z", withDefault: false, wantErr: errors.ErrNoMatchingVariant},
	} {
		view := widgettest.NewPageTester(t, kindPage(tc.value)).View(switchForm(tc.withDefault))
		got, err := readBody(t, view)
		if tc.wantErr != nil {
			assert.ErrorIs(t, err, tc.wantErr, "value %q", tc.value)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "value %q default=%v", tc.value, tc.withDefault)
	}
}

func TestSwitchFirstMatchWins(t *testing.T) {
	sw := core.Switch("kind").
		When(func(v ...any) bool { return v[0] != "" }, []string{"kind"}, labelOf(core.Args{"text": "any"})).
		Case("x", labelOf(core.Args{"text": "exact"})).
		MustBuild()
	tpl := core.NewView("Form").
		Add("kind", widgets.TextInputOf("#kind")).
		Add("body", sw).
		MustBuild()

	got, err := readBody(t, widgettest.NewPageTester(t, kindPage("x")).View(tpl))
	require.NoError(t, err)
	assert.Equal(t, "any", got)
}

func TestSwitchReevaluatesOnEveryAccess(t *testing.T) {
	ctx := context.Background()
	page := kindPage("x")
	view := widgettest.NewPageTester(t, page).View(switchForm(true))

	first, err := view.Get(ctx, "body")
	require.NoError(t, err)
	again, err := view.Get(ctx, "body")
	require.NoError(t, err)
	assert.Same(t, first, again, "same candidate keeps its instance")

	page.Find("#kind").Value = "y"
	other, err := view.Get(ctx, "body")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	got, err := other.(core.Reader).Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "P2", got)

	page.Find("#kind").Value = "x"
	back, err := view.Get(ctx, "body")
	require.NoError(t, err)
	assert.Same(t, first, back)
}

func TestSwitchOverSeveralReferences(t *testing.T) {
	both := func(v ...any) bool { return v[0] == "on" && v[1] == "on" }
	sw := core.Switch("").
		When(both, []string{"a", "b"}, labelOf(core.Args{"text": "both"})).
		Default(labelOf(core.Args{"text": "not both"})).
		MustBuild()
	tpl := core.NewView("Pair").
		Add("a", widgets.TextInputOf("#a")).
		Add("b", widgets.TextInputOf("#b")).
		Add("state", sw).
		MustBuild()
	page := widgettest.NewPage(
		widgettest.El("a").Tag("input").WithValue("on"),
		widgettest.El("b").Tag("input").WithValue("off"),
	)
	tester := widgettest.NewPageTester(t, page)
	view := tester.View(tpl)

	assert.Equal(t, "not both", tester.Read(view)["state"])
	page.Find("#b").Value = "on"
	assert.Equal(t, "both", tester.Read(view)["state"])
}

func TestSwitchBetweenViews(t *testing.T) {
	ctx := context.Background()
	card := core.NewView("Card", core.WithRoot("#card")).Add("title", widgets.TextOf("#title")).MustBuild()
	table := core.NewView("Table", core.WithRoot("#table")).Add("title", widgets.TextOf("#title")).MustBuild()
	tpl := core.NewView("Listing").
		Add("mode", widgets.SelectOf("#mode")).
		Add("content", core.Switch("mode").
			Case("Cards", core.Nested(card)).
			Case("Table", core.Nested(table)).
			MustBuild()).
		MustBuild()
	page := widgettest.NewPage(
		widgettest.El("mode").Tag("select").Append(
			widgettest.El("").Tag("option").WithText("Cards").Checked(true),
			widgettest.El("").Tag("option").WithText("Table"),
		),
		widgettest.El("card").Append(widgettest.El("title").WithText("card view")),
		widgettest.El("table").Append(widgettest.El("title").WithText("table view")),
	)
	obs := &widgettest.RecordingObserver{}
	view := widgettest.NewPageTester(t, page, core.WithObserver(obs)).View(tpl)

	content, err := view.View(ctx, "content")
	require.NoError(t, err)
	assert.Equal(t, "Card", content.Template().Name())

	_, err = view.Fill(ctx, map[string]any{"mode": "Table"})
	require.NoError(t, err)
	content, err = view.View(ctx, "content")
	require.NoError(t, err)
	assert.Equal(t, "Table", content.Template().Name())

	resolved := obs.Events("resolved")
	require.Len(t, resolved, 2)
	assert.Equal(t, core.KindSwitch, resolved[0].Kind)
	assert.Equal(t, "content", resolved[0].Name)
}

func TestSwitchDefinitionErrors(t *testing.T) {
	_, err := core.Switch("kind").
		Case("a", labelOf(nil), core.AsDefault()).
		Default(labelOf(nil)).
		Build()
	assert.ErrorIs(t, err, errors.ErrDefinition, "two defaults")

	_, err = core.Switch("").Case("a", labelOf(nil)).Build()
	assert.ErrorIs(t, err, errors.ErrDefinition, "equality case without reference")

	_, err = core.Switch("kind").Build()
	assert.ErrorIs(t, err, errors.ErrDefinition, "no candidates")

	_, err = core.Switch("kind").Case("a", nil).Build()
	assert.ErrorIs(t, err, errors.ErrDefinition, "nil candidate")
}
