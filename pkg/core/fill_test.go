package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/widgetry/pkg/core"
	"github.com/go-drift/widgetry/pkg/errors"
	widgettest "github.com/go-drift/widgetry/pkg/testing"
	"github.com/go-drift/widgetry/pkg/widgets"
)

func TestDefaultStrategyDispatch(t *testing.T) {
	for _, changed := range []bool{true, false} {
		rec := &recorder{}
		tpl := core.NewView("Form").
			Add("c1", rec.leaf(changed)).
			Add("c2", rec.leaf(true)).
			Add("c3", rec.leaf(true)).
			MustBuild()
		view := widgettest.NewPageTester(t, widgettest.NewPage()).View(tpl)

		out, err := view.FillValues(context.Background(), map[string]any{"c1": "a", "c3": nil, "extra": "z"})
		require.NoError(t, err)
		assert.Equal(t, []string{"c1=a"}, rec.calls)
		assert.Equal(t, []string{"extra"}, out.Ignored)
		assert.Empty(t, out.Skipped)
		assert.Equal(t, changed, out.Changed)
	}
}

func TestTypedNilValuesAreDropped(t *testing.T) {
	rec := &recorder{}
	tpl := core.NewView("Form").
		Add("c1", rec.leaf(true)).
		Add("c2", rec.leaf(true)).
		Add("c3", rec.leaf(true)).
		MustBuild()
	view := widgettest.NewPageTester(t, widgettest.NewPage()).View(tpl)

	var name *string
	var extra map[string]any
	out, err := view.FillValues(context.Background(), map[string]any{
		"c1": name,
		"c2": extra,
		"c3": []string(nil),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c3=[]"}, rec.calls, "nil slices are still values")
	assert.True(t, out.Changed)
}

func TestFillFollowsDeclarationOrder(t *testing.T) {
	rec := &recorder{}
	tpl := core.NewView("Form").
		Add("b", rec.leaf(false)).
		Add("a", rec.leaf(true)).
		Add("c", rec.leaf(false)).
		MustBuild()
	view := widgettest.NewPageTester(t, widgettest.NewPage()).View(tpl)

	changed, err := view.Fill(context.Background(), map[string]any{"c": 3, "a": 1, "b": 2})
	require.NoError(t, err)
	assert.True(t, changed, "changed is OR-ed over children")
	assert.Equal(t, []string{"b=2", "a=1", "c=3"}, rec.calls)
}

func TestFillIsIdempotent(t *testing.T) {
	ctx := context.Background()
	view := widgettest.NewPageTester(t, profilePage()).View(profile)
	values := map[string]any{
		"name":    "Eve",
		"address": map[string]any{"city": "Rome"},
	}

	changed, err := view.Fill(ctx, values)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = view.Fill(ctx, values)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestNestedOutcomeIsPrefixed(t *testing.T) {
	view := widgettest.NewPageTester(t, profilePage()).View(profile)

	out, err := view.FillValues(context.Background(), map[string]any{
		"address": map[string]any{"zip": "0150", "city": "Oslo"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"address.zip"}, out.Ignored)
	assert.False(t, out.Changed)
}

func TestFillRejectsNonMapping(t *testing.T) {
	view := widgettest.NewPageTester(t, profilePage()).View(profile)

	_, err := view.Fill(context.Background(), "Eve")
	assert.ErrorIs(t, err, errors.ErrInvalidArguments)

	values := core.NewValues()
	values.Set("name", "Eve")
	changed, err := view.Fill(context.Background(), values)
	require.NoError(t, err)
	assert.True(t, changed)
}

type fillReports struct {
	errors.LogHandler
	reports []*errors.FillReport
}

func (h *fillReports) HandleFillReport(r *errors.FillReport) {
	h.reports = append(h.reports, r)
}

func TestFillReportsAnomalies(t *testing.T) {
	h := &fillReports{}
	errors.SetHandler(h)
	t.Cleanup(func() { errors.SetHandler(nil) })

	rec := &recorder{}
	tpl := core.NewView("Form").
		Add("c1", rec.leaf(true)).
		Add("title", labelOf(nil)).
		MustBuild()
	view := widgettest.NewPageTester(t, widgettest.NewPage()).View(tpl)

	_, err := view.Fill(context.Background(), map[string]any{"c1": 1, "title": "x", "nope": 2})
	require.NoError(t, err)
	require.Len(t, h.reports, 1)
	assert.Equal(t, "Form", h.reports[0].View)
	assert.Equal(t, []string{"nope"}, h.reports[0].Ignored)
	assert.Equal(t, []string{"title"}, h.reports[0].Skipped)

	_, err = view.Fill(context.Background(), map[string]any{"c1": 1})
	require.NoError(t, err)
	assert.Len(t, h.reports, 1, "clean fills are not reported")
}

func slowPage() *widgettest.Page {
	return widgettest.NewPage(
		widgettest.El("first").Tag("input"),
		widgettest.El("slow").Tag("input"),
	)
}

func slowForm(fs core.FillStrategy, slowArgs core.Args) *core.Template {
	args := core.Args{core.ArgLocator: "#slow"}
	for k, v := range slowArgs {
		args[k] = v
	}
	return core.NewView("Slow", core.WithFillStrategy(fs)).
		Add("first", widgets.TextInputOf("#first")).
		Add("slow", core.Leaf(widgets.NewTextInput, args)).
		MustBuild()
}

func TestWaitStrategyWaitsForDisplay(t *testing.T) {
	page := slowPage()
	page.ShowAfter(page.Find("#slow"), 2*time.Second)
	obs := &widgettest.RecordingObserver{}
	tester := widgettest.NewPageTester(t, page, core.WithObserver(obs))
	start := tester.Clock().Now()
	view := tester.View(slowForm(core.WaitStrategy{Timeout: 5 * time.Second, Interval: 500 * time.Millisecond}, nil))

	changed, err := view.Fill(context.Background(), map[string]any{"first": "1", "slow": "2"})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "2", page.Find("#slow").Value)
	assert.Equal(t, 2*time.Second, tester.Clock().Now().Sub(start))

	waits := obs.Events("wait")
	require.Len(t, waits, 2)
	assert.NoError(t, waits[1].Err)
}

type errorReports struct {
	errors.LogHandler
	errs []*errors.WidgetError
}

func (h *errorReports) HandleError(err *errors.WidgetError) {
	h.errs = append(h.errs, err)
}

func TestWaitStrategyTimeoutIsFatal(t *testing.T) {
	h := &errorReports{}
	errors.SetHandler(h)
	t.Cleanup(func() { errors.SetHandler(nil) })

	page := slowPage()
	page.ShowAfter(page.Find("#slow"), time.Minute)
	tester := widgettest.NewPageTester(t, page)
	view := tester.View(slowForm(core.WaitStrategy{Timeout: 3 * time.Second}, nil))

	_, err := view.Fill(context.Background(), map[string]any{"first": "1", "slow": "2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTimeout)
	assert.Equal(t, "1", page.Find("#first").Value, "children before the timeout stay filled")
	assert.Empty(t, page.Find("#slow").Value)
	require.Len(t, h.errs, 1)
	assert.Equal(t, errors.KindTimeout, h.errs[0].Kind)

	for _, d := range tester.Clock().Sleeps() {
		assert.LessOrEqual(t, d, core.DefaultPollInterval)
	}
}

func TestWaitTimeoutArgumentOverridesStrategy(t *testing.T) {
	page := slowPage()
	page.ShowAfter(page.Find("#slow"), 5*time.Second)
	tester := widgettest.NewPageTester(t, page)
	start := tester.Clock().Now()
	view := tester.View(slowForm(core.WaitStrategy{Timeout: time.Minute}, core.Args{core.ArgWaitTimeout: "1s"}))

	_, err := view.Fill(context.Background(), map[string]any{"slow": "2"})
	assert.ErrorIs(t, err, errors.ErrTimeout)
	assert.Equal(t, time.Second, tester.Clock().Now().Sub(start))
}

func TestRespectParentStrategy(t *testing.T) {
	ctx := context.Background()
	wait := core.WaitStrategy{Timeout: time.Second}
	inner := core.NewView("Inner", core.WithRespectParent(true)).MustBuild()
	own := core.NewView("Own").MustBuild()
	outer := core.NewView("Outer", core.WithFillStrategy(wait)).
		View("inner", inner).
		View("own", own).
		MustBuild()
	s := widgettest.NewSession(t, widgettest.NewPage())
	view, err := s.View(outer)
	require.NoError(t, err)

	nested, err := view.View(ctx, "inner")
	require.NoError(t, err)
	assert.Equal(t, wait, nested.FillStrategy())

	nested, err = view.View(ctx, "own")
	require.NoError(t, err)
	assert.Equal(t, core.DefaultStrategy{}, nested.FillStrategy())
	assert.Equal(t, s.DefaultStrategy(), nested.FillStrategy())
}

func TestFillHooks(t *testing.T) {
	rec := &recorder{}
	var seen map[string]any
	tpl := core.NewView("Form",
		core.WithBeforeFill(func(ctx context.Context, v *core.View, values map[string]any) error {
			seen = values
			return nil
		}),
		core.WithAfterFill(func(ctx context.Context, v *core.View, changed bool) (bool, error) {
			return !changed, nil
		}),
	).
		Add("a", rec.leaf(true)).
		MustBuild()
	view := widgettest.NewPageTester(t, widgettest.NewPage()).View(tpl)

	changed, err := view.Fill(context.Background(), map[string]any{"a": 1})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, map[string]any{"a": 1}, seen)
}

func TestBeforeFillErrorStopsFill(t *testing.T) {
	rec := &recorder{}
	stop := errors.New("not ready")
	tpl := core.NewView("Form",
		core.WithBeforeFill(func(context.Context, *core.View, map[string]any) error { return stop }),
	).
		Add("a", rec.leaf(true)).
		MustBuild()
	view := widgettest.NewPageTester(t, widgettest.NewPage()).View(tpl)

	_, err := view.Fill(context.Background(), map[string]any{"a": 1})
	assert.ErrorIs(t, err, stop)
	assert.Empty(t, rec.calls)
}

func TestGuardedStrategyRecoversPanics(t *testing.T) {
	rec := &recorder{}
	tpl := core.NewView("Form", core.WithFillStrategy(core.GuardedStrategy{})).
		Add("ok", rec.leaf(true)).
		Add("boom", rec.panicking()).
		MustBuild()
	view := widgettest.NewPageTester(t, widgettest.NewPage()).View(tpl)

	_, err := view.Fill(context.Background(), map[string]any{"ok": 1, "boom": 2})
	require.Error(t, err)
	assert.Equal(t, errors.KindPanic, errors.KindOf(err))
	var pe *errors.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "widget exploded", pe.Value)
	assert.Equal(t, []string{"ok=1"}, rec.calls)
}
