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

var credentials = core.NewView("Credentials", core.WithRoot("#credentials")).
	Add("username", widgets.TextInputOf("#username")).
	Add("password", widgets.TextInputOf("#password")).
	MustBuild()

func loginPage() *widgettest.Page {
	return widgettest.NewPage(
		widgettest.El("login").Append(
			widgettest.El("title").WithText("Sign in"),
			widgettest.El("credentials").Append(
				widgettest.El("username").Tag("input"),
				widgettest.El("password").Tag("input"),
			),
			widgettest.El("remember").Tag("input").Checkable(),
		),
	)
}

func TestIncludePreservesInterleavedOrder(t *testing.T) {
	tpl := core.NewView("Login", core.WithRoot("#login")).
		Add("title", widgets.TextOf("#title")).
		Include(credentials).
		Add("remember", widgets.CheckboxOf("#remember")).
		MustBuild()

	assert.Equal(t, []string{"title", "username", "password", "remember"}, tpl.Names())
	var included []string
	for _, e := range tpl.Entries() {
		if e.Included() {
			included = append(included, e.Name)
		}
	}
	assert.Equal(t, []string{"username", "password"}, included)

	tester := widgettest.NewPageTester(t, loginPage())
	vals, err := tester.View(tpl).ReadValues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "username", "password", "remember"}, vals.Keys())
}

func TestIncludedWidgetsAreOwnedByIncludedView(t *testing.T) {
	ctx := context.Background()
	tpl := core.NewView("Login", core.WithRoot("#login")).
		Include(credentials).
		MustBuild()
	page := loginPage()
	view := widgettest.NewPageTester(t, page).View(tpl)

	user, err := view.Widget(ctx, "username")
	require.NoError(t, err)
	pass, err := view.Widget(ctx, "password")
	require.NoError(t, err)

	owner, ok := user.Parent().(*core.View)
	require.True(t, ok)
	assert.NotSame(t, view, owner)
	assert.Same(t, view, owner.Parent())
	assert.Same(t, owner, pass.Parent(), "one included instance per include")
	assert.Equal(t, "Credentials", owner.Template().Name())
	assert.Equal(t, "Login.username", core.PathOf(user))

	again, err := view.Widget(ctx, "username")
	require.NoError(t, err)
	assert.Same(t, user, again)

	changed, err := view.Fill(ctx, map[string]any{"username": "ann", "password": "pw"})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "ann", page.Find("#username").Value)
}

func TestIncludeUseParentScope(t *testing.T) {
	flat := core.NewView("Flat", core.WithRoot("#nowhere")).
		Add("title", widgets.TextOf("#title")).
		MustBuild()
	tpl := core.NewView("Login", core.WithRoot("#login")).
		Include(flat, core.UseParentScope()).
		MustBuild()
	tester := widgettest.NewPageTester(t, loginPage())

	assert.Equal(t, map[string]any{"title": "Sign in"}, tester.Read(tester.View(tpl)))
}

func TestIncludeNameCollision(t *testing.T) {
	_, err := core.NewView("Login").
		Add("username", widgets.TextOf("#u")).
		Include(credentials).
		Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNameCollision)

	_, err = core.NewView("Login").
		Include(credentials).
		Add("password", widgets.TextOf("#p")).
		Build()
	assert.ErrorIs(t, err, errors.ErrNameCollision)

	_, err = core.NewView("Login").
		Include(credentials).
		Include(credentials).
		Build()
	assert.ErrorIs(t, err, errors.ErrNameCollision)
}

func TestIncludeRejectsParametrizedTemplate(t *testing.T) {
	_, err := core.NewView("Host").Include(core.NewView("Row", core.WithParams("id")).MustBuild()).Build()
	assert.ErrorIs(t, err, errors.ErrDefinition)

	_, err = core.NewView("Host").Include(nil).Build()
	assert.ErrorIs(t, err, errors.ErrDefinition)
}

func TestIncludeObserved(t *testing.T) {
	obs := &widgettest.RecordingObserver{}
	tpl := core.NewView("Login", core.WithRoot("#login")).Include(credentials).MustBuild()
	view := widgettest.NewPageTester(t, loginPage(), core.WithObserver(obs)).View(tpl)

	_, err := view.Get(context.Background(), "username")
	require.NoError(t, err)

	bound := obs.Events("bound")
	require.Len(t, bound, 2)
	assert.Equal(t, core.KindInclude, bound[0].Kind)
	assert.Equal(t, "Credentials", bound[0].Name)
	assert.Equal(t, "Login", bound[1].View)
}
