package aggregate

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phxls/workspace-index/internal/extract"
	"github.com/phxls/workspace-index/internal/registry"
)

func newFixture(t *testing.T) (*registry.Renders, *registry.Templates, *Usage) {
	t.Helper()
	renders := registry.NewRenders(extract.Renders())
	templates := registry.NewTemplates(extract.Templates())
	usage := New(renders, templates)
	usage.SetStat(func(string) (os.FileInfo, error) { return nil, os.ErrNotExist })
	return renders, templates, usage
}

func TestRebuildMergesSites(t *testing.T) {
	renders, templates, usage := newFixture(t)

	templates.UpdateFile("lib/my_app_web/controllers/user_html/show.html.heex", []byte("<div></div>"))

	renders.Update("lib/my_app_web/controllers/user_controller.ex", []byte(`defmodule MyAppWeb.UserController do
  use MyAppWeb, :controller

  def show(conn, %{"id" => id}) do
    render(conn, :show, user: build_user(id), title: "Profile")
  end

  def preview(conn, %{"id" => id}) do
    render(conn, :show, user: Accounts.get_user!(id))
  end
end
`))
	usage.Rebuild()

	sum := usage.ForTemplate("lib/my_app_web/controllers/user_html/show.html.heex")
	require.NotNil(t, sum)
	require.NotNil(t, sum.Template)
	assert.Equal(t, "show", sum.Template.Name)

	require.Len(t, sum.Sites, 2)
	assert.Equal(t, "MyAppWeb.UserController", sum.Sites[0].ControllerModule)
	assert.Equal(t, "show", sum.Sites[0].Action)
	assert.Equal(t, "preview", sum.Sites[1].Action)

	// Assigns are unioned and sorted; the first site's untyped "user"
	// binding yields to the later inferred one.
	require.Len(t, sum.Assigns, 2)
	assert.Equal(t, "title", sum.Assigns[0].Name)
	assert.Equal(t, "string", sum.Assigns[0].InferredType)
	assert.Equal(t, "user", sum.Assigns[1].Name)
	assert.Equal(t, "User", sum.Assigns[1].InferredType)
}

func TestRebuildConventionalDiskGuess(t *testing.T) {
	renders, _, usage := newFixture(t)

	guess := "lib/my_app_web/controllers/page_html/index.html.heex"
	usage.SetStat(func(path string) (os.FileInfo, error) {
		if path == guess {
			return nil, nil
		}
		return nil, os.ErrNotExist
	})

	renders.Update("lib/my_app_web/controllers/page_controller.ex", []byte(`defmodule MyAppWeb.PageController do
  use MyAppWeb, :controller

  def index(conn, _params) do
    render(conn, :index, entries: Blog.list_entries())
  end
end
`))
	usage.Rebuild()

	sum := usage.ForTemplate(guess)
	require.NotNil(t, sum)
	assert.Nil(t, sum.Template, "disk-guessed targets have no registry record")
	require.Len(t, sum.Assigns, 1)
	assert.Equal(t, "[Entry]", sum.Assigns[0].InferredType)
}

func TestRebuildDropsUnresolvableSites(t *testing.T) {
	renders, _, usage := newFixture(t)

	// No indexed template, no file on disk at the conventional path.
	renders.Update("lib/my_app_web/controllers/ghost_controller.ex", []byte(`defmodule MyAppWeb.GhostController do
  use MyAppWeb, :controller

  def show(conn, _params) do
    render(conn, :show, thing: thing)
  end
end
`))
	usage.Rebuild()

	assert.Empty(t, usage.All())
}

func TestRebuildExplicitViewModule(t *testing.T) {
	renders, templates, usage := newFixture(t)

	templates.UpdateFile("lib/my_app_web/templates/page/index.html.heex", []byte("<div></div>"))

	renders.Update("lib/my_app_web/controllers/home_controller.ex", []byte(`defmodule MyAppWeb.HomeController do
  use MyAppWeb, :controller

  def index(conn, _params) do
    render(conn, PageView, "index.html", items: Repo.all(Item))
  end
end
`))
	usage.Rebuild()

	// templates/page/index.html.heex camelizes to owning module "Page",
	// which does not match the requested PageView: explicit-view misses
	// resolve nowhere rather than guessing.
	assert.Empty(t, usage.All())
}

func TestRebuildReplacesPriorState(t *testing.T) {
	renders, templates, usage := newFixture(t)

	templates.UpdateFile("lib/my_app_web/controllers/user_html/show.html.heex", []byte("<div></div>"))
	renders.Update("lib/my_app_web/controllers/user_controller.ex", []byte(`defmodule MyAppWeb.UserController do
  use MyAppWeb, :controller

  def show(conn, _params) do
    render(conn, :show, user: Accounts.get_user!(1))
  end
end
`))
	usage.Rebuild()
	require.Len(t, usage.All(), 1)

	renders.Forget("lib/my_app_web/controllers/user_controller.ex")
	usage.Rebuild()
	assert.Empty(t, usage.All())
}
