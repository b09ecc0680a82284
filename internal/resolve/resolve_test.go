package resolve

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phxls/workspace-index/internal/aggregate"
	"github.com/phxls/workspace-index/internal/extract"
	"github.com/phxls/workspace-index/internal/imports"
	"github.com/phxls/workspace-index/internal/registry"
)

const userHTMLPath = "lib/my_app_web/controllers/user_html.ex"

var userHTMLSource = []byte(`defmodule MyAppWeb.UserHTML do
  alias MyApp.Accounts.User

  attr :user, User
  attr :size, :string

  def card(assigns) do
    ~H"""
    <div><%= @user.email %></div>
    """
  end
end
`)

type fixture struct {
	components *registry.Components
	schemas    *registry.Schemas
	renders    *registry.Renders
	templates  *registry.Templates
	usage      *aggregate.Usage
	resolver   *Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		components: registry.NewComponents(extract.Components()),
		schemas:    registry.NewSchemas(extract.Schemas()),
		renders:    registry.NewRenders(extract.Renders()),
		templates:  registry.NewTemplates(extract.Templates()),
	}
	f.usage = aggregate.New(f.renders, f.templates)
	f.usage.SetStat(func(string) (os.FileInfo, error) { return nil, os.ErrNotExist })
	f.resolver = New(f.components, f.schemas, f.usage, imports.NewResolver(), "MyAppWeb.CoreComponents")

	f.components.Update("lib/my_app_web/components/core_components.ex", []byte(`defmodule MyAppWeb.CoreComponents do
  attr :kind, :atom

  def button(assigns) do
    ~H"""
    <button></button>
    """
  end
end
`))
	f.components.Update(userHTMLPath, userHTMLSource)
	f.components.Update("lib/acme/ui.ex", []byte(`defmodule Acme.UI do
  def card(assigns) do
    ~H"""
    <div></div>
    """
  end

  def widget(assigns) do
    ~H"""
    <div></div>
    """
  end
end
`))
	f.components.Update("lib/my_app_web/components/widgets.ex", []byte(`defmodule MyAppWeb.Widgets do
  def widget(assigns) do
    ~H"""
    <div></div>
    """
  end
end
`))
	f.components.Update("lib/my_app_web/helpers.ex", []byte(`defmodule MyAppWeb.Helpers do
  def flag(assigns) do
    ~H"""
    <span></span>
    """
  end
end
`))

	f.schemas.Update("lib/my_app/accounts/user.ex", []byte(`defmodule MyApp.Accounts.User do
  use Ecto.Schema

  alias MyApp.Accounts.Organization

  schema "users" do
    field :email, :string
    has_many :posts, MyApp.Blog.Post
    belongs_to :organization, Organization
  end
end
`))
	f.schemas.Update("lib/my_app/accounts/organization.ex", []byte(`defmodule MyApp.Accounts.Organization do
  use Ecto.Schema

  schema "organizations" do
    field :name, :string
  end
end
`))
	f.schemas.Update("lib/my_app/billing/invoice.ex", []byte(`defmodule MyApp.Billing.Invoice do
  use Ecto.Schema

  schema "invoices" do
    field :total, :decimal
  end
end
`))
	return f
}

func TestComponentQualified(t *testing.T) {
	f := newFixture(t)

	content := []byte("alias MyAppWeb.CoreComponents, as: CC\n")
	c := f.resolver.Component("lib/any.html.heex", "button", Options{ModuleContext: "CC", FileContent: content})
	require.NotNil(t, c)
	assert.Equal(t, "MyAppWeb.CoreComponents", c.Module)

	// A qualified tag that misses stays a miss even though other modules
	// define the name.
	c = f.resolver.Component("lib/any.html.heex", "card", Options{ModuleContext: "Missing"})
	assert.Nil(t, c)
}

func TestComponentPrimaryBeatsGlobal(t *testing.T) {
	f := newFixture(t)

	// Acme.UI.card sorts before MyAppWeb.UserHTML.card, so a name-only
	// global lookup would pick the wrong one. The sibling view module of
	// the template's directory must win.
	c := f.resolver.Component("lib/my_app_web/controllers/user_html/show.html.heex", "card", Options{})
	require.NotNil(t, c)
	assert.Equal(t, "MyAppWeb.UserHTML", c.Module)
}

func TestComponentCoreComponentsPrimary(t *testing.T) {
	f := newFixture(t)

	c := f.resolver.Component("lib/my_app_web/controllers/misc_html/index.html.heex", "button", Options{})
	require.NotNil(t, c)
	assert.Equal(t, "MyAppWeb.CoreComponents", c.Module)
}

func TestComponentImportTier(t *testing.T) {
	f := newFixture(t)

	content := []byte("import MyAppWeb.Helpers\n")
	c := f.resolver.Component("lib/other/thing.html.heex", "flag", Options{FileContent: content})
	require.NotNil(t, c)
	assert.Equal(t, "MyAppWeb.Helpers", c.Module)
}

func TestComponentWorkspaceNamespaceBeatsGlobal(t *testing.T) {
	f := newFixture(t)

	// Both Acme.UI and MyAppWeb.Widgets define widget; the workspace
	// namespace derived from the core-components module prefers the
	// in-project one.
	c := f.resolver.Component("lib/anywhere/foo_html/show.html.heex", "widget", Options{})
	require.NotNil(t, c)
	assert.Equal(t, "MyAppWeb.Widgets", c.Module)
}

func TestComponentGlobalFallback(t *testing.T) {
	f := newFixture(t)

	// Without a core-components hint there is no namespace preference:
	// first candidate by module order.
	bare := New(f.components, f.schemas, f.usage, imports.NewResolver(), "")
	c := bare.Component("lib/anywhere/foo_html/show.html.heex", "widget", Options{})
	require.NotNil(t, c)
	assert.Equal(t, "Acme.UI", c.Module)

	assert.Nil(t, bare.Component("lib/anywhere/foo_html/show.html.heex", "nonexistent", Options{}))
}

func TestAssignTypeInsideComponent(t *testing.T) {
	f := newFixture(t)

	offset := bytes.Index(userHTMLSource, []byte("@user"))
	require.Positive(t, offset)

	// The attr contract names a module, alias-resolved through the file.
	got := f.resolver.AssignType(userHTMLPath, "user", offset, userHTMLSource)
	assert.Equal(t, "MyApp.Accounts.User", got)

	// A primitive attr type falls back to name camelization.
	got = f.resolver.AssignType(userHTMLPath, "size", offset, userHTMLSource)
	assert.Equal(t, "Size", got)
}

func TestAssignTypeFromTemplateUsage(t *testing.T) {
	f := newFixture(t)

	f.templates.UpdateFile("lib/my_app_web/controllers/user_html/show.html.heex", []byte("<div></div>"))
	f.renders.Update("lib/my_app_web/controllers/user_controller.ex", []byte(`defmodule MyAppWeb.UserController do
  use MyAppWeb, :controller

  def show(conn, %{"id" => id}) do
    render(conn, :show, user: Accounts.get_user!(id), title: "Profile")
  end
end
`))
	f.usage.Rebuild()

	tmpl := "lib/my_app_web/controllers/user_html/show.html.heex"
	assert.Equal(t, "User", f.resolver.AssignType(tmpl, "user", 0, nil))
	// Literal inference never resolves to a schema; fall back to the name.
	assert.Equal(t, "Title", f.resolver.AssignType(tmpl, "title", 0, nil))
	assert.Equal(t, "Missing", f.resolver.AssignType(tmpl, "missing", 0, nil))
}

func TestSchemaLookupFallbacks(t *testing.T) {
	f := newFixture(t)

	s := f.resolver.Schema("MyApp.Accounts.User")
	require.NotNil(t, s)
	assert.Equal(t, "users", s.StorageName)

	// Bare suffix, unique across the workspace.
	assert.Same(t, s, f.resolver.Schema("User"))
	// List wrapper from a render-site inference.
	assert.Same(t, s, f.resolver.Schema("[User]"))
	// Descriptive prefixes on the final segment.
	assert.Same(t, s, f.resolver.Schema("CurrentUser"))
	assert.Same(t, s, f.resolver.Schema("MyApp.Accounts.CurrentUser"))

	// Sole schema in the namespace wins as a last resort.
	inv := f.resolver.Schema("MyApp.Billing.Unknown")
	require.NotNil(t, inv)
	assert.Equal(t, "MyApp.Billing.Invoice", inv.Module)

	assert.Nil(t, f.resolver.Schema("Nothing"))
	assert.Nil(t, f.resolver.Schema(""))
}

func TestFieldsForPath(t *testing.T) {
	f := newFixture(t)

	// Final segment is an association: the target schema's fields.
	fields := f.resolver.FieldsForPath("MyApp.Accounts.User", "organization")
	require.NotEmpty(t, fields)
	names := map[string]bool{}
	for _, fd := range fields {
		names[fd.Name] = true
	}
	assert.True(t, names["name"], "organization fields: %v", names)

	// Full path to a primitive: the field itself.
	fields = f.resolver.FieldsForPath("User", "organization", "name")
	require.Len(t, fields, 1)
	assert.Equal(t, "name", fields[0].Name)

	// List associations cannot be dotted through.
	assert.Nil(t, f.resolver.FieldsForPath("User", "posts", "title"))

	// Final primitive on the root schema.
	fields = f.resolver.FieldsForPath("User", "email")
	require.Len(t, fields, 1)
	assert.Equal(t, "email", fields[0].Name)

	// Dotting past a primitive is a miss.
	assert.Nil(t, f.resolver.FieldsForPath("User", "email", "length"))

	// Unresolvable association target.
	assert.Nil(t, f.resolver.FieldsForPath("User", "unknown_field"))
}
