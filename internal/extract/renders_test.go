package extract

import (
	"testing"
)

func TestScanRendersBasic(t *testing.T) {
	src := []byte(`defmodule MyAppWeb.UserController do
  use MyAppWeb, :controller

  def show(conn, %{"id" => id}) do
    user = Accounts.get_user!(id)
    render(conn, :show, user: user, page_title: "Profile")
  end
end
`)
	renders := scanRenders("user_controller.ex", src)
	if len(renders) != 1 {
		t.Fatalf("expected 1 render, got %d", len(renders))
	}
	r := renders[0]
	if r.ControllerModule != "MyAppWeb.UserController" || r.Action != "show" {
		t.Fatalf("site wrong: %s.%s", r.ControllerModule, r.Action)
	}
	if r.TemplateName != "show" || r.ViewModule != "" {
		t.Fatalf("target wrong: %q / %q", r.TemplateName, r.ViewModule)
	}
	if len(r.Assigns) != 2 {
		t.Fatalf("assigns = %+v", r.Assigns)
	}
	if r.Assigns[0].Name != "user" || r.Assigns[0].InferredType != "User" {
		t.Errorf("user assign inference wrong: %+v", r.Assigns[0])
	}
	if r.Assigns[1].Name != "page_title" || r.Assigns[1].InferredType != "string" {
		t.Errorf("literal assign inference wrong: %+v", r.Assigns[1])
	}
}

func TestScanRendersStringTemplateAndView(t *testing.T) {
	src := []byte(`defmodule MyAppWeb.PageController do
  def index(conn, _params) do
    render(conn, PageView, "index.html", items: Repo.all(Item))
  end
end
`)
	renders := scanRenders("page_controller.ex", src)
	if len(renders) != 1 {
		t.Fatalf("expected 1 render, got %d", len(renders))
	}
	r := renders[0]
	if r.ViewModule != "PageView" {
		t.Errorf("view module = %q", r.ViewModule)
	}
	if r.TemplateName != "index" || r.TemplateFormat != "html" {
		t.Errorf("template = %q.%q", r.TemplateName, r.TemplateFormat)
	}
	if len(r.Assigns) != 1 || r.Assigns[0].InferredType != "[Item]" {
		t.Errorf("list inference wrong: %+v", r.Assigns)
	}
}

func TestScanRendersIgnoresNonConn(t *testing.T) {
	src := []byte(`defmodule MyAppWeb.UserController do
  def helper(data) do
    render(data, :show)
  end
end
`)
	if renders := scanRenders("user_controller.ex", src); len(renders) != 0 {
		t.Fatalf("non-conn render accepted: %+v", renders)
	}
}

func TestScanRendersIgnoresNonControllerModules(t *testing.T) {
	src := []byte(`defmodule MyAppWeb.UserLive do
  def show(conn, _params) do
    render(conn, :show)
  end
end
`)
	if renders := scanRenders("user_live.ex", src); len(renders) != 0 {
		t.Fatalf("non-controller render accepted: %+v", renders)
	}
}

func TestParseRenderArgsChangesetIdiom(t *testing.T) {
	r := parseRenderArgs(`conn, :edit, changeset: Accounts.change_user(user)`, "MyAppWeb.UserController", "edit", 10)
	if r == nil {
		t.Fatal("expected a render record")
	}
	if len(r.Assigns) != 1 || r.Assigns[0].InferredType != "Ecto.Changeset" {
		t.Fatalf("changeset inference wrong: %+v", r.Assigns)
	}
}
