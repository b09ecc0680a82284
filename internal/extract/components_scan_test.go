package extract

import (
	"strings"
	"testing"
)

func TestScanComponentsBasic(t *testing.T) {
	src := []byte(`defmodule MyAppWeb.CoreComponents do
  use Phoenix.Component

  @doc """
  Renders a button.
  """
  attr :type, :string, default: "button"
  attr :class, :string, doc: "extra css classes"
  slot :inner_block, required: true

  def button(assigns) do
    ~H"""
    <button type={@type}><%= render_slot(@inner_block) %></button>
    """
  end
end
`)
	comps := scanComponents("core_components.ex", src)
	if len(comps) != 1 {
		t.Fatalf("expected 1 component, got %d", len(comps))
	}
	c := comps[0]
	if c.Name != "button" || c.Module != "MyAppWeb.CoreComponents" {
		t.Fatalf("unexpected identity %s.%s", c.Module, c.Name)
	}
	if !strings.Contains(c.Doc, "Renders a button") {
		t.Errorf("doc not captured: %q", c.Doc)
	}
	if len(c.Attrs) != 2 {
		t.Fatalf("expected 2 attrs, got %d", len(c.Attrs))
	}
	if c.Attrs[0].Name != "type" || c.Attrs[0].Type != ":string" || c.Attrs[0].Default != `"button"` {
		t.Errorf("type attr parsed wrong: %+v", c.Attrs[0])
	}
	if c.Attrs[1].Doc != "extra css classes" {
		t.Errorf("attr doc = %q", c.Attrs[1].Doc)
	}
	if len(c.Slots) != 1 || c.Slots[0].Name != "inner_block" || !c.Slots[0].Required {
		t.Errorf("slot parsed wrong: %+v", c.Slots)
	}
}

func TestScanComponentsMultiClauseMerge(t *testing.T) {
	src := []byte(`defmodule MyAppWeb.CoreComponents do
  attr :kind, :string
  attr :label, :string

  def badge(%{kind: "pill"} = assigns) do
  end

  attr :label, :string
  attr :color, :string

  def badge(assigns) do
  end
end
`)
	comps := scanComponents("core_components.ex", src)
	if len(comps) != 1 {
		t.Fatalf("expected 1 merged component, got %d", len(comps))
	}
	c := comps[0]
	var names []string
	for _, a := range c.Attrs {
		names = append(names, a.Name)
	}
	if got := strings.Join(names, ","); got != "kind,label,color" {
		t.Fatalf("merged attrs = %s, want kind,label,color", got)
	}
}

func TestScanComponentsNoCrossComponentBleed(t *testing.T) {
	src := []byte(`defmodule MyAppWeb.CoreComponents do
  attr :href, :string, required: true

  def link_button(assigns) do
  end

  def icon(assigns) do
  end
end
`)
	comps := scanComponents("core_components.ex", src)
	if len(comps) != 2 {
		t.Fatalf("expected 2 components, got %d", len(comps))
	}
	for _, c := range comps {
		if c.Name == "icon" && len(c.Attrs) != 0 {
			t.Errorf("icon stole attrs from link_button: %+v", c.Attrs)
		}
		if c.Name == "link_button" && len(c.Attrs) != 1 {
			t.Errorf("link_button lost its attr: %+v", c.Attrs)
		}
	}
}

func TestScanComponentsProximityWindow(t *testing.T) {
	var b strings.Builder
	b.WriteString("defmodule MyAppWeb.CoreComponents do\n")
	b.WriteString("  attr :lost, :string\n")
	// Push the definition far past the proximity window.
	for i := 0; i < maxBindDistance+5; i++ {
		b.WriteString("\n")
	}
	b.WriteString("  def distant(assigns) do\n  end\nend\n")

	comps := scanComponents("core_components.ex", []byte(b.String()))
	if len(comps) != 1 {
		t.Fatalf("expected 1 component, got %d", len(comps))
	}
	if len(comps[0].Attrs) != 0 {
		t.Errorf("attr outside proximity window was bound: %+v", comps[0].Attrs)
	}
}

func TestScanComponentsAgingWindow(t *testing.T) {
	var b strings.Builder
	b.WriteString("defmodule MyAppWeb.CoreComponents do\n")
	b.WriteString("  attr :shared, :string\n")
	b.WriteString("  def tab(%{active: true} = assigns) do\n  end\n")
	// A sibling clause far outside the aging window no longer sees it.
	for i := 0; i < maxPendingAge+5; i++ {
		b.WriteString("\n")
	}
	b.WriteString("  def tab(assigns) do\n  end\nend\n")

	comps := scanComponents("core_components.ex", []byte(b.String()))
	if len(comps) != 1 {
		t.Fatalf("expected 1 merged component, got %d", len(comps))
	}
	if len(comps[0].Attrs) != 1 {
		t.Fatalf("first clause should keep the attr exactly once: %+v", comps[0].Attrs)
	}
}

func TestScanComponentsSiblingClauseSeesConsumedAttrs(t *testing.T) {
	src := []byte(`defmodule MyAppWeb.CoreComponents do
  attr :name, :string

  def chip(%{name: nil} = assigns) do
  end

  def chip(assigns) do
  end
end
`)
	comps := scanComponents("core_components.ex", src)
	if len(comps) != 1 {
		t.Fatalf("expected 1 component, got %d", len(comps))
	}
	if len(comps[0].Attrs) != 1 || comps[0].Attrs[0].Name != "name" {
		t.Fatalf("sibling clause merge produced %+v", comps[0].Attrs)
	}
}

func TestScanComponentsSlotBlock(t *testing.T) {
	src := []byte(`defmodule MyAppWeb.CoreComponents do
  slot :col, required: true do
    attr :label, :string, required: true
    attr :width, :string
  end

  def table(assigns) do
  end
end
`)
	comps := scanComponents("core_components.ex", src)
	if len(comps) != 1 {
		t.Fatalf("expected 1 component, got %d", len(comps))
	}
	slots := comps[0].Slots
	if len(slots) != 1 || slots[0].Name != "col" || !slots[0].Required {
		t.Fatalf("slot parsed wrong: %+v", slots)
	}
	if len(slots[0].Attrs) != 2 || slots[0].Attrs[0].Name != "label" || !slots[0].Attrs[0].Required {
		t.Fatalf("slot attrs parsed wrong: %+v", slots[0].Attrs)
	}
}

func TestScanComponentsEnumValues(t *testing.T) {
	src := []byte(`defmodule MyAppWeb.CoreComponents do
  attr :kind, :string, values: ["info", "error", "warn"]

  def flash(assigns) do
  end
end
`)
	comps := scanComponents("core_components.ex", src)
	if len(comps) != 1 || len(comps[0].Attrs) != 1 {
		t.Fatalf("unexpected extraction: %+v", comps)
	}
	values := comps[0].Attrs[0].Values
	if len(values) != 3 || values[0] != "info" || values[2] != "warn" {
		t.Fatalf("values = %v", values)
	}
}

func TestScanComponentsSkipsRenderAndPlainFuncs(t *testing.T) {
	src := []byte(`defmodule MyAppWeb.UserLive do
  def render(assigns) do
  end

  def mount(params, session, socket) do
  end

  def avatar(assigns) do
  end
end
`)
	comps := scanComponents("user_live.ex", src)
	if len(comps) != 1 || comps[0].Name != "avatar" {
		t.Fatalf("expected only avatar, got %+v", comps)
	}
}

func TestScanComponentsNestedModules(t *testing.T) {
	src := []byte(`defmodule MyAppWeb.Layouts do
  defmodule Inner do
    attr :title, :string

    def heading(assigns) do
    end
  end
end
`)
	comps := scanComponents("layouts.ex", src)
	if len(comps) != 1 {
		t.Fatalf("expected 1 component, got %d", len(comps))
	}
	if comps[0].Module != "MyAppWeb.Layouts.Inner" {
		t.Errorf("nested module = %q", comps[0].Module)
	}
}
