package modname

import "testing"

func TestCamelize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"user_html", "UserHTML"},
		{"core_components", "CoreComponents"},
		{"user", "User"},
		{"api_json", "APIJSON"},
		{"page_view", "PageView"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Camelize(c.in); got != c.want {
			t.Errorf("Camelize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestUnderscore(t *testing.T) {
	cases := []struct{ in, want string }{
		{"UserHTML", "user_html"},
		{"CoreComponents", "core_components"},
		{"User", "user"},
		{"HTMLParser", "html_parser"},
	}
	for _, c := range cases {
		if got := Underscore(c.in); got != c.want {
			t.Errorf("Underscore(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSingularize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"users", "user"},
		{"entries", "entry"},
		{"boxes", "box"},
		{"branches", "branch"},
		{"dishes", "dish"},
		{"statuses", "status"},
		{"address", "address"},
		{"user", "user"},
	}
	for _, c := range cases {
		if got := Singularize(c.in); got != c.want {
			t.Errorf("Singularize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSegments(t *testing.T) {
	if got := LastSegment("MyAppWeb.UserHTML"); got != "UserHTML" {
		t.Errorf("LastSegment = %q", got)
	}
	if got := LastSegment("User"); got != "User" {
		t.Errorf("LastSegment = %q", got)
	}
	if got := Namespace("MyApp.Accounts.User"); got != "MyApp.Accounts" {
		t.Errorf("Namespace = %q", got)
	}
	if got := Namespace("User"); got != "" {
		t.Errorf("Namespace = %q", got)
	}
}

func TestStripDescriptivePrefix(t *testing.T) {
	if got := StripDescriptivePrefix("CurrentUser"); got != "User" {
		t.Errorf("got %q", got)
	}
	if got := StripDescriptivePrefix("SelectedOrganization"); got != "Organization" {
		t.Errorf("got %q", got)
	}
	if got := StripDescriptivePrefix("User"); got != "" {
		t.Errorf("no prefix should yield empty, got %q", got)
	}
	// The prefix alone is not a strippable name.
	if got := StripDescriptivePrefix("Current"); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestViewModuleCandidates(t *testing.T) {
	got := ViewModuleCandidates("MyAppWeb.UserController")
	if len(got) != 2 || got[0] != "MyAppWeb.UserHTML" || got[1] != "MyAppWeb.UserView" {
		t.Errorf("candidates = %v", got)
	}
	if got := ViewModuleCandidates("MyAppWeb.UserLive"); got != nil {
		t.Errorf("non-controller module should yield nil, got %v", got)
	}
}

func TestTemplateDirGuess(t *testing.T) {
	got := TemplateDirGuess("lib/my_app_web/controllers/user_controller.ex", "show", "html")
	want := "lib/my_app_web/controllers/user_html/show.html.heex"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	// Empty format defaults to html.
	got = TemplateDirGuess("lib/my_app_web/controllers/page_controller.ex", "index", "")
	want = "lib/my_app_web/controllers/page_html/index.html.heex"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSiblingViewFile(t *testing.T) {
	got := SiblingViewFile("lib/my_app_web/controllers/user_html/show.html.heex")
	if got != "lib/my_app_web/controllers/user_html.ex" {
		t.Errorf("got %q", got)
	}
}

func TestTemplateNameAndFormat(t *testing.T) {
	cases := []struct{ in, name, format string }{
		{"show.html.heex", "show", "html"},
		{"index.json.eex", "index", "json"},
		{"sidebar.heex", "sidebar", "html"},
		{"lib/foo/user_html/edit.html.heex", "edit", "html"},
	}
	for _, c := range cases {
		name, format := TemplateNameAndFormat(c.in)
		if name != c.name || format != c.format {
			t.Errorf("TemplateNameAndFormat(%q) = %q/%q, want %q/%q", c.in, name, format, c.name, c.format)
		}
	}
}
