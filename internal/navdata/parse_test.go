package navdata

import (
	"strings"
	"testing"
)

const oldSidebarFragment = `initSidebarItems({"enum":[["Family","A font family."],["Style","Allows italic or oblique faces to be selected."]],"struct":[["Attrs","Text attributes."],["AttrsList","List of text attributes to apply to a line."],["Color","Text color."],["Weight","Specifies the weight of glyphs in the font."]],"mod":[["fontdb",""]]});`

const newSidebarFragment = `window.SIDEBAR_ITEMS = {"enum":["Family","Style"],"struct":["Attrs","AttrsList","Color","Weight"]};`

func TestParseSidebar_OldGeneration(t *testing.T) {
	t.Parallel()

	sidebar, err := ParseSidebar([]byte(oldSidebarFragment), "cosmic_text")
	if err != nil {
		t.Fatalf("ParseSidebar: %v", err)
	}
	if sidebar.Module != "cosmic_text" {
		t.Errorf("module = %q, want cosmic_text", sidebar.Module)
	}
	if len(sidebar.Groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(sidebar.Groups))
	}

	// Groups keep the fragment's emission order.
	wantKinds := []string{"enum", "struct", "mod"}
	for i, g := range sidebar.Groups {
		if g.Kind != wantKinds[i] {
			t.Errorf("group %d kind = %q, want %q", i, g.Kind, wantKinds[i])
		}
	}

	structs := sidebar.Group("struct")
	if structs == nil {
		t.Fatal("no struct group")
	}
	wantNames := []string{"Attrs", "AttrsList", "Color", "Weight"}
	for i, it := range structs.Items {
		if it.Name != wantNames[i] {
			t.Errorf("struct %d = %q, want %q", i, it.Name, wantNames[i])
		}
	}
	if structs.Items[2].Summary != "Text color." {
		t.Errorf("Color summary = %q", structs.Items[2].Summary)
	}
}

func TestParseSidebar_NewGeneration(t *testing.T) {
	t.Parallel()

	sidebar, err := ParseSidebar([]byte(newSidebarFragment), "cosmic_text")
	if err != nil {
		t.Fatalf("ParseSidebar: %v", err)
	}

	enums := sidebar.Group("enum")
	if enums == nil || len(enums.Items) != 2 {
		t.Fatalf("enum group = %+v, want 2 items", enums)
	}
	if enums.Items[0].Name != "Family" || enums.Items[0].Summary != "" {
		t.Errorf("first enum = %+v, want bare Family", enums.Items[0])
	}
}

func TestParseSidebar_EmptySidebar(t *testing.T) {
	t.Parallel()

	sidebar, err := ParseSidebar([]byte(`window.SIDEBAR_ITEMS = {};`), "empty_crate")
	if err != nil {
		t.Fatalf("ParseSidebar: %v", err)
	}
	if len(sidebar.Groups) != 0 {
		t.Errorf("got %d groups, want 0", len(sidebar.Groups))
	}
}

func TestParseSidebar_BracesInsideSummaries(t *testing.T) {
	t.Parallel()

	// Summaries can carry braces and escaped quotes; the literal scanner
	// must not treat them as nesting.
	fragment := `initSidebarItems({"macro":[["cfg_match","Match on {cfg} blocks, like \"match { .. }\" at build time."]]});`
	sidebar, err := ParseSidebar([]byte(fragment), "m")
	if err != nil {
		t.Fatalf("ParseSidebar: %v", err)
	}
	g := sidebar.Group("macro")
	if g == nil || len(g.Items) != 1 {
		t.Fatalf("macro group = %+v", g)
	}
	if !strings.Contains(g.Items[0].Summary, `match { .. }`) {
		t.Errorf("summary lost brace content: %q", g.Items[0].Summary)
	}
}

func TestParseSidebar_Malformed(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		``,
		`initSidebarItems(`,
		`initSidebarItems({"enum":[["A","s"]]`,
		`initSidebarItems(["not","an","object"]);`,
	} {
		if _, err := ParseSidebar([]byte(src), "m"); err == nil {
			t.Errorf("ParseSidebar(%q) succeeded, want error", src)
		}
	}
}

func TestModulesAccessor(t *testing.T) {
	t.Parallel()

	sidebar, err := ParseSidebar([]byte(oldSidebarFragment), "cosmic_text")
	if err != nil {
		t.Fatalf("ParseSidebar: %v", err)
	}
	mods := sidebar.Modules()
	if len(mods) != 1 || mods[0] != "fontdb" {
		t.Errorf("Modules() = %v, want [fontdb]", mods)
	}
}

const implFragmentIIFE = `(function() {var implementors = {
"cosmic_text":[["impl <a class=\"trait\" href=\"https://doc.rust-lang.org/1.69.0/core/clone/trait.Clone.html\" title=\"trait core::clone::Clone\">Clone</a> for <a class=\"struct\" href=\"../cosmic_text/struct.Color.html\" title=\"struct cosmic_text::Color\">Color</a>"],["impl&lt;'a&gt; Clone for <a class=\"enum\" href=\"../cosmic_text/enum.Family.html\" title=\"enum cosmic_text::Family\">Family</a>&lt;'a&gt;"]],
"fontdb":[["impl Clone for <a class=\"struct\" href=\"../fontdb/struct.FaceInfo.html\">FaceInfo</a>"]]
};if (window.register_implementors) {window.register_implementors(implementors);} else {window.pending_implementors = implementors;}})()`

const implFragmentFromEntries = `(function() {var implementors = Object.fromEntries([["cosmic_text",[["impl Clone for <a class=\"struct\" href=\"../cosmic_text/struct.Weight.html\">Weight</a>",0]]]]);if (window.register_implementors) {window.register_implementors(implementors);} else {window.pending_implementors = implementors;}})()`

func TestParseImplementors_IIFE(t *testing.T) {
	t.Parallel()

	set, err := ParseImplementors([]byte(implFragmentIIFE), "core::clone::Clone")
	if err != nil {
		t.Fatalf("ParseImplementors: %v", err)
	}
	if set.TraitPath != "core::clone::Clone" {
		t.Errorf("trait path = %q", set.TraitPath)
	}
	if len(set.Libraries) != 2 || set.Libraries[0] != "cosmic_text" || set.Libraries[1] != "fontdb" {
		t.Errorf("libraries = %v", set.Libraries)
	}
	if len(set.Entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(set.Entries))
	}

	if set.Entries[0].ImplType != "Color" {
		t.Errorf("entry 0 impl type = %q, want Color", set.Entries[0].ImplType)
	}
	if set.Entries[1].ImplType != "Family" {
		t.Errorf("entry 1 impl type = %q, want Family", set.Entries[1].ImplType)
	}
	if got := set.EntriesFor("fontdb"); len(got) != 1 || got[0].ImplType != "FaceInfo" {
		t.Errorf("EntriesFor(fontdb) = %+v", got)
	}
	if !strings.Contains(set.Entries[0].RawMarkup, "struct.Color.html") {
		t.Errorf("raw markup not preserved: %q", set.Entries[0].RawMarkup)
	}
}

func TestParseImplementors_FromEntries(t *testing.T) {
	t.Parallel()

	set, err := ParseImplementors([]byte(implFragmentFromEntries), "core::clone::Clone")
	if err != nil {
		t.Fatalf("ParseImplementors: %v", err)
	}
	if len(set.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(set.Entries))
	}
	if set.Entries[0].Library != "cosmic_text" || set.Entries[0].ImplType != "Weight" {
		t.Errorf("entry = %+v", set.Entries[0])
	}
}

func TestParseImplementors_NoAssignment(t *testing.T) {
	t.Parallel()

	if _, err := ParseImplementors([]byte(`window.SIDEBAR_ITEMS = {};`), "t"); err == nil {
		t.Error("expected error for fragment without implementors literal")
	}
}

func TestExtractLiteral(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		open byte
		want string
	}{
		{`foo({"a":1});`, '{', `{"a":1}`},
		{`x = {"a":{"b":2}} trailing`, '{', `{"a":{"b":2}}`},
		{`{"s":"has } inside"}`, '{', `{"s":"has } inside"}`},
		{`{"s":"escaped \" then }"}`, '{', `{"s":"escaped \" then }"}`},
		{`f([[1,2],[3]])`, '[', `[[1,2],[3]]`},
	}
	for _, tt := range tests {
		got, err := extractLiteral([]byte(tt.src), tt.open)
		if err != nil {
			t.Errorf("extractLiteral(%q): %v", tt.src, err)
			continue
		}
		if string(got) != tt.want {
			t.Errorf("extractLiteral(%q) = %q, want %q", tt.src, got, tt.want)
		}
	}

	if _, err := extractLiteral([]byte(`{"never":"closed"`), '{'); err == nil {
		t.Error("expected error for unbalanced literal")
	}
	if _, err := extractLiteral([]byte(`no literal here`), '{'); err == nil {
		t.Error("expected error when delimiter is absent")
	}
}
