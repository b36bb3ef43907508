package render

import (
	"strings"
	"testing"

	"github.com/rustnav/rustnav/internal/navdata"
)

func TestSummaryText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"A font family.", "A font family."},
		{"An owned version of [`Family`]", "An owned version of Family"},
		{"Text attributes for the `Attrs` builder.", "Text attributes for the Attrs builder."},
		{"Allows *italic* or **oblique** faces.", "Allows italic or oblique faces."},
		{"multi\nline  summary", "multi line summary"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SummaryText(tt.in); got != tt.want {
			t.Errorf("SummaryText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLinkifySummary(t *testing.T) {
	t.Parallel()

	resolve := func(name string) string {
		if name == "Family" {
			return "rsnav://cosmic-text/0.12.1/enum/Family"
		}
		return ""
	}

	got := LinkifySummary("An owned version of [`Family`]", resolve)
	want := "An owned version of [`Family`](rsnav://cosmic-text/0.12.1/enum/Family)"
	if got != want {
		t.Errorf("LinkifySummary = %q, want %q", got, want)
	}

	// Unresolvable references stay untouched.
	in := "See [`Unknown`] for details."
	if got := LinkifySummary(in, resolve); got != in {
		t.Errorf("LinkifySummary = %q, want unchanged", got)
	}

	if got := LinkifySummary("plain text", resolve); got != "plain text" {
		t.Errorf("LinkifySummary = %q, want unchanged", got)
	}
}

func TestSidebar(t *testing.T) {
	t.Parallel()

	sidebar := &navdata.ModuleSidebar{
		Module: "cosmic_text",
		Groups: []navdata.SidebarGroup{
			{Kind: "enum", Items: []navdata.SidebarItem{
				{Name: "Family", Summary: "A font family."},
			}},
			{Kind: "struct", Items: []navdata.SidebarItem{
				{Name: "FamilyOwned", Summary: "An owned version of [`Family`]"},
				{Name: "Color"},
			}},
			{Kind: "fn"},
		},
	}

	out := Sidebar("cosmic-text", "0.12.1", sidebar)

	if !strings.HasPrefix(out, "# cosmic_text\n") {
		t.Errorf("missing module heading: %q", out)
	}
	// Kind sections keep presentation order.
	enumIdx := strings.Index(out, "## enum")
	structIdx := strings.Index(out, "## struct")
	if enumIdx < 0 || structIdx < 0 || enumIdx > structIdx {
		t.Errorf("kind sections out of order: %q", out)
	}
	if strings.Contains(out, "## fn") {
		t.Errorf("empty group rendered: %q", out)
	}
	if !strings.Contains(out, "[`Family`](rsnav://cosmic-text/0.12.1/enum/Family)") {
		t.Errorf("item link missing: %q", out)
	}
	// Intra-doc reference resolves against the same sidebar.
	if !strings.Contains(out, "An owned version of [`Family`](rsnav://cosmic-text/0.12.1/enum/Family)") {
		t.Errorf("intra-doc link not resolved: %q", out)
	}
	// Summary-less items render without a trailing separator.
	if !strings.Contains(out, "- [`Color`](rsnav://cosmic-text/0.12.1/struct/Color)\n") {
		t.Errorf("bare item misrendered: %q", out)
	}
}

func TestImplementors(t *testing.T) {
	t.Parallel()

	set := &navdata.ImplementorSet{
		TraitPath: "core::clone::Clone",
		Libraries: []string{"cosmic_text", "fontdb"},
		Entries: []navdata.ImplementorEntry{
			{
				Library:   "cosmic_text",
				ImplType:  "Color",
				RawMarkup: `impl Clone for <a class="struct" href="../cosmic_text/struct.Color.html">Color</a>`,
			},
			{
				Library:   "fontdb",
				ImplType:  "Database",
				RawMarkup: `impl Clone for <a class="struct" href="../fontdb/struct.Database.html">Database</a>`,
			},
		},
	}

	out, err := NewConverter().Implementors(set, "https://docs.rs/cosmic-text/0.12.1")
	if err != nil {
		t.Fatalf("Implementors: %v", err)
	}

	if !strings.HasPrefix(out, "# Implementors of core::clone::Clone\n") {
		t.Errorf("missing heading: %q", out)
	}
	ctIdx := strings.Index(out, "## cosmic_text")
	fdIdx := strings.Index(out, "## fontdb")
	if ctIdx < 0 || fdIdx < 0 || ctIdx > fdIdx {
		t.Errorf("library sections out of order: %q", out)
	}
	if !strings.Contains(out, "[Color](https://docs.rs/cosmic-text/0.12.1/cosmic_text/struct.Color.html)") {
		t.Errorf("markup not converted to a markdown link: %q", out)
	}
}

func TestImplURI(t *testing.T) {
	t.Parallel()

	got := ImplURI("cosmic-text", "0.12.1", "core::fmt::Debug")
	if got != "rsnav://cosmic-text/0.12.1/impl/core::fmt::Debug" {
		t.Errorf("ImplURI = %q", got)
	}
}
