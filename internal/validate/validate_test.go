package validate

import (
	"testing"

	"github.com/rustnav/rustnav/internal/navdata"
)

func cleanSnapshot() *navdata.CrateSnapshot {
	return &navdata.CrateSnapshot{
		Name:    "cosmic-text",
		Version: "0.12.1",
		Sidebars: []navdata.ModuleSidebar{{
			Module: "cosmic_text",
			Groups: []navdata.SidebarGroup{
				{Kind: "enum", Items: []navdata.SidebarItem{
					{Name: "Family", Summary: "A font family."},
					{Name: "Style", Summary: "Allows italic or oblique faces to be selected."},
				}},
				{Kind: "struct", Items: []navdata.SidebarItem{
					{Name: "Attrs", Summary: "Text attributes."},
					{Name: "Color", Summary: "Text color."},
				}},
			},
		}},
		Impls: []navdata.ImplementorSet{{
			TraitPath: "core::clone::Clone",
			Libraries: []string{"cosmic_text"},
			Entries: []navdata.ImplementorEntry{{
				Library:   "cosmic_text",
				ImplType:  "Color",
				RawMarkup: `impl Clone for <a class="struct" href="../cosmic_text/struct.Color.html">Color</a>`,
			}},
		}},
	}
}

func findingsByCheck(findings []Finding) map[string]int {
	out := map[string]int{}
	for _, f := range findings {
		out[f.Check]++
	}
	return out
}

func TestSnapshot_Clean(t *testing.T) {
	t.Parallel()

	findings := Snapshot(cleanSnapshot(), Options{})
	if len(findings) != 0 {
		t.Errorf("clean snapshot produced findings: %+v", findings)
	}
}

func TestSnapshot_DuplicateName(t *testing.T) {
	t.Parallel()

	snap := cleanSnapshot()
	g := snap.Sidebars[0].Groups
	g[1].Items = append(g[1].Items, navdata.SidebarItem{Name: "Attrs"})

	findings := Snapshot(snap, Options{})
	if findingsByCheck(findings)[CheckDuplicateName] != 1 {
		t.Errorf("findings = %+v, want one duplicate-name", findings)
	}
	if !HasErrors(findings) {
		t.Error("duplicate name should be an error")
	}
}

func TestSnapshot_SameNameDifferentKindsAllowed(t *testing.T) {
	t.Parallel()

	// Uniqueness is scoped to the kind group: a struct and a macro may
	// share a name.
	snap := cleanSnapshot()
	snap.Sidebars[0].Groups = append(snap.Sidebars[0].Groups, navdata.SidebarGroup{
		Kind:  "macro",
		Items: []navdata.SidebarItem{{Name: "Attrs"}},
	})

	if findings := Snapshot(snap, Options{}); len(findings) != 0 {
		t.Errorf("cross-kind name reuse flagged: %+v", findings)
	}
}

func TestSnapshot_EmptyName(t *testing.T) {
	t.Parallel()

	snap := cleanSnapshot()
	snap.Sidebars[0].Groups[0].Items[0].Name = ""

	findings := Snapshot(snap, Options{})
	if findingsByCheck(findings)[CheckEmptyName] != 1 {
		t.Errorf("findings = %+v, want one empty-name", findings)
	}
}

func TestSnapshot_UnknownKindAndEmptyGroup(t *testing.T) {
	t.Parallel()

	snap := cleanSnapshot()
	snap.Sidebars[0].Groups = append(snap.Sidebars[0].Groups,
		navdata.SidebarGroup{Kind: "widget", Items: []navdata.SidebarItem{{Name: "X"}}},
		navdata.SidebarGroup{Kind: "trait"},
	)

	findings := Snapshot(snap, Options{})
	byCheck := findingsByCheck(findings)
	if byCheck[CheckUnknownKind] != 1 || byCheck[CheckEmptyGroup] != 1 {
		t.Errorf("findings = %+v", findings)
	}
	if HasErrors(findings) {
		t.Error("unknown kind and empty group are warnings by default")
	}

	strict := Snapshot(snap, Options{Strict: true})
	if !HasErrors(strict) {
		t.Error("strict mode should promote warnings to errors")
	}
}

func TestImplementors_UndeclaredLibrary(t *testing.T) {
	t.Parallel()

	snap := cleanSnapshot()
	snap.Impls[0].Entries = append(snap.Impls[0].Entries, navdata.ImplementorEntry{
		Library:   "fontdb",
		ImplType:  "Database",
		RawMarkup: `impl Clone for <a class="struct" href="../fontdb/struct.Database.html">Database</a>`,
	})

	findings := Implementors(&snap.Impls[0], Options{})
	if findingsByCheck(findings)[CheckUndeclaredLib] != 1 {
		t.Errorf("findings = %+v, want one undeclared-library", findings)
	}
	if !HasErrors(findings) {
		t.Error("undeclared library should be an error")
	}
}

func TestImplementors_MalformedMarkup(t *testing.T) {
	t.Parallel()

	snap := cleanSnapshot()
	snap.Impls[0].Entries[0].RawMarkup = `no header here`

	findings := Implementors(&snap.Impls[0], Options{})
	if findingsByCheck(findings)[CheckMalformedMarkup] != 1 {
		t.Errorf("findings = %+v, want one malformed-markup", findings)
	}
}

func TestImplementors_EmptyLibrary(t *testing.T) {
	t.Parallel()

	snap := cleanSnapshot()
	snap.Impls[0].Libraries = append(snap.Impls[0].Libraries, "unused_crate")

	findings := Implementors(&snap.Impls[0], Options{})
	if findingsByCheck(findings)[CheckEmptyImplEntries] != 1 {
		t.Errorf("findings = %+v, want one empty-impl-entries", findings)
	}
	if HasErrors(findings) {
		t.Error("empty library is a warning by default")
	}
}
