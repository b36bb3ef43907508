package navdata

// Item kinds rustdoc emits in sidebar listings. The common three (enum,
// struct, trait) dominate, but module sidebars also list the rest.
var KnownKinds = map[string]bool{
	"attr":       true,
	"constant":   true,
	"derive":     true,
	"enum":       true,
	"fn":         true,
	"macro":      true,
	"mod":        true,
	"primitive":  true,
	"static":     true,
	"struct":     true,
	"trait":      true,
	"traitalias": true,
	"type":       true,
	"union":      true,
}

// SidebarItem is one navigation entry: a public API element and its
// one-line summary. Newer rustdoc omits summaries.
type SidebarItem struct {
	Name    string
	Summary string
}

// SidebarGroup holds the items of one kind in presentation order.
type SidebarGroup struct {
	Kind  string
	Items []SidebarItem
}

// ModuleSidebar is the decoded sidebar fragment of a single module.
// Groups preserve rustdoc's emission order.
type ModuleSidebar struct {
	// Module is the Rust path of the module the sidebar belongs to,
	// e.g. "cosmic_text" or "cosmic_text::fontdb".
	Module string
	Groups []SidebarGroup
}

// Modules returns the names of child modules listed in the sidebar.
func (s *ModuleSidebar) Modules() []string {
	for _, g := range s.Groups {
		if g.Kind != "mod" {
			continue
		}
		names := make([]string, len(g.Items))
		for i, it := range g.Items {
			names[i] = it.Name
		}
		return names
	}
	return nil
}

// Group returns the group for the given kind, or nil.
func (s *ModuleSidebar) Group(kind string) *SidebarGroup {
	for i := range s.Groups {
		if s.Groups[i].Kind == kind {
			return &s.Groups[i]
		}
	}
	return nil
}

// ImplementorEntry records that one type implements the target trait,
// as carried by a trait-impl fragment.
type ImplementorEntry struct {
	// Library is the object-literal key the entry was grouped under
	// (the crate the impl lives in).
	Library string
	// ImplType is the implementing type name recovered from the markup,
	// empty when the markup carries no type anchor.
	ImplType string
	// RawMarkup is the HTML snippet exactly as rustdoc emitted it.
	RawMarkup string
}

// ImplementorSet is the decoded trait-impl fragment for one trait.
type ImplementorSet struct {
	// TraitPath is the Rust path of the target trait, e.g. "core::fmt::Debug".
	TraitPath string
	// Libraries is the declared key set in literal order.
	Libraries []string
	Entries   []ImplementorEntry
}

// EntriesFor returns the entries declared under the given library.
func (s *ImplementorSet) EntriesFor(library string) []ImplementorEntry {
	var out []ImplementorEntry
	for _, e := range s.Entries {
		if e.Library == library {
			out = append(out, e)
		}
	}
	return out
}

// CrateSnapshot is everything ingested for one crate@version: the sidebars
// of all walked modules plus any trait-impl sets fetched so far. Snapshots
// are replaced wholesale on re-ingest, never patched.
type CrateSnapshot struct {
	Name     string
	Version  string
	Sidebars []ModuleSidebar
	Impls    []ImplementorSet
}
