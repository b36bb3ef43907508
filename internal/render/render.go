// Package render turns stored navigation data back into markdown for the
// CLI and MCP resource surfaces.
package render

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	gmparser "github.com/gomarkdown/markdown/parser"

	"github.com/rustnav/rustnav/internal/navdata"
)

// SummaryText flattens a summary's markdown to plain text for indexing.
// Code spans keep their content; links keep their text.
func SummaryText(summary string) string {
	if summary == "" {
		return ""
	}

	doc := gm.Parse([]byte(summary), gmparser.NewWithExtensions(
		gmparser.CommonExtensions|gmparser.Autolink,
	))

	var b strings.Builder
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch n := node.(type) {
		case *ast.Text:
			b.Write(n.Literal)
		case *ast.Code:
			b.Write(n.Literal)
		}
		return ast.GoToNext
	})

	return strings.Join(strings.Fields(b.String()), " ")
}

// intraDocRe matches rustdoc's shortcut intra-doc references: [`Name`].
var intraDocRe = regexp.MustCompile("\\[`([A-Za-z0-9_:]+)`\\](?:\\(\\S*\\))?")

// LinkifySummary resolves [`Name`] references in a summary to rsnav:// links
// via the provided resolver. Unresolvable names are left as-is.
func LinkifySummary(summary string, resolve func(name string) string) string {
	if resolve == nil {
		return summary
	}
	return intraDocRe.ReplaceAllStringFunc(summary, func(m string) string {
		name := intraDocRe.FindStringSubmatch(m)[1]
		uri := resolve(name)
		if uri == "" {
			return m
		}
		return fmt.Sprintf("[`%s`](%s)", name, uri)
	})
}

// ItemURI builds the canonical rsnav:// URI for a sidebar item.
func ItemURI(crate, version, kind, name string) string {
	return fmt.Sprintf("rsnav://%s/%s/%s/%s", crate, version, kind, name)
}

// ImplURI builds the canonical rsnav:// URI for a trait's implementor listing.
func ImplURI(crate, version, traitPath string) string {
	return fmt.Sprintf("rsnav://%s/%s/impl/%s", crate, version, traitPath)
}

// Sidebar renders one module's sidebar as markdown, one section per kind
// group in presentation order.
func Sidebar(crate, version string, sidebar *navdata.ModuleSidebar) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s\n\n", sidebar.Module))

	resolve := func(name string) string {
		for _, g := range sidebar.Groups {
			for _, it := range g.Items {
				if it.Name == name {
					return ItemURI(crate, version, g.Kind, name)
				}
			}
		}
		return ""
	}

	for _, g := range sidebar.Groups {
		if len(g.Items) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("## %s\n\n", g.Kind))
		for _, it := range g.Items {
			uri := ItemURI(crate, version, g.Kind, it.Name)
			if it.Summary == "" {
				b.WriteString(fmt.Sprintf("- [`%s`](%s)\n", it.Name, uri))
				continue
			}
			b.WriteString(fmt.Sprintf("- [`%s`](%s) — %s\n", it.Name, uri, LinkifySummary(it.Summary, resolve)))
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// Converter wraps an HTML→markdown converter for implementor markup.
// The zero value is not usable; call NewConverter.
type Converter struct {
	conv *md.Converter
}

func NewConverter() *Converter {
	return &Converter{conv: md.NewConverter("", true, nil)}
}

// Implementors renders a trait's implementor listing as markdown, grouped by
// owning library. base, when non-empty, absolutizes relative hrefs before
// conversion so the links survive outside the generated doc tree.
func (c *Converter) Implementors(set *navdata.ImplementorSet, base string) (string, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Implementors of %s\n\n", set.TraitPath))

	for _, lib := range set.Libraries {
		entries := set.EntriesFor(lib)
		if len(entries) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("## %s\n\n", lib))
		for _, e := range entries {
			markup := e.RawMarkup
			if base != "" {
				abs, err := navdata.AbsolutizeMarkup(markup, base)
				if err == nil {
					markup = abs
				}
			}
			line, err := c.conv.ConvertString(markup)
			if err != nil {
				return "", fmt.Errorf("converting markup for %s: %w", lib, err)
			}
			b.WriteString(fmt.Sprintf("- %s\n", strings.Join(strings.Fields(line), " ")))
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n", nil
}
