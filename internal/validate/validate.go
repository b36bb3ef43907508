// Package validate runs structural consistency checks over an ingested
// navigation snapshot: the kind of checks a doc build should pass before the
// index is trusted (unique names per kind group, entries only under declared
// libraries, well-formed markup).
package validate

import (
	"fmt"

	"github.com/rustnav/rustnav/internal/navdata"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

const (
	CheckDuplicateName    = "duplicate-name"
	CheckEmptyName        = "empty-name"
	CheckUnknownKind      = "unknown-kind"
	CheckEmptyGroup       = "empty-group"
	CheckUndeclaredLib    = "undeclared-library"
	CheckMalformedMarkup  = "malformed-markup"
	CheckEmptyImplEntries = "empty-impl-entries"
)

// Finding is one violated check, located precisely enough to fix.
type Finding struct {
	Check    string   `json:"check"`
	Severity Severity `json:"severity"`
	Location string   `json:"location"`
	Message  string   `json:"message"`
}

type Options struct {
	// Strict promotes warnings to errors.
	Strict bool
}

// Snapshot checks a full crate snapshot and returns every finding.
// A nil or empty result means the snapshot is consistent.
func Snapshot(snap *navdata.CrateSnapshot, opts Options) []Finding {
	var findings []Finding
	for i := range snap.Sidebars {
		findings = append(findings, sidebar(&snap.Sidebars[i], opts)...)
	}
	for i := range snap.Impls {
		findings = append(findings, Implementors(&snap.Impls[i], opts)...)
	}
	return findings
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

func sidebar(s *navdata.ModuleSidebar, opts Options) []Finding {
	var findings []Finding

	for _, g := range s.Groups {
		loc := s.Module + "/" + g.Kind

		if !navdata.KnownKinds[g.Kind] {
			findings = append(findings, Finding{
				Check:    CheckUnknownKind,
				Severity: warn(opts),
				Location: loc,
				Message:  fmt.Sprintf("kind %q is not a rustdoc item kind", g.Kind),
			})
		}
		if len(g.Items) == 0 {
			findings = append(findings, Finding{
				Check:    CheckEmptyGroup,
				Severity: warn(opts),
				Location: loc,
				Message:  "group declared but empty",
			})
		}

		seen := make(map[string]bool, len(g.Items))
		for _, it := range g.Items {
			if it.Name == "" {
				findings = append(findings, Finding{
					Check:    CheckEmptyName,
					Severity: SeverityError,
					Location: loc,
					Message:  "item with empty name",
				})
				continue
			}
			if seen[it.Name] {
				findings = append(findings, Finding{
					Check:    CheckDuplicateName,
					Severity: SeverityError,
					Location: loc + "/" + it.Name,
					Message:  fmt.Sprintf("name %q appears more than once in kind group %q", it.Name, g.Kind),
				})
			}
			seen[it.Name] = true
		}
	}

	return findings
}

// Implementors checks one trait-impl set: every entry must sit under a
// declared library key and carry displayable markup.
func Implementors(s *navdata.ImplementorSet, opts Options) []Finding {
	var findings []Finding

	declared := make(map[string]bool, len(s.Libraries))
	for _, lib := range s.Libraries {
		declared[lib] = true
	}

	counts := make(map[string]int)
	for i, e := range s.Entries {
		loc := fmt.Sprintf("%s/%s[%d]", s.TraitPath, e.Library, i)
		counts[e.Library]++

		if e.Library == "" || !declared[e.Library] {
			findings = append(findings, Finding{
				Check:    CheckUndeclaredLib,
				Severity: SeverityError,
				Location: loc,
				Message:  fmt.Sprintf("entry grouped under undeclared library %q", e.Library),
			})
		}
		if err := navdata.CheckMarkup(e.RawMarkup); err != nil {
			findings = append(findings, Finding{
				Check:    CheckMalformedMarkup,
				Severity: SeverityError,
				Location: loc,
				Message:  err.Error(),
			})
		}
	}

	for _, lib := range s.Libraries {
		if counts[lib] == 0 {
			findings = append(findings, Finding{
				Check:    CheckEmptyImplEntries,
				Severity: warn(opts),
				Location: s.TraitPath + "/" + lib,
				Message:  fmt.Sprintf("library %q declared with no entries", lib),
			})
		}
	}

	return findings
}

func warn(opts Options) Severity {
	if opts.Strict {
		return SeverityError
	}
	return SeverityWarning
}
