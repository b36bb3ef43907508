package navdata

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Sidebar fragments come in two generations:
//
//	initSidebarItems({"enum":[["Family","A font family."]],...});
//	window.SIDEBAR_ITEMS = {"enum":["Family",...],...};
//
// Trait-impl fragments wrap the literal in an IIFE:
//
//	(function() {var implementors = {"cosmic_text":[["impl ..."]]}; ... })()
//
// and newer rustdoc routes it through Object.fromEntries:
//
//	var implementors = Object.fromEntries([["cosmic_text",[["impl ..."]]]]);
//
// In every case the payload itself is a JSON-compatible literal, so parsing
// is: locate the literal, extract it with a string-aware brace scanner, and
// decode it with encoding/json in token order (plain Unmarshal into a map
// would lose the presentation order the fragments encode).

// ParseSidebar decodes a sidebar-items fragment. module is the Rust path of
// the module the fragment belongs to.
func ParseSidebar(data []byte, module string) (*ModuleSidebar, error) {
	lit, err := extractLiteral(data, '{')
	if err != nil {
		return nil, fmt.Errorf("locating sidebar literal: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(lit))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("decoding sidebar literal: %w", err)
	}

	sidebar := &ModuleSidebar{Module: module}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decoding sidebar literal: %w", err)
		}
		kind, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("decoding sidebar literal: expected kind key, got %v", tok)
		}

		var raw []json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decoding %q group: %w", kind, err)
		}

		group := SidebarGroup{Kind: kind, Items: make([]SidebarItem, 0, len(raw))}
		for i, elem := range raw {
			item, err := decodeSidebarItem(elem)
			if err != nil {
				return nil, fmt.Errorf("decoding %q group item %d: %w", kind, i, err)
			}
			group.Items = append(group.Items, item)
		}
		sidebar.Groups = append(sidebar.Groups, group)
	}

	return sidebar, nil
}

// decodeSidebarItem accepts both generations of group element:
// a bare "name" string, or a ["name","summary"] pair.
func decodeSidebarItem(raw json.RawMessage) (SidebarItem, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return SidebarItem{Name: name}, nil
	}

	var pair []string
	if err := json.Unmarshal(raw, &pair); err != nil {
		return SidebarItem{}, fmt.Errorf("neither string nor pair: %w", err)
	}
	switch len(pair) {
	case 1:
		return SidebarItem{Name: pair[0]}, nil
	case 2:
		return SidebarItem{Name: pair[0], Summary: pair[1]}, nil
	default:
		return SidebarItem{}, fmt.Errorf("pair has %d elements", len(pair))
	}
}

// ParseImplementors decodes a trait-impl fragment for the given trait path.
func ParseImplementors(data []byte, traitPath string) (*ImplementorSet, error) {
	idx := bytes.Index(data, []byte("implementors"))
	if idx < 0 {
		return nil, fmt.Errorf("no implementors assignment in fragment")
	}
	rest := data[idx:]

	set := &ImplementorSet{TraitPath: traitPath}

	if from := bytes.Index(rest, []byte("Object.fromEntries")); from >= 0 {
		lit, err := extractLiteral(rest[from:], '[')
		if err != nil {
			return nil, fmt.Errorf("locating fromEntries literal: %w", err)
		}
		if err := decodeImplPairs(lit, set); err != nil {
			return nil, err
		}
		return set, nil
	}

	lit, err := extractLiteral(rest, '{')
	if err != nil {
		return nil, fmt.Errorf("locating implementors literal: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(lit))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("decoding implementors literal: %w", err)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decoding implementors literal: %w", err)
		}
		library, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("decoding implementors literal: expected library key, got %v", tok)
		}

		var raw []json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decoding %q entries: %w", library, err)
		}
		if err := appendImplEntries(set, library, raw); err != nil {
			return nil, err
		}
	}

	return set, nil
}

// decodeImplPairs handles the Object.fromEntries([["lib",[entries]],...]) form.
func decodeImplPairs(lit []byte, set *ImplementorSet) error {
	var pairs [][]json.RawMessage
	if err := json.Unmarshal(lit, &pairs); err != nil {
		return fmt.Errorf("decoding fromEntries pairs: %w", err)
	}
	for i, pair := range pairs {
		if len(pair) != 2 {
			return fmt.Errorf("fromEntries pair %d has %d elements", i, len(pair))
		}
		var library string
		if err := json.Unmarshal(pair[0], &library); err != nil {
			return fmt.Errorf("decoding fromEntries key %d: %w", i, err)
		}
		var raw []json.RawMessage
		if err := json.Unmarshal(pair[1], &raw); err != nil {
			return fmt.Errorf("decoding %q entries: %w", library, err)
		}
		if err := appendImplEntries(set, library, raw); err != nil {
			return err
		}
	}
	return nil
}

// appendImplEntries decodes one library's entry list. Each element is either
// a raw HTML string or an array whose first element is the HTML (newer
// fragments append numeric ids used by the in-browser renderer).
func appendImplEntries(set *ImplementorSet, library string, raw []json.RawMessage) error {
	set.Libraries = append(set.Libraries, library)
	for i, elem := range raw {
		var markup string
		if err := json.Unmarshal(elem, &markup); err != nil {
			var arr []json.RawMessage
			if err := json.Unmarshal(elem, &arr); err != nil || len(arr) == 0 {
				return fmt.Errorf("decoding %q entry %d: neither string nor array", library, i)
			}
			if err := json.Unmarshal(arr[0], &markup); err != nil {
				return fmt.Errorf("decoding %q entry %d markup: %w", library, i, err)
			}
		}
		set.Entries = append(set.Entries, ImplementorEntry{
			Library:   library,
			ImplType:  ImplementingType(markup),
			RawMarkup: markup,
		})
	}
	return nil
}

// extractLiteral returns the first balanced literal in src opening with the
// given delimiter. The scanner is string-aware: braces inside JSON strings
// (HTML snippets, summaries) don't affect nesting depth.
func extractLiteral(src []byte, open byte) ([]byte, error) {
	var closing byte
	switch open {
	case '{':
		closing = '}'
	case '[':
		closing = ']'
	default:
		return nil, fmt.Errorf("unsupported delimiter %q", open)
	}

	start := bytes.IndexByte(src, open)
	if start < 0 {
		return nil, fmt.Errorf("no %q in fragment", open)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(src); i++ {
		c := src[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return src[start : i+1], nil
			}
		}
	}
	return nil, fmt.Errorf("unbalanced literal")
}

func expectDelim(dec *json.Decoder, d json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if got, ok := tok.(json.Delim); !ok || got != d {
		return fmt.Errorf("expected %v, got %v", d, tok)
	}
	return nil
}
