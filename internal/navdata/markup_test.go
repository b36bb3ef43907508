package navdata

import (
	"strings"
	"testing"
)

const colorImplMarkup = `impl <a class="trait" href="https://doc.rust-lang.org/1.69.0/core/fmt/trait.Debug.html" title="trait core::fmt::Debug">Debug</a> for <a class="struct" href="../../cosmic_text/struct.Color.html" title="struct cosmic_text::Color">Color</a>`

func TestImplementingType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"struct anchor", colorImplMarkup, "Color"},
		{"enum anchor", `impl Clone for <a class="enum" href="../e.html">Family</a>&lt;'a&gt;`, "Family"},
		{"blanket impl", `impl&lt;T&gt; From&lt;T&gt; for T`, ""},
		{"trait anchor only", `impl <a class="trait" href="../t.html">Shape</a> for Foo`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ImplementingType(tt.markup); got != tt.want {
				t.Errorf("ImplementingType(%q) = %q, want %q", tt.markup, got, tt.want)
			}
		})
	}
}

func TestCheckMarkup(t *testing.T) {
	t.Parallel()

	if err := CheckMarkup(colorImplMarkup); err != nil {
		t.Errorf("well-formed markup rejected: %v", err)
	}
	if err := CheckMarkup(`impl Clone for Color`); err != nil {
		t.Errorf("anchor-free impl header rejected: %v", err)
	}

	if err := CheckMarkup(`just some text`); err == nil {
		t.Error("markup without impl header accepted")
	}
	if err := CheckMarkup(`impl Debug for <a class="struct">Color</a>`); err == nil {
		t.Error("anchor without href accepted")
	}
	if err := CheckMarkup(`impl Debug for <a class="struct" href="../s.html">Color`); err == nil {
		t.Error("unclosed anchor accepted")
	}
}

func TestAbsolutizeMarkup(t *testing.T) {
	t.Parallel()

	out, err := AbsolutizeMarkup(colorImplMarkup, "https://docs.rs/cosmic-text/0.12.1/")
	if err != nil {
		t.Fatalf("AbsolutizeMarkup: %v", err)
	}

	if !strings.Contains(out, `href="https://docs.rs/cosmic-text/0.12.1/cosmic_text/struct.Color.html"`) {
		t.Errorf("relative href not rewritten: %s", out)
	}
	// Already-absolute hrefs stay untouched.
	if !strings.Contains(out, `href="https://doc.rust-lang.org/1.69.0/core/fmt/trait.Debug.html"`) {
		t.Errorf("absolute href rewritten: %s", out)
	}
	if strings.Contains(out, "<body") || strings.Contains(out, "<html") {
		t.Errorf("document wrapper leaked into output: %s", out)
	}
}
