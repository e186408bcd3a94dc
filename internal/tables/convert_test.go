package tables

import "testing"

func TestNumericParserParse(t *testing.T) {
	p := NewNumericParser(",", ".")

	cases := []struct {
		raw     string
		want    float64
		present bool
	}{
		{"1.234.567", 1234567, true},
		{"1234,5", 1234.5, true},
		{`"2.500"`, 2500, true},
		{"  42  ", 42, true},
		{"-17,5", -17.5, true},
		{"", 0, false},
		{"*", 0, false},
		{` "*" `, 0, false},
	}
	for _, c := range cases {
		got, present, err := p.Parse(c.raw)
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", c.raw, err)
			continue
		}
		if present != c.present || got != c.want {
			t.Errorf("Parse(%q) = (%v, %v), want (%v, %v)", c.raw, got, present, c.want, c.present)
		}
	}
}

func TestNumericParserRejectsGarbage(t *testing.T) {
	p := NewNumericParser("", "")
	if _, _, err := p.Parse("no es numero"); err == nil {
		t.Error("expected error for non-numeric text")
	}
}

func TestNumericParserDefaults(t *testing.T) {
	p := NewNumericParser("", "")
	got, present, err := p.Parse("1,234.5")
	if err != nil || !present || got != 1234.5 {
		t.Errorf("Parse with default separators = (%v, %v, %v)", got, present, err)
	}
}

func TestNormalizeText(t *testing.T) {
	if got, ok := NormalizeText("  VALDIVIA  "); !ok || got != "VALDIVIA" {
		t.Errorf("NormalizeText trim = (%q, %v)", got, ok)
	}
	if _, ok := NormalizeText("nan"); ok {
		t.Error("literal nan should normalize to null")
	}
	if _, ok := NormalizeText("   "); ok {
		t.Error("whitespace-only should normalize to null")
	}
}
