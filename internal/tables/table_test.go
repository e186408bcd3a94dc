package tables

import "testing"

func sampleTable() *Table {
	t := New([]string{"a", "b"})
	t.Rows = []Row{
		{"a": "x", "b": float64(1)},
		{"a": nil, "b": float64(2)},
		{"a": "x", "b": float64(1)},
	}
	return t
}

func TestCloneIsIndependent(t *testing.T) {
	orig := sampleTable()
	cp := orig.Clone()

	cp.Rows[0]["a"] = "changed"
	cp.AddColumn("c")

	if orig.Rows[0]["a"] != "x" {
		t.Errorf("clone mutation leaked into original: %v", orig.Rows[0]["a"])
	}
	if len(orig.Columns) != 2 {
		t.Errorf("clone column add leaked into original: %v", orig.Columns)
	}
}

func TestRenameColumn(t *testing.T) {
	tbl := sampleTable()
	tbl.RenameColumn("a", "alpha")

	if !tbl.HasColumn("alpha") || tbl.HasColumn("a") {
		t.Fatalf("columns after rename: %v", tbl.Columns)
	}
	if tbl.Rows[0]["alpha"] != "x" {
		t.Errorf("row value not moved: %v", tbl.Rows[0])
	}
	if _, ok := tbl.Rows[0]["a"]; ok {
		t.Error("old key still present after rename")
	}

	// Unknown source name is a no-op.
	tbl.RenameColumn("missing", "other")
	if len(tbl.Columns) != 2 {
		t.Errorf("rename of unknown column changed the set: %v", tbl.Columns)
	}
}

func TestNullCounts(t *testing.T) {
	tbl := sampleTable()
	if got := tbl.NullCells(); got != 1 {
		t.Errorf("NullCells = %d, want 1", got)
	}
	if got := tbl.NullsInColumn("a"); got != 1 {
		t.Errorf("NullsInColumn(a) = %d, want 1", got)
	}
	if got := tbl.NullsInColumn("b"); got != 0 {
		t.Errorf("NullsInColumn(b) = %d, want 0", got)
	}
}

func TestDuplicateRows(t *testing.T) {
	tbl := sampleTable()
	if got := tbl.DuplicateRows(); got != 1 {
		t.Errorf("DuplicateRows = %d, want 1", got)
	}

	empty := New([]string{"a"})
	if got := empty.DuplicateRows(); got != 0 {
		t.Errorf("DuplicateRows on empty table = %d, want 0", got)
	}
}

func TestCellString(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"texto", "texto"},
		{float64(1500.5), "1500.5"},
		{float64(3), "3"},
		{int64(2022), "2022"},
	}
	for _, c := range cases {
		if got := CellString(c.in); got != c.want {
			t.Errorf("CellString(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAsFloat(t *testing.T) {
	if v, ok := AsFloat(float64(1.5)); !ok || v != 1.5 {
		t.Errorf("AsFloat(1.5) = %v, %v", v, ok)
	}
	if v, ok := AsFloat(int64(3)); !ok || v != 3 {
		t.Errorf("AsFloat(int64 3) = %v, %v", v, ok)
	}
	if _, ok := AsFloat(nil); ok {
		t.Error("AsFloat(nil) should not be ok")
	}
	if _, ok := AsFloat("7"); ok {
		t.Error("AsFloat(string) should not be ok")
	}
}
