package period

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		label   string
		want    Period
		wantErr bool
	}{
		{"202508A", Period{2025, 8, HalfA}, false},
		{"202512B", Period{2025, 12, HalfB}, false},
		{"202601A", Period{2026, 1, HalfA}, false},
		{"202508C", Period{}, true},
		{"202513A", Period{}, true},
		{"202500B", Period{}, true},
		{"20258A", Period{}, true},
		{"", Period{}, true},
		{"2025xxA", Period{}, true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.label)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) expected error, got %v", tt.label, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tt.label, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.label, got, tt.want)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, label := range []string{"202508A", "202512B", "202601A", "199901B"} {
		p := MustParse(label)
		if p.String() != label {
			t.Errorf("round trip %q -> %q", label, p.String())
		}
	}
}

func TestNextPrev(t *testing.T) {
	tests := []struct {
		in, next string
	}{
		{"202508A", "202508B"},
		{"202508B", "202509A"},
		{"202512B", "202601A"}, // year rollover
	}
	for _, tt := range tests {
		p := MustParse(tt.in)
		if got := p.Next().String(); got != tt.next {
			t.Errorf("%s.Next() = %s, want %s", tt.in, got, tt.next)
		}
		// Prev must invert Next.
		if got := MustParse(tt.next).Prev().String(); got != tt.in {
			t.Errorf("%s.Prev() = %s, want %s", tt.next, got, tt.in)
		}
	}
}

func TestCompare(t *testing.T) {
	a := MustParse("202508A")
	b := MustParse("202508B")
	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
		t.Errorf("Compare ordering broken: %d %d %d", a.Compare(b), b.Compare(a), a.Compare(a))
	}
}

func TestRange(t *testing.T) {
	got := Range(MustParse("202511B"), MustParse("202601A"))
	want := []string{"202511B", "202512A", "202512B", "202601A"}
	if len(got) != len(want) {
		t.Fatalf("Range returned %d periods, want %d", len(got), len(want))
	}
	for i, p := range got {
		if p.String() != want[i] {
			t.Errorf("Range[%d] = %s, want %s", i, p, want[i])
		}
	}

	if r := Range(MustParse("202601A"), MustParse("202511B")); r != nil {
		t.Errorf("reversed Range should be nil, got %v", r)
	}
}
