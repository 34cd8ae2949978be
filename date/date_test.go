package date

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{in: "2023-07-01", want: New(2023, time.July, 1)},
		{in: " 2023-12-31 ", want: New(2023, time.December, 31)},
		{in: "2023-13-01", wantErr: true},
		{in: "not a date", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range testCases {
		got, err := Parse(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) = %v, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseLayout(t *testing.T) {
	got, err := ParseLayout("2.1.2006", "7.3.2021")
	if err != nil {
		t.Fatalf("ParseLayout returned error: %v", err)
	}
	if want := New(2021, time.March, 7); !got.Equal(want) {
		t.Errorf("ParseLayout = %v, want %v", got, want)
	}
}

func TestAddNormalizes(t *testing.T) {
	d := New(2023, time.December, 31).Add(1)
	if want := New(2024, time.January, 1); !d.Equal(want) {
		t.Errorf("Add(1) = %v, want %v", d, want)
	}
}

func TestCompare(t *testing.T) {
	a := New(2023, time.June, 30)
	b := New(2023, time.July, 1)
	if !a.Before(b) || b.Before(a) {
		t.Errorf("Before is inconsistent for %v and %v", a, b)
	}
	if !b.After(a) {
		t.Errorf("expected %v to be after %v", b, a)
	}
	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
		t.Errorf("Compare is inconsistent for %v and %v", a, b)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	d := New(2022, time.February, 28)
	raw, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(raw) != `"2022-02-28"` {
		t.Errorf("MarshalJSON = %s", raw)
	}
	var back Date
	if err := back.UnmarshalJSON(raw); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if !back.Equal(d) {
		t.Errorf("round trip = %v, want %v", back, d)
	}
}
