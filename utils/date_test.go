package utils

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFlexDateUnmarshal(t *testing.T) {
	want := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   string
		want time.Time
	}{
		{"plain date", `"2026-09-15"`, want},
		{"rfc3339", `"2026-09-15T00:00:00Z"`, want},
		{"rfc3339 with offset", `"2026-09-15T07:00:00+07:00"`, want},
		{"no zone", `"2026-09-15T00:00:00"`, want},
		{"timestamp wrapper", `{"seconds":1789430400,"nanos":0}`, time.Unix(1789430400, 0).UTC()},
	}

	for _, tc := range cases {
		var d FlexDate
		if err := json.Unmarshal([]byte(tc.in), &d); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if !d.Time.Equal(tc.want) {
			t.Fatalf("%s: got %s, want %s", tc.name, d.Time, tc.want)
		}
	}
}

func TestFlexDateUnmarshalEmpty(t *testing.T) {
	for _, in := range []string{`null`, `""`} {
		var d FlexDate
		if err := json.Unmarshal([]byte(in), &d); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if !d.IsZero() {
			t.Fatalf("%s: expected zero time, got %s", in, d.Time)
		}
	}
}

func TestFlexDateUnmarshalRejectsGarbage(t *testing.T) {
	var d FlexDate
	if err := json.Unmarshal([]byte(`"15/09/2026"`), &d); err == nil {
		t.Fatalf("expected slash date to be rejected")
	}
	if err := json.Unmarshal([]byte(`{"nanos":5}`), &d); err == nil {
		t.Fatalf("expected wrapper without seconds to be rejected")
	}
}

func TestFlexDateMarshal(t *testing.T) {
	d := FlexDate{Time: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2026-09-15T00:00:00Z"` {
		t.Fatalf("got %s", b)
	}

	var zero FlexDate
	b, err = json.Marshal(zero)
	if err != nil {
		t.Fatalf("marshal zero: %v", err)
	}
	if string(b) != `null` {
		t.Fatalf("zero marshals to %s, want null", b)
	}
}
