package translate

import (
	"errors"
	"testing"
	"time"
)

func TestFormatAndParseSTACTime(t *testing.T) {
	local := time.Date(2020, 3, 8, 11, 0, 0, 123e6, time.FixedZone("PST", -8*3600))
	s := FormatSTACTime(local)
	if s != "2020-03-08T19:00:00.123Z" {
		t.Fatalf("FormatSTACTime() = %q", s)
	}
	got, err := ParseSTACTime(s)
	if err != nil {
		t.Fatalf("ParseSTACTime() error = %v", err)
	}
	if !got.Equal(local) {
		t.Errorf("ParseSTACTime() = %v, want %v", got, local)
	}

	for _, v := range []any{nil, "", 42, "yesterday"} {
		if _, err := ParseSTACTime(v); !errors.Is(err, ErrInvalidDateTime) {
			t.Errorf("ParseSTACTime(%v) error = %v, want ErrInvalidDateTime", v, err)
		}
	}
}

func TestQueryBounds(t *testing.T) {
	a := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		start     *time.Time
		end       *time.Time
		wantStart time.Time
		wantEnd   time.Time
		wantErr   bool
	}{
		{"closed", &a, &b, a, b.Add(time.Millisecond), false},
		{"open start", nil, &b, MinTime, b.Add(time.Millisecond), false},
		{"open end", &a, nil, a, MaxTime, false},
		{"fully open", nil, nil, MinTime, MaxTime, false},
		{"single instant", &a, &a, a, a.Add(time.Millisecond), false},
		{"reversed", &b, &a, time.Time{}, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := QueryBounds(tt.start, tt.end)
			if (err != nil) != tt.wantErr {
				t.Fatalf("QueryBounds() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !start.Equal(tt.wantStart) || !end.Equal(tt.wantEnd) {
				t.Errorf("QueryBounds() = [%v, %v), want [%v, %v)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}
