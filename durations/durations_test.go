package durations

import (
	"testing"
	"time"
)

func TestParse_CompactUnits(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"1d5m", 24*time.Hour + 5*time.Minute},
		{"90s", 90 * time.Second},
		{"2h", 2 * time.Hour},
		{"1.5h", 90 * time.Minute},
		{"5 hours, 2.5 seconds", 5*time.Hour + 2500*time.Millisecond},
		{"3 days", 72 * time.Hour},
		{"-10m", -10 * time.Minute},
		{"1 day, 2 hours, 3 minutes, 4 seconds", 26*time.Hour + 3*time.Minute + 4*time.Second},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParse_ClockForm(t *testing.T) {
	got, err := Parse("1:02:03")
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Hour + 2*time.Minute + 3*time.Second; got != want {
		t.Errorf("got %v, want %v", got, want)
	}

	got, err = Parse("2 days, 03:04:05")
	if err != nil {
		t.Fatal(err)
	}
	if want := 51*time.Hour + 4*time.Minute + 5*time.Second; got != want {
		t.Errorf("got %v, want %v", got, want)
	}

	got, err = Parse("0:00:01.5")
	if err != nil {
		t.Fatal(err)
	}
	if want := 1500 * time.Millisecond; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, in := range []string{"", "   ", "bogus", "5x", "1:2:3:4"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) should fail", in)
		}
	}
}

func TestParseDate_Relative(t *testing.T) {
	now := time.Date(2020, time.March, 15, 13, 45, 0, 0, time.UTC)

	got, err := ParseDate("today", now)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2020, time.March, 15, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("today = %v, want %v", got, want)
	}

	got, err = ParseDate("yesterday", now)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2020, time.March, 14, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("yesterday = %v, want %v", got, want)
	}

	got, err = ParseDate("10 days ago", now)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2020, time.March, 5, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("10 days ago = %v, want %v", got, want)
	}

	got, err = ParseDate("4 months ago", now)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2019, time.November, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("4 months ago = %v, want %v", got, want)
	}
}

func TestParseDate_ISO(t *testing.T) {
	now := time.Now()
	got, err := ParseDate("2019-07-04", now)
	if err != nil {
		t.Fatal(err)
	}
	if got.Year() != 2019 || got.Month() != time.July || got.Day() != 4 {
		t.Errorf("got %v", got)
	}
	if _, err := ParseDate("2019-13-04", now); err == nil {
		t.Error("month 13 should fail")
	}
	if _, err := ParseDate("next tuesday", now); err == nil {
		t.Error("unknown phrase should fail")
	}
}

func TestMonthsAgo_YearWrap(t *testing.T) {
	base := time.Date(2020, time.January, 20, 0, 0, 0, 0, time.UTC)
	got := MonthsAgo(base, 2)
	if want := time.Date(2019, time.November, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	got = MonthsAgo(base, -12)
	if want := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
