package service

import (
	"testing"
	"time"
)

type stubConfig struct {
	loc *time.Location
}

func (c stubConfig) GetFollowUpDefaultIntervalDays() int { return 3 }
func (c stubConfig) GetFollowUpAutoScheduling() bool     { return true }
func (c stubConfig) GetFollowUpFirstDays() int           { return 1 }
func (c stubConfig) GetFollowUpFirstStage() string       { return "greeting" }
func (c stubConfig) GetReportLocation() *time.Location   { return c.loc }

func TestResponseRate(t *testing.T) {
	tests := []struct {
		name      string
		responded int
		total     int
		want      float64
	}{
		{"zero total", 0, 0, 0},
		{"all responded", 5, 5, 100},
		{"two thirds rounds to cents", 2, 3, 66.67},
		{"one third rounds to cents", 1, 3, 33.33},
		{"none responded", 0, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := responseRate(tt.responded, tt.total); got != tt.want {
				t.Fatalf("responseRate(%d, %d) = %v, want %v", tt.responded, tt.total, got, tt.want)
			}
		})
	}
}

func TestParseDay(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	svc := New(nil, stubConfig{loc: jakarta})

	day, ok := svc.ParseDay("2025-03-10")
	if !ok {
		t.Fatal("expected valid day")
	}
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, jakarta)
	if !day.Equal(want) {
		t.Fatalf("expected %v, got %v", want, day)
	}

	if _, ok := svc.ParseDay(""); ok {
		t.Fatal("empty value must be rejected")
	}
	if _, ok := svc.ParseDay("10-03-2025"); ok {
		t.Fatal("malformed value must be rejected")
	}
}
