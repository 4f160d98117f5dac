package outcome

import (
	"math"
	"testing"
)

func TestNewHistoryFrequencies(t *testing.T) {
	h := NewHistory([]Symbol{Red, Blue, Blue, Orange, Red, Orange, Blue, Red, Blue, Orange})

	if h.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", h.Len())
	}

	sum := 0.0
	for _, f := range h.Freq {
		sum += f
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("frequencies sum to %v, want 1.0", sum)
	}
	if h.Freq[Blue] != 0.4 {
		t.Errorf("Freq[Blue] = %v, want 0.4", h.Freq[Blue])
	}
}

func TestNewHistoryWindowCap(t *testing.T) {
	in := make([]Symbol, 15)
	for i := range in {
		in[i] = Blue
	}
	in[0] = Red // outside the window once trimmed

	h := NewHistory(in)
	if h.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", h.Len())
	}
	if h.Freq[Red] != 0 {
		t.Errorf("trimmed symbol still counted: Freq[Red] = %v", h.Freq[Red])
	}
}

func TestTrendTieBreak(t *testing.T) {
	tests := []struct {
		name string
		last []Symbol
		want Symbol
	}{
		{
			name: "clear majority",
			last: []Symbol{Blue, Blue, Blue, Red, Orange},
			want: Blue,
		},
		{
			name: "red wins three-way tie",
			last: []Symbol{Red, Blue, Orange, Red, Blue, Orange},
			want: Red,
		},
		{
			name: "blue wins tie against orange",
			last: []Symbol{Blue, Orange, Blue, Orange, Red},
			want: Blue,
		},
		{
			name: "empty window",
			last: nil,
			want: Red,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewHistory(tt.last).Trend; got != tt.want {
				t.Errorf("Trend = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStreak(t *testing.T) {
	tests := []struct {
		name   string
		last   []Symbol
		want   Symbol
		wantOK bool
	}{
		{"three equal at tail", []Symbol{Orange, Blue, Blue, Blue}, Blue, true},
		{"broken streak", []Symbol{Blue, Blue, Red}, "", false},
		{"too short", []Symbol{Blue, Blue}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NewHistory(tt.last).Streak()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Streak() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAbsent(t *testing.T) {
	tests := []struct {
		name   string
		last   []Symbol
		want   Symbol
		wantOK bool
	}{
		{"orange missing", []Symbol{Red, Blue, Red, Blue, Red}, Orange, true},
		{"red missing", []Symbol{Blue, Orange, Blue, Orange, Blue}, Red, true},
		{"all present", []Symbol{Red, Blue, Orange, Red, Blue}, "", false},
		{"window too short", []Symbol{Red, Red, Red, Red}, "", false},
		{
			// Two symbols missing in the trailing five: the priority
			// order decides which one is reported.
			name:   "priority order on double absence",
			last:   []Symbol{Orange, Orange, Orange, Orange, Orange},
			want:   Red,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NewHistory(tt.last).Absent()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Absent() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
