package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

func testSeries(n int) Series {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]Bar, n)
	for i := range bars {
		bars[i] = Bar{
			Time:  base.Add(time.Duration(i) * time.Hour),
			Close: 100 + float64(i),
			High:  101 + float64(i),
			Low:   99 + float64(i),
		}
	}
	return Series{Symbol: "TEST", Interval: "1h", Bars: bars}
}

func TestBar_Value(t *testing.T) {
	b := Bar{
		Close:  10,
		Volume: 500,
		Indicators: map[string]float64{
			ColRSI: 55,
			ColATR: math.NaN(),
		},
	}

	tests := []struct {
		name   string
		want   float64
		wantOK bool
	}{
		{FieldClose, 10, true},
		{FieldVolume, 500, true},
		{ColRSI, 55, true},
		{ColATR, 0, false},
		{ColVWAP, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := b.Value(tt.name)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Value(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestBar_Values(t *testing.T) {
	b := Bar{Close: 10, Indicators: map[string]float64{ColRSI: 40}}
	if _, ok := b.Values(FieldClose, ColRSI); !ok {
		t.Error("expected all values available")
	}
	if _, ok := b.Values(FieldClose, ColMACD); ok {
		t.Error("expected missing MACD to fail")
	}
}

func TestSeries_Ahead(t *testing.T) {
	s := testSeries(5)

	bar, ok := s.Ahead(1, 3)
	if !ok || bar.Close != 104 {
		t.Errorf("Ahead(1, 3) = %v, %v", bar.Close, ok)
	}
	if _, ok := s.Ahead(2, 3); ok {
		t.Error("expected no bar past the end")
	}
}

func TestSeries_Index(t *testing.T) {
	s := testSeries(5)
	if got := s.Index(s.Bars[3].Time); got != 3 {
		t.Errorf("Index = %d, want 3", got)
	}
	if got := s.Index(s.Bars[3].Time.Add(time.Minute)); got != -1 {
		t.Errorf("Index of unknown time = %d, want -1", got)
	}
}

func TestSeries_Validate(t *testing.T) {
	if err := (Series{}).Validate(); !errors.Is(err, ErrNoData) {
		t.Errorf("empty series error = %v", err)
	}

	s := testSeries(3)
	if err := s.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	s.Bars[2].Time = s.Bars[1].Time
	err := s.Validate()
	var orderErr *OrderError
	if !errors.As(err, &orderErr) || orderErr.Index != 2 {
		t.Errorf("expected OrderError at index 2, got %v", err)
	}
}

func TestSeries_Column(t *testing.T) {
	s := testSeries(2)
	s.Bars[1].Indicators = map[string]float64{ColRSI: 30}

	col := s.Column(ColRSI)
	if !math.IsNaN(col[0]) || col[1] != 30 {
		t.Errorf("Column = %v", col)
	}
	if closes := s.Closes(); closes[1] != 101 {
		t.Errorf("Closes = %v", closes)
	}
}

func TestIntervalMinutes(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1m", 1, false},
		{"15m", 15, false},
		{"1h", 60, false},
		{"4H", 240, false},
		{"1d", 1440, false},
		{"1wk", 10080, false},
		{"1mo", 43200, false},
		{"", 0, true},
		{"abc", 0, true},
		{"0m", 0, true},
		{"5y", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := IntervalMinutes(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("IntervalMinutes(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("IntervalMinutes(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
