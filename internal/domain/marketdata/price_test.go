package marketdata

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(offset int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestSeriesValidate(t *testing.T) {
	tests := []struct {
		name    string
		series  Series
		wantErr bool
	}{
		{
			name: "valid ascending",
			series: Series{
				{Date: day(0), Close: decimal.NewFromFloat(100)},
				{Date: day(1), Close: decimal.NewFromFloat(101.5)},
				{Date: day(2), Close: decimal.NewFromFloat(99.8)},
			},
		},
		{
			name:    "empty",
			series:  Series{},
			wantErr: true,
		},
		{
			name: "duplicate date",
			series: Series{
				{Date: day(0), Close: decimal.NewFromFloat(100)},
				{Date: day(0), Close: decimal.NewFromFloat(101)},
			},
			wantErr: true,
		},
		{
			name: "descending order",
			series: Series{
				{Date: day(2), Close: decimal.NewFromFloat(100)},
				{Date: day(1), Close: decimal.NewFromFloat(101)},
			},
			wantErr: true,
		},
		{
			name: "negative close",
			series: Series{
				{Date: day(0), Close: decimal.NewFromFloat(-1)},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.series.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSeriesCloses(t *testing.T) {
	s := Series{
		{Date: day(0), Close: decimal.NewFromFloat(100.25)},
		{Date: day(1), Close: decimal.NewFromFloat(101)},
	}
	closes := s.Closes()
	if len(closes) != 2 {
		t.Fatalf("len = %d, want 2", len(closes))
	}
	if closes[0] != 100.25 || closes[1] != 101 {
		t.Errorf("closes = %v", closes)
	}
}

func TestSeriesLatest(t *testing.T) {
	if _, ok := (Series{}).Latest(); ok {
		t.Error("empty series should report ok=false")
	}
	s := Series{
		{Date: day(0), Close: decimal.NewFromFloat(100)},
		{Date: day(1), Close: decimal.NewFromFloat(102)},
	}
	last, ok := s.Latest()
	if !ok || !last.Date.Equal(day(1)) {
		t.Errorf("Latest() = %v ok=%v", last, ok)
	}
}
