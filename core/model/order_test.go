package model

import (
	"testing"
	"time"
)

func TestParseDate_Layouts(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-10T09:30:00Z", time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)},
		{"2026-03-10T09:30:00", time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)},
		{"2026-03-10 09:30:00", time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)},
		{"2026-03-10", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"10/03/2026 09:30:00", time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)},
		{"10/03/2026 09:30", time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)},
		{"10/03/2026", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"10-03-2026", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)},
		{" 2026-03-10 ", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		got := ParseDate(c.in)
		if !got.Equal(c.want) {
			t.Fatalf("ParseDate(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "next tuesday", "31/02/2026garbage"} {
		if got := ParseDate(in); !got.IsZero() {
			t.Fatalf("ParseDate(%q) = %v, want zero time", in, got)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"£1,234.56", 1234.56},
		{"49.99", 49.99},
		{"£0.01", 0.01},
		{"", 0},
		{"free", 0},
		{" £10 ", 10},
	}
	for _, c := range cases {
		if got := ParseAmount(c.in); got != c.want {
			t.Fatalf("ParseAmount(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestOrderValidate(t *testing.T) {
	now := time.Now()
	ok := Order{OrderNumber: "ORD-1", OrderDate: now, ExpectedDispatch: now}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid order rejected: %v", err)
	}
	bad := []Order{
		{OrderDate: now, ExpectedDispatch: now},
		{OrderNumber: "ORD-1", ExpectedDispatch: now},
		{OrderNumber: "ORD-1", OrderDate: now},
	}
	for i, o := range bad {
		if err := o.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestOrderNormalize(t *testing.T) {
	o := Order{OrderNumber: " ORD-1 ", SKU: " WID-1 ", County: " Kent ", OrderTotal: -5, Quantity: -1}
	o.Normalize()
	if o.OrderNumber != "ORD-1" || o.SKU != "WID-1" || o.County != "Kent" {
		t.Fatalf("fields not trimmed: %#v", o)
	}
	if o.OrderTotal != 0 || o.Quantity != 0 {
		t.Fatalf("negatives not cleared: %#v", o)
	}
}

func TestProductKey(t *testing.T) {
	if got := (Order{SKU: "WID-1", Product: "Widget"}).ProductKey(); got != "WID-1" {
		t.Fatalf("got %q", got)
	}
	if got := (Order{Product: "Widget"}).ProductKey(); got != "Widget" {
		t.Fatalf("got %q", got)
	}
}

func TestUrgencyForScore(t *testing.T) {
	cases := []struct {
		score float64
		want  UrgencyLevel
	}{
		{95, UrgencyCritical},
		{80, UrgencyCritical},
		{79.99, UrgencyHigh},
		{60, UrgencyHigh},
		{45, UrgencyMedium},
		{25, UrgencyLow},
		{10, UrgencyNormal},
		{0, UrgencyNormal},
	}
	for _, c := range cases {
		if got := UrgencyForScore(c.score); got != c.want {
			t.Fatalf("score %v: got %s want %s", c.score, got, c.want)
		}
	}
}
