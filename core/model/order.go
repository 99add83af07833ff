package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Order represents a single customer order flowing through the dispatch queue.
// Temporal and commercial fields come straight from the upload boundary and
// may be zero-valued when the source row was malformed; scoring degrades
// rather than failing on such records.
type Order struct {
	OrderNumber string `json:"order_number"`

	OrderDate        time.Time `json:"order_date"`
	ExpectedDispatch time.Time `json:"expected_dispatch"`
	DeliveryBy       time.Time `json:"delivery_by,omitempty"`

	OrderTotal float64 `json:"order_total"`

	SKU      string `json:"sku"`
	Product  string `json:"product,omitempty"`
	Category string `json:"category,omitempty"`
	Quantity int    `json:"quantity"`
	County   string `json:"county,omitempty"`

	Customer Customer `json:"customer,omitempty"`

	// Derived fields owned by the queue manager. Never hand-edited.
	DPSScore           float64      `json:"dps_score"`
	IsOverdue          bool         `json:"is_overdue"`
	Urgency            UrgencyLevel `json:"urgency_level"`
	LastDPSCalculation time.Time    `json:"last_dps_calculation,omitempty"`
}

// Customer holds contact details used only by tracking and presentation.
type Customer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// UrgencyLevel classifies an order's DPS score into operator-facing bands.
type UrgencyLevel string

const (
	UrgencyCritical UrgencyLevel = "critical"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyLow      UrgencyLevel = "low"
	UrgencyNormal   UrgencyLevel = "normal"
)

// UrgencyForScore maps a DPS score to its urgency band.
func UrgencyForScore(score float64) UrgencyLevel {
	switch {
	case score >= 80:
		return UrgencyCritical
	case score >= 60:
		return UrgencyHigh
	case score >= 40:
		return UrgencyMedium
	case score >= 20:
		return UrgencyLow
	default:
		return UrgencyNormal
	}
}

// Validate reports whether the order carries every field required for a DPS
// computation. Orders failing validation score zero; they are never rejected.
func (o Order) Validate() error {
	if o.OrderNumber == "" {
		return fmt.Errorf("order number is required")
	}
	if o.OrderDate.IsZero() {
		return fmt.Errorf("order %s: order date missing or unparseable", o.OrderNumber)
	}
	if o.ExpectedDispatch.IsZero() {
		return fmt.Errorf("order %s: expected dispatch missing or unparseable", o.OrderNumber)
	}
	return nil
}

// ProductKey returns the identity used for SKU grouping, preferring the SKU
// code over the free-text product name.
func (o Order) ProductKey() string {
	if o.SKU != "" {
		return o.SKU
	}
	return o.Product
}

// dateLayouts lists accepted timestamp formats in match order. The upload
// boundary produces ISO timestamps; legacy exports use UK day-first dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"02-01-2006",
}

// ParseDate parses a timestamp accepting ISO layouts and UK day-first dates.
// The zero time is returned for empty or unrecognised input; callers treat a
// zero time as "invalid", never as a silently wrong date.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseAmount parses a currency amount, tolerating a leading currency symbol
// and thousands separators. Unparseable input yields zero.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "£")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Normalize trims identity fields and clears negative amounts and quantities
// produced by bad input. It is applied once at ingestion so read sites do not
// have to re-check.
func (o *Order) Normalize() {
	o.OrderNumber = strings.TrimSpace(o.OrderNumber)
	o.SKU = strings.TrimSpace(o.SKU)
	o.Product = strings.TrimSpace(o.Product)
	o.County = strings.TrimSpace(o.County)
	if o.OrderTotal < 0 {
		o.OrderTotal = 0
	}
	if o.Quantity < 0 {
		o.Quantity = 0
	}
}
