// Package csvload reads order CSV exports into model records. It is a
// boundary adapter: malformed rows degrade to partial records or are skipped
// with a warning, and the core never requires pre-validated input.
package csvload

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/parcelops/dispatchd/core/logger"
	"github.com/parcelops/dispatchd/core/model"
)

// Report summarises one load.
type Report struct {
	Rows    int
	Loaded  int
	Skipped int
}

// Loader parses order CSV files.
type Loader struct {
	log logger.Logger
}

// New creates a Loader.
func New(log logger.Logger) *Loader {
	return &Loader{log: log}
}

// LoadFile reads the CSV file at path.
func (l *Loader) LoadFile(path string) ([]model.Order, Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Report{}, err
	}
	defer f.Close()
	return l.Load(f)
}

// Load reads header-mapped order rows from r. Rows without an order number
// are skipped; other malformed fields degrade to zero values and are left to
// the scorer's data-quality handling.
func (l *Loader) Load(r io.Reader) ([]model.Order, Report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, Report{}, fmt.Errorf("csvload: read header: %w", err)
	}
	cols := columnIndex(header)
	if _, ok := cols["ordernumber"]; !ok {
		return nil, Report{}, fmt.Errorf("csvload: no order number column in header %v", header)
	}

	var (
		orders []model.Order
		rep    Report
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rep.Rows++
			rep.Skipped++
			l.log.Warnf("csvload: row %d unreadable: %v", rep.Rows, err)
			continue
		}
		rep.Rows++
		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		o := model.Order{
			OrderNumber:      field("ordernumber"),
			OrderDate:        model.ParseDate(field("orderdate")),
			ExpectedDispatch: model.ParseDate(field("expecteddispatch")),
			DeliveryBy:       model.ParseDate(field("deliveryby")),
			OrderTotal:       model.ParseAmount(field("ordertotal")),
			SKU:              field("sku"),
			Product:          field("product"),
			Category:         field("category"),
			County:           field("county"),
			Customer: model.Customer{
				Name:  field("customer"),
				Email: field("email"),
				Phone: field("phone"),
			},
		}
		if qty := field("quantity"); qty != "" {
			if n, err := strconv.Atoi(qty); err == nil {
				o.Quantity = n
			}
		}
		o.Normalize()
		if o.OrderNumber == "" {
			rep.Skipped++
			l.log.Warnf("csvload: row %d has no order number; skipped", rep.Rows)
			continue
		}
		orders = append(orders, o)
		rep.Loaded++
	}
	l.log.Infof("csvload: %d rows, %d loaded, %d skipped", rep.Rows, rep.Loaded, rep.Skipped)
	return orders, rep, nil
}

// columnIndex maps canonical column keys to positions. Header names are
// matched case-insensitively with spaces, underscores and dashes removed, so
// "Order Number", "order_number" and "OrderNumber" all resolve.
func columnIndex(header []string) map[string]int {
	canon := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		s = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
		return s
	}
	aliases := map[string]string{
		"order":                "ordernumber",
		"orderno":              "ordernumber",
		"orderid":              "ordernumber",
		"date":                 "orderdate",
		"dispatchby":           "expecteddispatch",
		"expecteddispatchdate": "expecteddispatch",
		"deliverydate":         "deliveryby",
		"total":                "ordertotal",
		"value":                "ordertotal",
		"amount":               "ordertotal",
		"productname":          "product",
		"qty":                  "quantity",
		"region":               "county",
		"customername":         "customer",
	}
	out := make(map[string]int, len(header))
	for i, h := range header {
		key := canon(h)
		if a, ok := aliases[key]; ok {
			key = a
		}
		if _, exists := out[key]; !exists {
			out[key] = i
		}
	}
	return out
}
