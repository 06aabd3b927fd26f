package service

import (
	"fmt"
	"strings"

	"financials/model"
)

// Source is one quote provider. Both operations return either a typed value
// or a human-readable error string - never an error and never a panic; the
// spreadsheet host can only render values.
type Source interface {
	GetRealtime(ticker string, datacode model.Datacode) any
	GetHistoric(ticker string, datacode model.Datacode, date string) any
}

// normalizeTicker strips all whitespace, not just the ends. Cache keys and
// provider URLs both use the normalized form.
func normalizeTicker(ticker string) string {
	return strings.Join(strings.Fields(ticker), "")
}

// returnValue selects the requested field from a tick record. Absent fields
// come back nil, matching the host's empty cell.
func returnValue(tick *model.Tick, datacode model.Datacode) any {
	if tick == nil {
		return nil
	}
	if !datacode.Valid() {
		return fmt.Sprintf("Data doesn't exist - %d", int(datacode))
	}
	return tick.Value(datacode)
}

func fptr(f float64) *float64 { return &f }

func sptr(s string) *string { return &s }

// cellPtr lifts a Yahoo raw/fmt cell into an optional float; missing cells
// stay absent instead of defaulting to zero.
func cellPtr(c model.YahooCell) *float64 {
	if v, ok := c.Float(); ok {
		return &v
	}
	return nil
}
