package service

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"financials/customerrors"
	"financials/model"
	"financials/util"
)

// FinancialsService is the host-facing dispatcher: it validates the loosely
// typed arguments the spreadsheet host passes, resolves the datacode and
// source, routes to the right adapter, and flattens everything - including
// panics - into scalar results the host can render in a cell.
type FinancialsService struct {
	sources map[string]Source
}

func NewFinancialsService(yahoo, google, ft, coinbase Source) *FinancialsService {
	return &FinancialsService{
		sources: map[string]Source{
			"YAHOO":    yahoo,
			"GOOGLE":   google,
			"FT":       ft,
			"COINBASE": coinbase,
		},
	}
}

func (s *FinancialsService) GetRealtime(ticker, datacode, source any) (result any) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("getRealtime panic")
			result = fmt.Sprint(r)
		}
	}()

	for _, check := range []struct {
		name string
		v    any
	}{{"ticker", ticker}, {"datacode", datacode}, {"source", source}} {
		if isCellRange(check.v) {
			return customerrors.RangeError{Argument: check.name}.Error()
		}
	}

	tickerStr := strings.TrimSpace(asString(ticker))
	if tickerStr == "" {
		return customerrors.ErrTickerEmpty.Error()
	}

	if isEmpty(datacode) {
		return customerrors.ErrDatacodeEmpty.Error()
	}

	dc, err := model.ParseDatacode(datacode)
	if err != nil {
		return err.Error()
	}

	adapter, ok := s.sources[strings.ToUpper(asString(source))]
	if !ok {
		return fmt.Sprintf("Source '%s' not supported", asString(source))
	}

	return coerceFloat(adapter.GetRealtime(tickerStr, dc))
}

func (s *FinancialsService) GetHistoric(ticker, datacode, date, source any) (result any) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("getHistoric panic")
			result = fmt.Sprint(r)
		}
	}()

	for _, check := range []struct {
		name string
		v    any
	}{{"ticker", ticker}, {"datacode", datacode}, {"date", date}, {"source", source}} {
		if isCellRange(check.v) {
			return customerrors.RangeError{Argument: check.name}.Error()
		}
	}

	tickerStr := strings.TrimSpace(asString(ticker))
	if tickerStr == "" {
		return customerrors.ErrTickerEmpty.Error()
	}

	if isEmpty(datacode) {
		return customerrors.ErrDatacodeEmpty.Error()
	}

	if isEmpty(date) {
		return customerrors.ErrDateEmpty.Error()
	}

	dc, err := model.ParseDatacode(datacode)
	if err != nil {
		return err.Error()
	}

	dateStr, derr := normalizeDate(date)
	if derr != nil {
		return derr.Error()
	}

	adapter, ok := s.sources[strings.ToUpper(asString(source))]
	if !ok {
		return fmt.Sprintf("Source '%s' not supported", asString(source))
	}

	return coerceFloat(adapter.GetHistoric(tickerStr, dc, dateStr))
}

// normalizeDate accepts an ISO-ish date string or a spreadsheet serial
// number (days since 1899-12-30) and yields the ISO date the historic caches
// are keyed by.
func normalizeDate(date any) (string, error) {
	switch d := date.(type) {
	case float64:
		return util.FromSerial(d).Format(util.ISOLayout), nil
	case int:
		return util.FromSerial(float64(d)).Format(util.ISOLayout), nil
	case int64:
		return util.FromSerial(float64(d)).Format(util.ISOLayout), nil
	case string:
		t, err := util.ParseDate(d)
		if err != nil {
			return "", fmt.Errorf("Date format not supported: '%s'", d)
		}
		return t.Format(util.ISOLayout), nil
	default:
		return "", fmt.Errorf("Date type not supported: '%v'", date)
	}
}

// isCellRange reports whether the host handed a multi-cell range through
// where a scalar is required. Ranges arrive as (nested) slices.
func isCellRange(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	return strings.TrimSpace(asString(v)) == ""
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// coerceFloat gives the host one numeric type for numeric-looking results:
// adapters may return "167.19" or 167.19 and the caller sees a float either
// way.
func coerceFloat(v any) any {
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return v
}
