package util

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"financials/model"
)

// ReadHistoricCSV parses a Yahoo daily-series download
// (Date,Open,High,Low,Close,Adj Close,Volume) into a historic series.
// Rows with unparsable numbers are skipped, not fatal - the download
// routinely contains "null" cells for halted days.
func ReadHistoricCSV(r io.Reader) (model.HistoricSeries, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// persisted files can carry truncated rows; a short row loses its own
	// values, never the series
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	headerMap := make(map[string]int)
	for i, name := range header {
		headerMap[name] = i
	}

	dateIdx, hasDate := headerMap["Date"]
	if !hasDate {
		return nil, fmt.Errorf("missing required column: Date")
	}

	series := make(model.HistoricSeries)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading csv record: %w", err)
		}

		tick := &model.Tick{}
		ok := false

		set := func(column string, dst **float64) {
			idx, has := headerMap[column]
			if !has || idx >= len(record) {
				return
			}
			f, err := strconv.ParseFloat(record[idx], 64)
			if err != nil {
				return
			}
			*dst = &f
			ok = true
		}

		set("Open", &tick.Open)
		set("High", &tick.High)
		set("Low", &tick.Low)
		set("Close", &tick.Close)
		set("Adj Close", &tick.AdjClose)
		set("Volume", &tick.Volume)

		if ok {
			series[record[dateIdx]] = tick
		}
	}

	return series, nil
}
