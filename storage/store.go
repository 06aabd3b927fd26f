// Package storage persists per-ticker artifacts under the user cache
// directory: raw response snapshots for debugging, and the historic OHLCV
// CSV that doubles as the durable cache read back on the next start.
package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"financials/model"
	"financials/util"
)

type Store struct {
	baseDir string
}

func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) path(source, ticker, ext string) string {
	// tickers like BRK-B or EURGBP=X are fine as-is; strip anything that
	// could escape the cache dir
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(ticker)
	return filepath.Join(s.baseDir, source+"-"+safe+ext)
}

// SaveSnapshot writes a raw payload next to the historic data, best effort.
// A snapshot that fails to write never fails the quote call.
func (s *Store) SaveSnapshot(source, ticker, ext, url, text string) {
	fn := s.path(source, ticker, ext)
	body := "<!-- '" + url + "' -->\r\n\r\n" + text
	if err := os.WriteFile(fn, []byte(body), 0o644); err != nil {
		log.Warn().Err(err).Str("file", fn).Msg("could not write snapshot")
	}
}

// SaveHistoricCSV persists a freshly downloaded daily series.
func (s *Store) SaveHistoricCSV(source, ticker, text string) error {
	return os.WriteFile(s.path(source, ticker, ".csv"), []byte(text), 0o644)
}

// LoadHistoricSeries reads the persisted series back. A missing file is not
// an error, it just means nothing was cached yet.
func (s *Store) LoadHistoricSeries(source, ticker string) (model.HistoricSeries, error) {
	f, err := os.Open(s.path(source, ticker, ".csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	return util.ReadHistoricCSV(f)
}
