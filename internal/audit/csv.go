package audit

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/Alias1177/TraderBot/models"
)

var tickHeader = []string{"time", "tick", "outcome", "reason", "decision", "price", "ema", "rsi", "pdl"}

var orderHeader = []string{"time", "success", "order_id", "status", "symbol", "side", "quantity", "price", "error"}

// CSVSink appends tick and order records to two CSV files in one directory.
type CSVSink struct {
	mu     sync.Mutex
	ticks  *csv.Writer
	orders *csv.Writer
	files  []*os.File
}

// NewCSVSink opens (or creates) tick_log.csv and trading_log.csv under dir,
// writing headers only on fresh files.
func NewCSVSink(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating audit dir: %w", err)
	}

	sink := &CSVSink{}
	var err error
	if sink.ticks, err = sink.openWriter(filepath.Join(dir, "tick_log.csv"), tickHeader); err != nil {
		sink.Close()
		return nil, err
	}
	if sink.orders, err = sink.openWriter(filepath.Join(dir, "trading_log.csv"), orderHeader); err != nil {
		sink.Close()
		return nil, err
	}
	return sink, nil
}

func (s *CSVSink) openWriter(path string, header []string) (*csv.Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	s.files = append(s.files, f)

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return nil, fmt.Errorf("writing header to %s: %w", path, err)
		}
		w.Flush()
	}
	return w, w.Error()
}

func (s *CSVSink) EmitTick(rec models.TickRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := []string{
		rec.Time.UTC().Format(time.RFC3339),
		strconv.FormatInt(rec.Tick, 10),
		rec.Outcome,
		rec.Reason,
		string(rec.Decision),
		formatFloat(rec.Snapshot.CurrentPrice),
		formatFloat(rec.Snapshot.EMA),
		formatFloat(rec.Snapshot.RSI),
		formatFloat(rec.Snapshot.PDL),
	}
	if err := s.ticks.Write(row); err != nil {
		return err
	}
	s.ticks.Flush()
	return s.ticks.Error()
}

func (s *CSVSink) EmitOrder(res models.OrderResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := []string{
		res.ExecutedAt.UTC().Format(time.RFC3339),
		strconv.FormatBool(res.Success),
		res.OrderID,
		res.Status,
		res.Request.Symbol,
		string(res.Request.Side),
		formatFloat(res.Request.Quantity),
		formatFloat(res.Request.Price),
		res.Error,
	}
	if err := s.orders.Write(row); err != nil {
		return err
	}
	s.orders.Flush()
	return s.orders.Error()
}

func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.files = nil
	return firstErr
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
