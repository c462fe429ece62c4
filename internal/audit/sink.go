package audit

import "github.com/Alias1177/TraderBot/models"

// Sink receives the bot's audit trail: one record per tick and one record per
// executed order. Implementations own the storage format.
type Sink interface {
	EmitTick(rec models.TickRecord) error
	EmitOrder(res models.OrderResult) error
	Close() error
}

// MultiSink fans records out to several sinks.
type MultiSink []Sink

func (m MultiSink) EmitTick(rec models.TickRecord) error {
	for _, s := range m {
		if err := s.EmitTick(rec); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) EmitOrder(res models.OrderResult) error {
	for _, s := range m {
		if err := s.EmitOrder(res); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) Close() error {
	var firstErr error
	for _, s := range m {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
