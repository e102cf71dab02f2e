package record

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jacentio/tessera/value"
)

// Cast declares how an attribute is interpreted.
type Cast string

const (
	CastNone       Cast = ""
	CastInt        Cast = "int"
	CastFloat      Cast = "float"
	CastString     Cast = "string"
	CastBool       Cast = "bool"
	CastDate       Cast = "date"
	CastDateTime   Cast = "datetime"
	CastTimestamp  Cast = "timestamp"
	CastTime       Cast = "time"
	CastJSON       Cast = "json"
	CastCollection Cast = "collection"
)

// kind returns the stored wrapper kind for the cast.
func (c Cast) kind() value.Kind {
	switch c {
	case CastDate:
		return value.KindDate
	case CastDateTime, CastTimestamp:
		return value.KindTimestamp
	case CastTime:
		return value.KindTime
	}
	return value.KindOther
}

func (c Cast) isDate() bool {
	return c == CastDate || c == CastDateTime || c == CastTimestamp
}

// Timestamp columns written when SchemaConfig.Timestamps is set.
const (
	CreatedAtColumn = "created_at"
	UpdatedAtColumn = "updated_at"
)

// SchemaConfig describes a record type.
type SchemaConfig struct {
	// Table is the table holding the records.
	Table string

	// PartitionKey lists the partition key columns. At least one is required.
	PartitionKey []string

	// ClusteringKey lists the clustering (sort) key columns.
	ClusteringKey []string

	// PrimaryKey optionally names the identifier column. Updates address it by
	// its original value.
	PrimaryKey string

	// Casts maps columns to their cast.
	Casts map[string]Cast

	// TimeFormat is the Go layout used to render time-of-day values.
	// Default: "15:04:05"
	TimeFormat string

	// Timestamps stamps created_at and updated_at on insert and update.
	Timestamps bool

	// Dispatcher receives lifecycle events. Nil disables events.
	Dispatcher Dispatcher

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Schema is a validated record type. Key columns never change after creation.
type Schema struct {
	table      string
	partition  []string
	clustering []string
	keyColumns []string
	primaryKey string
	casts      map[string]Cast
	timeFormat string
	timestamps bool
	logger     *slog.Logger

	mu         sync.RWMutex
	dispatcher Dispatcher

	// replaceMu serializes the replace protocol, which silences the
	// schema-wide dispatcher.
	replaceMu sync.Mutex
}

// NewSchema validates cfg and creates a Schema.
func NewSchema(cfg SchemaConfig) (*Schema, error) {
	if cfg.Table == "" {
		return nil, fmt.Errorf("%w: no table", ErrInvalidSchema)
	}

	keys := make([]string, 0, len(cfg.PartitionKey)+len(cfg.ClusteringKey))
	keys = append(keys, cfg.PartitionKey...)
	keys = append(keys, cfg.ClusteringKey...)
	if len(keys) == 0 {
		return nil, ErrNoKeyColumns
	}
	if len(cfg.PartitionKey) == 0 {
		return nil, fmt.Errorf("%w: no partition key", ErrNoKeyColumns)
	}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k == "" || seen[k] {
			return nil, fmt.Errorf("%w: key column %q", ErrInvalidSchema, k)
		}
		seen[k] = true
	}

	casts := make(map[string]Cast, len(cfg.Casts))
	for k, v := range cfg.Casts {
		casts[k] = v
	}

	if cfg.TimeFormat == "" {
		cfg.TimeFormat = value.DefaultTimeFormat
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Schema{
		table:      cfg.Table,
		partition:  append([]string(nil), cfg.PartitionKey...),
		clustering: append([]string(nil), cfg.ClusteringKey...),
		keyColumns: keys,
		primaryKey: cfg.PrimaryKey,
		casts:      casts,
		timeFormat: cfg.TimeFormat,
		timestamps: cfg.Timestamps,
		logger:     cfg.Logger,
		dispatcher: cfg.Dispatcher,
	}, nil
}

// Table returns the table holding the records.
func (s *Schema) Table() string { return s.table }

// KeyColumns returns the partition columns followed by the clustering columns.
func (s *Schema) KeyColumns() []string { return append([]string(nil), s.keyColumns...) }

// PartitionKey returns the partition key columns.
func (s *Schema) PartitionKey() []string { return append([]string(nil), s.partition...) }

// ClusteringKey returns the clustering key columns.
func (s *Schema) ClusteringKey() []string { return append([]string(nil), s.clustering...) }

// PrimaryKey returns the identifier column, or "".
func (s *Schema) PrimaryKey() string { return s.primaryKey }

// TimeFormat returns the layout used for time-of-day values.
func (s *Schema) TimeFormat() string { return s.timeFormat }

// Cast returns the cast declared for column, or CastNone.
func (s *Schema) Cast(column string) Cast { return s.casts[column] }

// IsKeyColumn reports whether column is part of the composite key.
func (s *Schema) IsKeyColumn(column string) bool {
	for _, k := range s.keyColumns {
		if k == column {
			return true
		}
	}
	return false
}

// Dispatcher returns the current dispatcher, or nil.
func (s *Schema) Dispatcher() Dispatcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dispatcher
}

// SetDispatcher replaces the dispatcher. Nil disables events.
func (s *Schema) SetDispatcher(d Dispatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatcher = d
}

// withoutEvents runs fn with the dispatcher detached and restores it when fn
// returns or panics.
func (s *Schema) withoutEvents(fn func() error) error {
	s.mu.Lock()
	prev := s.dispatcher
	s.dispatcher = nil
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.dispatcher = prev
		s.mu.Unlock()
	}()

	return fn()
}

// halt dispatches a cancelable event. A listener error cancels.
func (s *Schema) halt(ctx context.Context, event Event, r *Record) error {
	d := s.Dispatcher()
	if d == nil {
		return nil
	}
	if err := d.Dispatch(ctx, event, r); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCanceled, event, err)
	}
	return nil
}

// notify dispatches an event whose listeners cannot cancel. Errors are logged.
func (s *Schema) notify(ctx context.Context, event Event, r *Record) {
	d := s.Dispatcher()
	if d == nil {
		return
	}
	if err := d.Dispatch(ctx, event, r); err != nil {
		s.logger.Warn("listener failed",
			"event", string(event),
			"record", r.Ref(),
			"error", err,
		)
	}
}
