// Package stream relays DynamoDB Streams events to record listeners.
//
// A [Handler] decodes the old and new images of each stream record with a
// record schema and dispatches created, updated or deleted events. It is
// designed to be used as an AWS Lambda handler:
//
//	h := stream.NewHandler(schema, hooks, stream.DefaultConfig(), logger)
//	lambda.Start(h.HandleChanges)
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/tessera/internal/keyref"
	"github.com/jacentio/tessera/query"
	"github.com/jacentio/tessera/record"
)

// Stream event names.
const (
	EventInsert = "INSERT"
	EventModify = "MODIFY"
	EventRemove = "REMOVE"
)

// Config holds configuration for the Handler.
type Config struct {
	// Workers is the number of goroutines dispatching changes. Changes to the
	// same key are always dispatched in stream order by the same worker.
	// Default: 1
	// Max: 64
	Workers int
}

// DefaultConfig returns a single-worker configuration.
func DefaultConfig() Config {
	return Config{Workers: 1}
}

func (c *Config) validate() {
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Workers > 64 {
		c.Workers = 64
	}
}

// Change is a decoded stream record.
type Change struct {
	// EventID is the stream record's ID.
	EventID string

	// EventName is INSERT, MODIFY or REMOVE.
	EventName string

	// Old is the record before the change (nil if the stream has no old image).
	Old *record.Record

	// New is the record after the change (nil for REMOVE).
	New *record.Record
}

// Event returns the lifecycle event matching the change.
func (c Change) Event() (record.Event, bool) {
	switch c.EventName {
	case EventInsert:
		return record.EventCreated, true
	case EventModify:
		return record.EventUpdated, true
	case EventRemove:
		return record.EventDeleted, true
	}
	return "", false
}

// Record returns the record the event is about: the new image, or the old
// image for removals.
func (c Change) Record() *record.Record {
	if c.New != nil {
		return c.New
	}
	return c.Old
}

// Handler dispatches stream changes.
type Handler struct {
	schema     *record.Schema
	dispatcher record.Dispatcher
	config     Config
	logger     *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(schema *record.Schema, dispatcher record.Dispatcher, config Config, logger *slog.Logger) *Handler {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		schema:     schema,
		dispatcher: dispatcher,
		config:     config,
		logger:     logger,
	}
}

// HandleChanges decodes every record of event and dispatches it. The first
// failure is returned so the batch is retried.
func (h *Handler) HandleChanges(ctx context.Context, event events.DynamoDBEvent) error {
	changes := make([]Change, 0, len(event.Records))
	for _, rec := range event.Records {
		change, err := h.Decode(rec)
		if err != nil {
			h.logger.Error("failed to decode record",
				"eventID", rec.EventID,
				"error", err,
			)
			return err
		}
		changes = append(changes, change)
	}

	if h.config.Workers == 1 {
		for _, c := range changes {
			if err := h.dispatch(ctx, c); err != nil {
				return err
			}
		}
		return nil
	}

	stripes := make([][]Change, h.config.Workers)
	for _, c := range changes {
		i := keyref.Stripe(c.Record().Ref(), h.config.Workers)
		stripes[i] = append(stripes[i], c)
	}

	var wg sync.WaitGroup
	errs := make(chan error, h.config.Workers)
	for _, stripe := range stripes {
		if len(stripe) == 0 {
			continue
		}
		wg.Add(1)
		go func(stripe []Change) {
			defer wg.Done()
			for _, c := range stripe {
				if err := h.dispatch(ctx, c); err != nil {
					errs <- err
					return
				}
			}
		}(stripe)
	}
	wg.Wait()
	close(errs)

	return <-errs
}

// Decode converts a stream record into a Change.
func (h *Handler) Decode(rec events.DynamoDBEventRecord) (Change, error) {
	change := Change{EventID: rec.EventID, EventName: rec.EventName}

	if len(rec.Change.OldImage) > 0 {
		old, err := h.schema.FromRow(ConvertImage(rec.Change.OldImage))
		if err != nil {
			return Change{}, fmt.Errorf("old image: %w", err)
		}
		change.Old = old
	}
	if len(rec.Change.NewImage) > 0 {
		img, err := h.schema.FromRow(ConvertImage(rec.Change.NewImage))
		if err != nil {
			return Change{}, fmt.Errorf("new image: %w", err)
		}
		change.New = img
	}
	if change.Old == nil && change.New == nil && len(rec.Change.Keys) > 0 {
		keys, err := h.schema.FromRow(ConvertImage(rec.Change.Keys))
		if err != nil {
			return Change{}, fmt.Errorf("keys: %w", err)
		}
		change.Old = keys
	}
	if change.Record() == nil {
		return Change{}, fmt.Errorf("stream record %s has no image", rec.EventID)
	}
	return change, nil
}

func (h *Handler) dispatch(ctx context.Context, c Change) error {
	event, ok := c.Event()
	if !ok {
		h.logger.Debug("skipping stream record", "eventID", c.EventID, "eventName", c.EventName)
		return nil
	}
	if h.dispatcher == nil {
		return nil
	}
	if err := h.dispatcher.Dispatch(ctx, event, c.Record()); err != nil {
		h.logger.Error("failed to dispatch change",
			"eventID", c.EventID,
			"event", string(event),
			"record", c.Record().Ref(),
			"error", err,
		)
		return fmt.Errorf("dispatch %s: %w", c.EventID, err)
	}
	return nil
}

// ConvertImage converts a stream image to a stored row.
func ConvertImage(image map[string]events.DynamoDBAttributeValue) query.Row {
	row := make(query.Row, len(image))
	for k, v := range image {
		if av := ConvertAttribute(v); av != nil {
			row[k] = av
		}
	}
	return row
}

// ConvertAttribute converts a single stream attribute. Unknown types yield nil.
func ConvertAttribute(v events.DynamoDBAttributeValue) types.AttributeValue {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}
	case events.DataTypeNull:
		return &types.AttributeValueMemberNULL{Value: true}
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: v.StringSet()}
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: v.NumberSet()}
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: v.BinarySet()}
	case events.DataTypeList:
		list := make([]types.AttributeValue, 0, len(v.List()))
		for _, item := range v.List() {
			if av := ConvertAttribute(item); av != nil {
				list = append(list, av)
			}
		}
		return &types.AttributeValueMemberL{Value: list}
	case events.DataTypeMap:
		return &types.AttributeValueMemberM{Value: ConvertImage(v.Map())}
	}
	return nil
}
