package processors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"catalogsync/internal/apperror"
	"catalogsync/internal/logger"
	"catalogsync/internal/metrics"
	"catalogsync/internal/models"
)

// Ingestor resolves an inventory event and schedules its product.
type Ingestor interface {
	Ingest(ctx context.Context, event models.InventoryEvent) error
}

// ErrInvalidEvent marks a message that can never be processed.
var ErrInvalidEvent = errors.New("invalid inventory event")

type EventProcessor struct {
	ingestor Ingestor
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

func NewEventProcessor(ingestor Ingestor, metrics *metrics.Metrics, logger *logger.Logger) *EventProcessor {
	return &EventProcessor{
		ingestor: ingestor,
		metrics:  metrics,
		logger:   logger,
	}
}

// Process handles one inventory_levels/update payload. Events that do not
// resolve to a product are dropped without error.
func (ep *EventProcessor) Process(ctx context.Context, payload []byte) error {
	var event models.InventoryEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if event.InventoryItemID == "" {
		return fmt.Errorf("%w: missing inventory_item_id", ErrInvalidEvent)
	}

	ep.metrics.EventReceived("kafka")
	ep.logger.Debug("Processing inventory event for item %s", event.InventoryItemID)

	if err := ep.ingestor.Ingest(ctx, event); err != nil {
		if errors.Is(err, apperror.ErrResolutionMiss) {
			return nil
		}
		return err
	}
	return nil
}
