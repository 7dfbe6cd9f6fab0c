package kstream

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"storefront-core/internal/model"
)

// ConsumeCatalogChanges reads catalog.changed until ctx is done, handing
// each decoded event to handle. Undecodable messages and handler errors are
// logged and skipped. It returns nil on cancellation.
func ConsumeCatalogChanges(ctx context.Context, r MessageReader, log *zap.Logger, handle func(context.Context, model.CatalogChanged) error) error {
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("consuming catalog changes", zap.String("topic", TopicCatalogChanged))

	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var evt model.CatalogChanged
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			log.Warn("catalog change: failed to unmarshal", zap.Int64("offset", msg.Offset), zap.Error(err))
			continue
		}
		if err := handle(ctx, evt); err != nil {
			log.Warn("catalog change: handler failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}
