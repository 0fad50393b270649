package log

import (
	"go.uber.org/zap"
)

// ZapAdapter writes protocol events to a zap.Logger.
// Useful for development when you want to see protocol events in console.
type ZapAdapter struct {
	logger *zap.Logger
}

// NewZapAdapter creates a new ZapAdapter that writes to the given logger.
func NewZapAdapter(logger *zap.Logger) *ZapAdapter {
	return &ZapAdapter{logger: logger.Named("protocol")}
}

// Log writes the event to the zap logger at Debug level.
func (a *ZapAdapter) Log(event Event) {
	fields := []zap.Field{
		zap.String("conn_id", event.ConnectionID),
		zap.String("direction", event.Direction.String()),
		zap.String("layer", event.Layer.String()),
		zap.String("category", event.Category.String()),
	}

	if event.EntryID != "" {
		fields = append(fields, zap.String("entry_id", event.EntryID))
	}
	if event.FlowID != "" {
		fields = append(fields, zap.String("flow_id", event.FlowID))
	}

	switch {
	case event.Frame != nil:
		fields = append(fields,
			zap.Int("frame_size", event.Frame.Size),
			zap.Bool("truncated", event.Frame.Truncated),
		)
	case event.Message != nil:
		fields = append(fields,
			zap.Uint32("msg_id", event.Message.MessageID),
			zap.String("kind", event.Message.Kind.String()),
		)
		if event.Message.Command != "" {
			fields = append(fields, zap.String("command", event.Message.Command.String()))
		}
		if event.Message.Status != nil {
			fields = append(fields, zap.String("status", event.Message.Status.String()))
		}
		if event.Message.SubscriptionID != nil {
			fields = append(fields, zap.Uint32("sub_id", *event.Message.SubscriptionID))
		}
		if event.Message.EventName != "" {
			fields = append(fields, zap.String("event", event.Message.EventName))
		}
		if event.Message.ProcessingTime != nil {
			fields = append(fields, zap.Duration("processing_time", *event.Message.ProcessingTime))
		}
	case event.StateChange != nil:
		fields = append(fields,
			zap.String("entity", event.StateChange.Entity.String()),
			zap.String("old_state", event.StateChange.OldState),
			zap.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			fields = append(fields, zap.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		fields = append(fields,
			zap.String("error_layer", event.Error.Layer.String()),
			zap.String("error_msg", event.Error.Message),
			zap.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			fields = append(fields, zap.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.Debug("protocol", fields...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*ZapAdapter)(nil)
