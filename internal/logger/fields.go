package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured field keys shared by the pipelines.
const (
	FieldProvider  = "ai_provider"
	FieldModel     = "ai_model"
	FieldStage     = "stage"
	FieldSession   = "session_id"
	FieldBatch     = "batch"
	FieldBatches   = "batches"
	FieldBatchSize = "batch_size"
)

// nonEmpty turns key/value pairs into string fields. Pairs with a blank key
// or value are dropped and both sides are trimmed.
func nonEmpty(pairs ...string) []zap.Field {
	fields := make([]zap.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key := strings.TrimSpace(pairs[i])
		value := strings.TrimSpace(pairs[i+1])
		if key == "" || value == "" {
			continue
		}
		fields = append(fields, zap.String(key, value))
	}
	return fields
}

// with attaches fields to logger. A nil logger becomes a no-op logger.
func with(logger *zap.Logger, fields []zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// ProviderFields describe the remote model behind a call.
func ProviderFields(provider, model string) []zap.Field {
	return nonEmpty(FieldProvider, provider, FieldModel, model)
}

// WithProvider attaches the provider and model to logger.
func WithProvider(logger *zap.Logger, provider, model string) *zap.Logger {
	return with(logger, ProviderFields(provider, model))
}

// StageFields describe a pipeline stage transition.
func StageFields(stage string) []zap.Field {
	return nonEmpty(FieldStage, stage)
}

// WithSession attaches a feedback session id to logger.
func WithSession(logger *zap.Logger, sessionID string) *zap.Logger {
	return with(logger, nonEmpty(FieldSession, sessionID))
}

// BatchFields describe one batch of a batched evaluation. index is 1-based.
func BatchFields(index, total, size int) []zap.Field {
	return []zap.Field{
		zap.Int(FieldBatch, index),
		zap.Int(FieldBatches, total),
		zap.Int(FieldBatchSize, size),
	}
}
