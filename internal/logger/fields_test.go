package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestProviderFields(t *testing.T) {
	t.Parallel()

	fields := ProviderFields("  gemini  ", "")
	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if fields[0].Key != FieldProvider || fields[0].String != "gemini" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}

	if empty := ProviderFields(" ", ""); len(empty) != 0 {
		t.Fatalf("expected no fields, got %d", len(empty))
	}
}

func TestWithProvider(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.InfoLevel)
	WithProvider(zap.New(core), "gemini", "text-embedding-004").Info("embedding")

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldProvider] != "gemini" || ctx[FieldModel] != "text-embedding-004" {
		t.Fatalf("unexpected provider fields: %v", ctx)
	}

	// A nil logger must still be usable.
	WithProvider(nil, "gemini", "m").Info("dropped")
}

func TestStageFields(t *testing.T) {
	t.Parallel()

	fields := StageFields("  SCORE_AFFINITY ")
	if len(fields) != 1 || fields[0].Key != FieldStage || fields[0].String != "SCORE_AFFINITY" {
		t.Fatalf("unexpected stage fields: %+v", fields)
	}

	if empty := StageFields(""); len(empty) != 0 {
		t.Fatalf("expected no fields for empty stage, got %d", len(empty))
	}
}

func TestWithSession(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	WithSession(base, "abc-123").Info("loaded")
	WithSession(base, "").Info("no session")

	entries := observed.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if got := entries[0].ContextMap()[FieldSession]; got != "abc-123" {
		t.Fatalf("expected session field abc-123, got %v", got)
	}
	if _, ok := entries[1].ContextMap()[FieldSession]; ok {
		t.Fatalf("blank session id must not be logged")
	}
}

func TestBatchFields(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.InfoLevel)
	zap.New(core).Info("batch", BatchFields(2, 3, 5)...)

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldBatch] != int64(2) || ctx[FieldBatches] != int64(3) || ctx[FieldBatchSize] != int64(5) {
		t.Fatalf("unexpected batch fields: %v", ctx)
	}
}
