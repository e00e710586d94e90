package events

import (
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"finsight/internal/domain/report"
	"finsight/pkg/errors"
)

// Event types carried in the "type" field
const (
	TypeRunEvent        = "workflow.run"
	TypeReportPersisted = "report.persisted"
)

// EncodeRunEvent converts a run event into a protobuf Struct
func EncodeRunEvent(e *report.RunEvent) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]any{
		"type":          TypeRunEvent,
		"run_id":        e.RunID,
		"workflow_kind": string(e.Kind),
		"status":        string(e.Status),
		"step":          e.Step,
		"error_kind":    e.ErrorKind,
		"duration_ms":   float64(e.DurationMs),
		"warnings":      float64(e.Warnings),
		"occurred_at":   e.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode run event")
	}
	return s, nil
}

// DecodeRunEvent parses a serialized run event
func DecodeRunEvent(data []byte) (*report.RunEvent, error) {
	fields, err := decode(data, TypeRunEvent)
	if err != nil {
		return nil, err
	}

	occurred, err := time.Parse(time.RFC3339Nano, str(fields, "occurred_at"))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "run event occurred_at: %v", err)
	}

	return &report.RunEvent{
		RunID:      str(fields, "run_id"),
		Kind:       report.Kind(str(fields, "workflow_kind")),
		Status:     report.RunStatus(str(fields, "status")),
		Step:       str(fields, "step"),
		ErrorKind:  str(fields, "error_kind"),
		DurationMs: int64(num(fields, "duration_ms")),
		Warnings:   uint32(num(fields, "warnings")),
		OccurredAt: occurred,
	}, nil
}

// EncodeReport converts a persisted report into a protobuf Struct. The snapshot is not included.
func EncodeReport(r *report.Report) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]any{
		"type":          TypeReportPersisted,
		"run_id":        r.RunID,
		"workflow_kind": string(r.Kind),
		"date_key":      r.DateKey,
		"text":          r.Text,
		"truncated":     r.Truncated,
		"created_at":    r.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode report event")
	}
	return s, nil
}

// DecodeReport parses a serialized report.persisted event
func DecodeReport(data []byte) (*report.Report, error) {
	fields, err := decode(data, TypeReportPersisted)
	if err != nil {
		return nil, err
	}

	created, err := time.Parse(time.RFC3339Nano, str(fields, "created_at"))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "report created_at: %v", err)
	}
	truncated, _ := fields["truncated"].(bool)

	return &report.Report{
		RunID:     str(fields, "run_id"),
		Kind:      report.Kind(str(fields, "workflow_kind")),
		DateKey:   str(fields, "date_key"),
		Text:      str(fields, "text"),
		Truncated: truncated,
		CreatedAt: created,
	}, nil
}

func decode(data []byte, wantType string) (map[string]any, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unmarshal protobuf: %v", err)
	}
	fields := s.AsMap()
	if t := str(fields, "type"); t != wantType {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unexpected event type %q, want %q", t, wantType)
	}
	return fields, nil
}

func str(fields map[string]any, key string) string {
	v, _ := fields[key].(string)
	return v
}

func num(fields map[string]any, key string) float64 {
	v, _ := fields[key].(float64)
	return v
}
