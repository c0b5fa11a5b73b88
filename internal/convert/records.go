// Package convert maps domain values to and from the protobuf well-known
// messages carried by the intake gRPC service.
//
// A record is a Struct:
//
//	{"id": string, "fields": {name: string}, "equipment": [{name: string}],
//	 "createdAt": {"seconds": n, "nanos": n}, "editedAt": {...}, "tokens": [string]}
package convert

import (
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/and161185/intakedesk/internal/model"
)

func stringMap(m map[string]string) *structpb.Struct {
	out := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(m))}
	for k, v := range m {
		out.Fields[k] = structpb.NewStringValue(v)
	}
	return out
}

func fromStringMap(path string, s *structpb.Struct) (map[string]string, error) {
	out := make(map[string]string, len(s.GetFields()))
	for k, v := range s.GetFields() {
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%s.%s: want string", path, k)
		}
		out[k] = sv.StringValue
	}
	return out, nil
}

func stringList(ss []string) *structpb.ListValue {
	out := &structpb.ListValue{Values: make([]*structpb.Value, len(ss))}
	for i, s := range ss {
		out.Values[i] = structpb.NewStringValue(s)
	}
	return out
}

func fromStringList(path string, l *structpb.ListValue) ([]string, error) {
	out := make([]string, 0, len(l.GetValues()))
	for i, v := range l.GetValues() {
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: want string", path, i)
		}
		out = append(out, sv.StringValue)
	}
	return out, nil
}

// Time encodes t as a Timestamp-shaped struct; the zero time is omitted.
func Time(t time.Time) *structpb.Value {
	if t.IsZero() {
		return nil
	}
	ts := timestamppb.New(t)
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"seconds": structpb.NewNumberValue(float64(ts.GetSeconds())),
		"nanos":   structpb.NewNumberValue(float64(ts.GetNanos())),
	}})
}

// FromTime decodes a value produced by Time. Nil yields the zero time.
func FromTime(path string, v *structpb.Value) (time.Time, error) {
	if v == nil {
		return time.Time{}, nil
	}
	s := v.GetStructValue()
	if s == nil {
		return time.Time{}, fmt.Errorf("%s: want timestamp", path)
	}
	sec, nanos := s.GetFields()["seconds"].GetNumberValue(), s.GetFields()["nanos"].GetNumberValue()
	if sec != math.Trunc(sec) || nanos != math.Trunc(nanos) {
		return time.Time{}, fmt.Errorf("%s: fractional timestamp", path)
	}
	ts := &timestamppb.Timestamp{Seconds: int64(sec), Nanos: int32(nanos)}
	if err := ts.CheckValid(); err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", path, err)
	}
	return ts.AsTime(), nil
}

// ToProtoRecord encodes a record.
func ToProtoRecord(r model.Record) *structpb.Struct {
	eq := &structpb.ListValue{Values: make([]*structpb.Value, len(r.Equipment))}
	for i, door := range r.Equipment {
		eq.Values[i] = structpb.NewStructValue(stringMap(door))
	}
	out := &structpb.Struct{Fields: map[string]*structpb.Value{
		"fields":    structpb.NewStructValue(stringMap(r.Fields)),
		"equipment": structpb.NewListValue(eq),
		"tokens":    structpb.NewListValue(stringList(r.Tokens)),
	}}
	if r.ID != "" {
		out.Fields["id"] = structpb.NewStringValue(r.ID)
	}
	if v := Time(r.CreatedAt); v != nil {
		out.Fields["createdAt"] = v
	}
	if v := Time(r.EditedAt); v != nil {
		out.Fields["editedAt"] = v
	}
	return out
}

// FromProtoRecord decodes a record. Missing parts decode as empty values;
// values of the wrong kind are rejected.
func FromProtoRecord(s *structpb.Struct) (model.Record, error) {
	if s == nil {
		return model.Record{}, fmt.Errorf("nil record")
	}
	f := s.GetFields()
	var (
		r   model.Record
		err error
	)
	if v, ok := f["id"]; ok {
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return model.Record{}, fmt.Errorf("id: want string")
		}
		r.ID = sv.StringValue
	}
	if r.Fields, err = fromStringMap("fields", f["fields"].GetStructValue()); err != nil {
		return model.Record{}, err
	}
	r.Equipment = []model.Equipment{}
	for i, v := range f["equipment"].GetListValue().GetValues() {
		door := v.GetStructValue()
		if door == nil {
			return model.Record{}, fmt.Errorf("equipment[%d]: want object", i)
		}
		m, err := fromStringMap(fmt.Sprintf("equipment[%d]", i), door)
		if err != nil {
			return model.Record{}, err
		}
		r.Equipment = append(r.Equipment, m)
	}
	if r.Tokens, err = fromStringList("tokens", f["tokens"].GetListValue()); err != nil {
		return model.Record{}, err
	}
	if r.CreatedAt, err = FromTime("createdAt", f["createdAt"]); err != nil {
		return model.Record{}, err
	}
	if r.EditedAt, err = FromTime("editedAt", f["editedAt"]); err != nil {
		return model.Record{}, err
	}
	return r, nil
}

// ToProtoRecords encodes a result set.
func ToProtoRecords(rs []model.Record) *structpb.ListValue {
	out := &structpb.ListValue{Values: make([]*structpb.Value, len(rs))}
	for i, r := range rs {
		out.Values[i] = structpb.NewStructValue(ToProtoRecord(r))
	}
	return out
}

// FromProtoRecords decodes a result set.
func FromProtoRecords(l *structpb.ListValue) ([]model.Record, error) {
	out := make([]model.Record, 0, len(l.GetValues()))
	for i, v := range l.GetValues() {
		r, err := FromProtoRecord(v.GetStructValue())
		if err != nil {
			return nil, fmt.Errorf("record[%d]: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}
