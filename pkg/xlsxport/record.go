package xlsxport

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// FieldProvider lets a record type publish its preferred export field set.
// It is consulted only when the export runs with WithDisplaySet.
type FieldProvider interface {
	ExportFields() []string
}

// Iterator streams records one at a time; sources that cannot buffer their
// result set (SQL cursors, search scrolls) implement it. Next returns
// ok=false once the stream is exhausted.
type Iterator interface {
	Next(ctx context.Context) (record interface{}, ok bool, err error)
}

// sliceIterator adapts an in-memory slice (or array) to Iterator.
type sliceIterator struct {
	v reflect.Value
	i int
}

func (s *sliceIterator) Next(context.Context) (interface{}, bool, error) {
	if s.i >= s.v.Len() {
		return nil, false, nil
	}
	rec := s.v.Index(s.i).Interface()
	s.i++
	return rec, true, nil
}

// singleIterator yields exactly one record.
type singleIterator struct {
	rec  interface{}
	done bool
}

func (s *singleIterator) Next(context.Context) (interface{}, bool, error) {
	if s.done {
		return nil, false, nil
	}
	s.done = true
	return s.rec, true, nil
}

// recordsOf normalizes the caller's input into an iterator: an Iterator is
// used as-is, a slice or array is walked in order, anything else is treated
// as a single record (or scalar).
func recordsOf(data interface{}) Iterator {
	if it, ok := data.(Iterator); ok {
		return it
	}
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr && !v.IsNil() {
		v = v.Elem()
	}
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		return &sliceIterator{v: v}
	}
	return &singleIterator{rec: data}
}

// isScalar reports whether a record carries no fields of its own and is
// written to a single cell. time.Time is a struct but behaves as a value.
func isScalar(rec interface{}) bool {
	if rec == nil {
		return true
	}
	if _, ok := asTime(rec); ok {
		return true
	}
	v := reflect.ValueOf(rec)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return true
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct, reflect.Map:
		return false
	}
	return true
}

// fieldNames returns a record's field names in declaration order for structs
// (honouring `excel:"alias"` renames and `excel:"-"` skips) and in sorted
// order for maps, which carry no declaration order of their own.
func fieldNames(rec interface{}) []string {
	v := reflect.ValueOf(rec)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		names := make([]string, 0, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name := exportName(f)
			if name == "" {
				continue
			}
			names = append(names, name)
		}
		return names
	case reflect.Map:
		keys := v.MapKeys()
		names := make([]string, 0, len(keys))
		for _, k := range keys {
			names = append(names, fmt.Sprint(k.Interface()))
		}
		sort.Strings(names)
		return names
	}
	return nil
}

// exportName resolves a struct field's export name from its excel tag, or ""
// when the field is opted out.
func exportName(f reflect.StructField) string {
	tag := f.Tag.Get("excel")
	if tag == "-" {
		return ""
	}
	if tag != "" {
		if name, _, found := strings.Cut(tag, ","); found || name != "" {
			if name != "" {
				return name
			}
		}
	}
	return f.Name
}

// fieldValue projects one field of a record. Missing fields yield (nil,
// false) so the emitter can leave the cell blank; extra record fields are
// never visited because iteration is driven by the header.
func fieldValue(rec interface{}, name string) (interface{}, bool) {
	v := reflect.ValueOf(rec)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			if exportName(f) == name {
				return v.Field(i).Interface(), true
			}
		}
	case reflect.Map:
		for _, k := range v.MapKeys() {
			if fmt.Sprint(k.Interface()) == name {
				mv := v.MapIndex(k)
				if !mv.IsValid() {
					return nil, false
				}
				return mv.Interface(), true
			}
		}
	}
	return nil, false
}

func defaultString(value interface{}) string {
	switch v := value.(type) {
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
