package postgres

import (
	"reflect"
	"sync"
)

// columnCache maps a struct type to its "db"-tagged field indices.
var columnCache sync.Map // map[reflect.Type][]taggedField

type taggedField struct {
	index  int
	column string
}

func taggedFields(t reflect.Type) []taggedField {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := columnCache.Load(t); ok {
		return cached.([]taggedField)
	}

	var fields []taggedField
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			tag := t.Field(i).Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			fields = append(fields, taggedField{index: i, column: tag})
		}
	}

	columnCache.Store(t, fields)
	return fields
}

// ExtractDBColumns lists the "db" tags of T in field order.
//
//	columns := ExtractDBColumns[fifo.Lot]()
//	// ["id", "product_id", "invoice_id", ...]
func ExtractDBColumns[T any]() []string {
	fields := taggedFields(reflect.TypeOf((*T)(nil)).Elem())
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.column
	}
	return cols
}

// StructToMap converts a struct (or pointer to one) to column => value using "db" tags.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	fields := taggedFields(rv.Type())
	res := make(map[string]any, len(fields))
	for _, f := range fields {
		res[f.column] = rv.Field(f.index).Interface()
	}
	return res
}
