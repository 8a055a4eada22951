package storage

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
)

// MarshalColumnValue converts one RowValues result into a value a SQL
// driver can bind directly: scalars pass through (after pointer
// dereference, with nil staying nil), decimal.Decimal and time.Time
// become their canonical string forms, and every composite type (slices,
// nested structs like AccessListEntry/Withdrawal) is JSON-encoded into a
// single text column — both sqlitestore and warehouse store these as
// TEXT rather than attempting a relational decomposition the spec
// never asks for.
func MarshalColumnValue(v interface{}) (interface{}, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
		v = rv.Interface()
	}

	switch x := v.(type) {
	case decimal.Decimal:
		return x.String(), nil
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), nil
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return x, nil
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Struct, reflect.Map:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("storage: marshal column value: %w", err)
		}
		return string(b), nil
	default:
		return nil, fmt.Errorf("storage: marshal column value: unsupported kind %s", rv.Kind())
	}
}
