package storage

import (
	"fmt"
	"reflect"
)

// Column is one field of a record struct, addressed by its db struct tag
// and the reflect.Type.FieldByIndex path needed to reach it through any
// embedded base struct (BlockBase, TransactionBase, LogBase).
type Column struct {
	Name  string
	Index []int
	Type  reflect.Type
}

// Schema is a record type's column list, in declaration order. It doubles
// as the persisted column layout for every backend (spec §3, §4.4).
type Schema []Column

// DeriveSchema walks sample's struct fields — recursing into anonymous
// embedded fields that carry no db tag of their own — and collects one
// Column per db-tagged field. sample may be a struct or a pointer to one;
// every concrete record type (EthereumBlock, ArbitrumTransaction, ...)
// produces its own schema, since each embeds a different combination of
// base-plus-extension fields.
func DeriveSchema(sample interface{}) (Schema, error) {
	t := reflect.TypeOf(sample)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("storage: DeriveSchema: %s is not a struct", t.Kind())
	}
	var schema Schema
	walkFields(t, nil, &schema)
	return schema, nil
}

func walkFields(t reflect.Type, prefix []int, schema *Schema) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		index := appendIndex(prefix, i)

		if tag, ok := field.Tag.Lookup("db"); ok {
			*schema = append(*schema, Column{Name: tag, Index: index, Type: field.Type})
			continue
		}
		if field.Anonymous {
			ft := field.Type
			for ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				walkFields(ft, index, schema)
			}
		}
	}
}

func appendIndex(prefix []int, i int) []int {
	out := make([]int, len(prefix)+1)
	copy(out, prefix)
	out[len(prefix)] = i
	return out
}

// RowValues extracts one value per schema column from item, in schema
// order, following each Column's field-index path through embedded
// structs. item may be an interface value wrapping a pointer (as returned
// by internal/parser) or a bare struct value.
func RowValues(item interface{}, schema Schema) ([]interface{}, error) {
	v := reflect.ValueOf(item)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("storage: RowValues: nil pointer")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("storage: RowValues: %s is not a struct", v.Kind())
	}

	values := make([]interface{}, len(schema))
	for i, col := range schema {
		fv := v.FieldByIndex(col.Index)
		values[i] = fv.Interface()
	}
	return values, nil
}

// ColumnNames returns the column names of schema, in order.
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}
