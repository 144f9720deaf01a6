package snapshot

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"unicode/utf8"

	"github.com/yndnr/chanstore/internal/core/domain"
)

var (
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// CheckEntry reports whether key and value survive Encode followed by
// Decode unchanged. It fails with domain.ErrInvalidArgument when either
// cannot be encoded (NaN, channels, functions, a failing MarshalJSON) or
// holds a string that is not valid UTF-8, which JSON would rewrite.
func CheckEntry(key, value any) error {
	if err := check(key); err != nil {
		return domain.ErrInvalidArgument.WithDetails("key: " + err.Error()).Wrap(err)
	}
	if err := check(value); err != nil {
		return domain.ErrInvalidArgument.WithDetails("value: " + err.Error()).Wrap(err)
	}
	return nil
}

func check(v any) error {
	// Marshal first: it rejects cycles, so the walk below terminates.
	if _, err := json.Marshal(v); err != nil {
		return err
	}
	return walkStrings(reflect.ValueOf(v), "")
}

// walkStrings finds strings that JSON encoding would alter. Types with
// their own marshalling are trusted.
func walkStrings(v reflect.Value, path string) error {
	if !v.IsValid() {
		return nil
	}
	t := v.Type()
	if marshalsItself(t) || marshalsItself(reflect.PointerTo(t)) {
		return nil
	}

	switch v.Kind() {
	case reflect.String:
		if !utf8.ValidString(v.String()) {
			return fmt.Errorf("string%s is not valid UTF-8", at(path))
		}
	case reflect.Pointer, reflect.Interface:
		if !v.IsNil() {
			return walkStrings(v.Elem(), path)
		}
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if (!f.IsExported() && !f.Anonymous) || f.Tag.Get("json") == "-" {
				continue
			}
			if err := walkStrings(v.Field(i), path+"."+f.Name); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			k := iter.Key()
			if k.Kind() == reflect.String && !utf8.ValidString(k.String()) {
				return fmt.Errorf("map key%s is not valid UTF-8", at(path))
			}
			if err := walkStrings(iter.Value(), fmt.Sprintf("%s[%v]", path, k)); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := walkStrings(v.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func marshalsItself(t reflect.Type) bool {
	return t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType)
}

func at(path string) string {
	if path == "" {
		return ""
	}
	return " at " + path
}
