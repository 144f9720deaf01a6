package command

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Value types accepted by "set --type".
const (
	TypeString = "string"
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBool   = "bool"
	TypeJSON   = "json"
)

// parseValue converts the command-line text of a value into the Go value
// stored in the channel. The Go type becomes the entry's type tag.
func parseValue(typ, text string) (any, error) {
	switch typ {
	case "", TypeString:
		return text, nil
	case TypeInt:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q as int: %w", text, err)
		}
		return n, nil
	case TypeFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q as float: %w", text, err)
		}
		return f, nil
	case TypeBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("parse %q as bool: %w", text, err)
		}
		return b, nil
	case TypeJSON:
		if !json.Valid([]byte(text)) {
			return nil, fmt.Errorf("value is not valid JSON")
		}
		return json.RawMessage(text), nil
	default:
		return nil, fmt.Errorf("unknown value type %q (want string, int, float, bool or json)", typ)
	}
}
