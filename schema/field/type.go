package field

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// A Type represents the SQL type of a column bound in a statement.
type Type uint8

// List of field types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeTime
	TypeJSON
	TypeUUID
	TypeBytes
	TypeEnum
	TypeString
	TypeOther
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint
	TypeUint64
	TypeFloat32
	TypeFloat64
	endTypes
)

var (
	typeNames = [...]string{
		TypeInvalid: "invalid",
		TypeBool:    "boolean",
		TypeTime:    "datetime",
		TypeJSON:    "json",
		TypeUUID:    "guid",
		TypeBytes:   "blob",
		TypeEnum:    "enum",
		TypeString:  "string",
		TypeOther:   "other",
		TypeInt8:    "smallint",
		TypeInt16:   "smallint",
		TypeInt32:   "integer",
		TypeInt:     "integer",
		TypeInt64:   "bigint",
		TypeUint8:   "smallint",
		TypeUint16:  "smallint",
		TypeUint32:  "integer",
		TypeUint:    "integer",
		TypeUint64:  "bigint",
		TypeFloat32: "float",
		TypeFloat64: "float",
	}
	constNames = [...]string{
		TypeBool:    "TypeBool",
		TypeTime:    "TypeTime",
		TypeJSON:    "TypeJSON",
		TypeUUID:    "TypeUUID",
		TypeBytes:   "TypeBytes",
		TypeEnum:    "TypeEnum",
		TypeString:  "TypeString",
		TypeOther:   "TypeOther",
		TypeInt8:    "TypeInt8",
		TypeInt16:   "TypeInt16",
		TypeInt32:   "TypeInt32",
		TypeInt:     "TypeInt",
		TypeInt64:   "TypeInt64",
		TypeUint8:   "TypeUint8",
		TypeUint16:  "TypeUint16",
		TypeUint32:  "TypeUint32",
		TypeUint:    "TypeUint",
		TypeUint64:  "TypeUint64",
		TypeFloat32: "TypeFloat32",
		TypeFloat64: "TypeFloat64",
	}
	// parseNames maps mapping-file type names to types. Canonical names
	// resolve to the widest matching Go type.
	parseNames = map[string]Type{
		"boolean":  TypeBool,
		"bool":     TypeBool,
		"datetime": TypeTime,
		"time":     TypeTime,
		"json":     TypeJSON,
		"guid":     TypeUUID,
		"uuid":     TypeUUID,
		"blob":     TypeBytes,
		"bytes":    TypeBytes,
		"enum":     TypeEnum,
		"string":   TypeString,
		"text":     TypeString,
		"other":    TypeOther,
		"smallint": TypeInt16,
		"integer":  TypeInt,
		"int":      TypeInt,
		"bigint":   TypeInt64,
		"float":    TypeFloat64,
		"double":   TypeFloat64,
	}
)

// String returns the SQL type name of the type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the given type if known type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t >= TypeInt8 && t < endTypes
}

// ConstName returns the constant name of the type.
func (t Type) ConstName() string {
	if !t.Valid() {
		return "invalid"
	}
	return constNames[t]
}

// ParseType returns the type registered under the given name. Names are
// case-insensitive.
func ParseType(name string) (Type, error) {
	if t, ok := parseNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t, nil
	}
	return TypeInvalid, fmt.Errorf("field: unknown type %q", name)
}

// Value converts v into a driver value suitable for a column of type t.
func (t Type) Value(v any) (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	if t == TypeUUID {
		switch u := v.(type) {
		case uuid.UUID:
			return u.String(), nil
		case [16]byte:
			return uuid.UUID(u).String(), nil
		case string:
			id, err := uuid.Parse(u)
			if err != nil {
				return nil, fmt.Errorf("field: convert %q to %s: %w", u, t, err)
			}
			return id.String(), nil
		}
	}
	dv, err := driver.DefaultParameterConverter.ConvertValue(v)
	if err != nil {
		return nil, fmt.Errorf("field: convert %v to %s: %w", v, t, err)
	}
	return dv, nil
}
