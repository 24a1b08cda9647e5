package model

// Value is one decoded cell. Exactly one field is set; a nil *Value is a
// null cell. The tagged shape keeps the worker's JSON channel lossless:
// binary payloads never have to be told apart from text by guessing.
type Value struct {
	Str    *string           `json:"s,omitempty"`
	Bytes  []byte            `json:"b,omitempty"`
	Int    *int64            `json:"i,omitempty"`
	Num    *float64          `json:"n,omitempty"`
	Bool   *bool             `json:"t,omitempty"`
	Fields map[string]*Value `json:"f,omitempty"` // nested struct columns
}

// IsEmpty reports whether no field of the value is set. A struct cell
// whose children are all null arrives in this shape after the worker's
// JSON hop, since an empty field map is omitted from the wire format.
func (v *Value) IsEmpty() bool {
	return v.Str == nil && v.Bytes == nil && v.Int == nil &&
		v.Num == nil && v.Bool == nil && v.Fields == nil
}

// StrValue wraps s as a string cell
func StrValue(s string) *Value {
	return &Value{Str: &s}
}

// BytesValue wraps b as a binary cell
func BytesValue(b []byte) *Value {
	return &Value{Bytes: b}
}

// Column is one named cell of a row
type Column struct {
	Name  string `json:"name"`
	Value *Value `json:"value"`
}

// TableRow is one decoded record, columns in schema order
type TableRow struct {
	Columns []Column `json:"columns"`
}

// Lookup returns the value of the named column, or nil when the column is
// absent or null
func (r TableRow) Lookup(name string) *Value {
	for _, c := range r.Columns {
		if c.Name == name {
			return c.Value
		}
	}
	return nil
}

// DecodeOutput is the single-line JSON payload the decode worker writes on
// stdout. Either Error is set or Rows holds every record of the file.
type DecodeOutput struct {
	Count int        `json:"count"`
	Rows  []TableRow `json:"rows,omitempty"`
	Error string     `json:"error,omitempty"`
}
