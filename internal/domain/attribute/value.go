// Package attribute implements the typed attribute value representation
// shared by hub objects and connected-system objects. A Value is a tagged
// variant: exactly one slot is populated, chosen by the attribute's declared
// kind, enforced at construction.
package attribute

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Kind enumerates the typed slots a value can carry.
type Kind string

const (
	KindText       Kind = "text"
	KindNumber     Kind = "number"
	KindDate       Kind = "date"
	KindBinary     Kind = "binary"
	KindBoolean    Kind = "boolean"
	KindIdentifier Kind = "identifier"
	KindReference  Kind = "reference"
)

// ValidKinds lists every supported kind.
var ValidKinds = map[Kind]bool{
	KindText:       true,
	KindNumber:     true,
	KindDate:       true,
	KindBinary:     true,
	KindBoolean:    true,
	KindIdentifier: true,
	KindReference:  true,
}

// Value is an immutable typed attribute value. The zero Value is "no value".
type Value struct {
	kind       Kind
	text       string
	number     int64
	date       time.Time
	binary     []byte
	boolean    bool
	identifier string
	refSID     string
	refPending string
}

// NewText creates a text value.
func NewText(s string) Value {
	return Value{kind: KindText, text: s}
}

// NewNumber creates a number value.
func NewNumber(n int64) Value {
	return Value{kind: KindNumber, number: n}
}

// NewDate creates a date value, normalized to UTC.
func NewDate(t time.Time) Value {
	return Value{kind: KindDate, date: t.UTC()}
}

// NewBinary creates a binary value. The slice is copied.
func NewBinary(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBinary, binary: cp}
}

// NewBoolean creates a boolean value.
func NewBoolean(b bool) Value {
	return Value{kind: KindBoolean, boolean: b}
}

// NewIdentifier creates a unique-identifier value.
func NewIdentifier(s string) Value {
	return Value{kind: KindIdentifier, identifier: s}
}

// NewReference creates a resolved reference to a hub object by SID.
func NewReference(hubSID string) Value {
	return Value{kind: KindReference, refSID: hubSID}
}

// NewPendingReference creates an unresolved reference carrying a textual
// pointer to the intended key. It is stored, not dropped, and re-evaluated
// on later runs until it resolves.
func NewPendingReference(pointer string) Value {
	return Value{kind: KindReference, refPending: pointer}
}

// Kind returns the value's kind; empty for the zero value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsEmpty reports whether the value carries nothing. Empty text and empty
// identifiers count as no value, matching flow "first non-empty source" rules.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case "":
		return true
	case KindText:
		return v.text == ""
	case KindIdentifier:
		return v.identifier == ""
	case KindBinary:
		return len(v.binary) == 0
	case KindReference:
		return v.refSID == "" && v.refPending == ""
	default:
		return false
	}
}

// IsPendingReference reports whether this is a reference that has not yet
// resolved to a hub object.
func (v Value) IsPendingReference() bool {
	return v.kind == KindReference && v.refSID == "" && v.refPending != ""
}

func (v Value) Text() string       { return v.text }
func (v Value) Number() int64      { return v.number }
func (v Value) Date() time.Time    { return v.date }
func (v Value) Boolean() bool      { return v.boolean }
func (v Value) Identifier() string { return v.identifier }
func (v Value) RefSID() string     { return v.refSID }
func (v Value) RefPending() string { return v.refPending }

// Binary returns a copy of the binary payload.
func (v Value) Binary() []byte {
	cp := make([]byte, len(v.binary))
	copy(cp, v.binary)
	return cp
}

// Equal reports deep equality of kind and payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == other.text
	case KindNumber:
		return v.number == other.number
	case KindDate:
		return v.date.Equal(other.date)
	case KindBinary:
		return bytes.Equal(v.binary, other.binary)
	case KindBoolean:
		return v.boolean == other.boolean
	case KindIdentifier:
		return v.identifier == other.identifier
	case KindReference:
		return v.refSID == other.refSID && v.refPending == other.refPending
	default:
		return true // both zero
	}
}

// String renders the value for audit records and diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatInt(v.number, 10)
	case KindDate:
		return v.date.Format(time.RFC3339)
	case KindBinary:
		return base64.StdEncoding.EncodeToString(v.binary)
	case KindBoolean:
		return strconv.FormatBool(v.boolean)
	case KindIdentifier:
		return v.identifier
	case KindReference:
		if v.refSID != "" {
			return v.refSID
		}
		return "pending:" + v.refPending
	default:
		return ""
	}
}

// Convert returns the value converted to the target kind. Same-kind
// conversion is a copy. Incompatible conversions return an error; flow
// resolution treats that source as yielding no value.
func (v Value) Convert(to Kind) (Value, error) {
	if v.kind == to {
		return v, nil
	}
	switch to {
	case KindText:
		switch v.kind {
		case KindNumber, KindDate, KindBoolean, KindIdentifier:
			return NewText(v.String()), nil
		}
	case KindNumber:
		if v.kind == KindText {
			n, err := strconv.ParseInt(v.text, 10, 64)
			if err != nil {
				return Value{}, fmt.Errorf("cannot convert %q to number: %w", v.text, err)
			}
			return NewNumber(n), nil
		}
	case KindDate:
		if v.kind == KindText {
			t, err := time.Parse(time.RFC3339, v.text)
			if err != nil {
				return Value{}, fmt.Errorf("cannot convert %q to date: %w", v.text, err)
			}
			return NewDate(t), nil
		}
	case KindBoolean:
		if v.kind == KindText {
			b, err := strconv.ParseBool(v.text)
			if err != nil {
				return Value{}, fmt.Errorf("cannot convert %q to boolean: %w", v.text, err)
			}
			return NewBoolean(b), nil
		}
	case KindIdentifier:
		if v.kind == KindText {
			return NewIdentifier(v.text), nil
		}
	}
	return Value{}, fmt.Errorf("cannot convert %s value to %s", v.kind, to)
}

// valueJSON is the wire form used for JSON columns (export deltas, rule
// constants). One payload field per kind, mirroring the wide-column storage.
type valueJSON struct {
	Kind       Kind       `json:"kind"`
	Text       *string    `json:"text,omitempty"`
	Number     *int64     `json:"number,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
	Binary     []byte     `json:"binary,omitempty"`
	Boolean    *bool      `json:"boolean,omitempty"`
	Identifier *string    `json:"identifier,omitempty"`
	RefSID     *string    `json:"ref_sid,omitempty"`
	RefPending *string    `json:"ref_pending,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	w := valueJSON{Kind: v.kind}
	switch v.kind {
	case KindText:
		w.Text = &v.text
	case KindNumber:
		w.Number = &v.number
	case KindDate:
		w.Date = &v.date
	case KindBinary:
		w.Binary = v.binary
	case KindBoolean:
		w.Boolean = &v.boolean
	case KindIdentifier:
		w.Identifier = &v.identifier
	case KindReference:
		if v.refSID != "" {
			w.RefSID = &v.refSID
		}
		if v.refPending != "" {
			w.RefPending = &v.refPending
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w valueJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Kind != "" && !ValidKinds[w.Kind] {
		return fmt.Errorf("unknown attribute kind %q", w.Kind)
	}
	out := Value{kind: w.Kind}
	switch w.Kind {
	case KindText:
		if w.Text != nil {
			out.text = *w.Text
		}
	case KindNumber:
		if w.Number != nil {
			out.number = *w.Number
		}
	case KindDate:
		if w.Date != nil {
			out.date = w.Date.UTC()
		}
	case KindBinary:
		out.binary = w.Binary
	case KindBoolean:
		if w.Boolean != nil {
			out.boolean = *w.Boolean
		}
	case KindIdentifier:
		if w.Identifier != nil {
			out.identifier = *w.Identifier
		}
	case KindReference:
		if w.RefSID != nil {
			out.refSID = *w.RefSID
		}
		if w.RefPending != nil {
			out.refPending = *w.RefPending
		}
	}
	*v = out
	return nil
}
