package normalize

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Shape is the outer form of a backend response body
type Shape int

const (
	ShapeInvalid Shape = iota
	ShapeScalar
	ShapeBareArray
	ShapeBareObject
	ShapeStringBodyEnvelope
	ShapeObjectBodyEnvelope
)

const envelopeKey = "body"

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeBareArray:
		return "bare_array"
	case ShapeBareObject:
		return "bare_object"
	case ShapeStringBodyEnvelope:
		return "string_body_envelope"
	case ShapeObjectBodyEnvelope:
		return "object_body_envelope"
	default:
		return "invalid"
	}
}

// Classify reports the shape of raw without decoding it.
// Any non-null "body" that is not a string is taken as the payload as is, so
// {"body": 3} unwraps to 3. A null body is not an envelope.
func Classify(raw []byte) Shape {
	if !gjson.ValidBytes(raw) {
		return ShapeInvalid
	}

	res := gjson.ParseBytes(raw)
	switch {
	case res.IsArray():
		return ShapeBareArray
	case res.IsObject():
		body := res.Get(envelopeKey)
		switch {
		case body.Type == gjson.String:
			return ShapeStringBodyEnvelope
		case !body.Exists() || body.Type == gjson.Null:
			return ShapeBareObject
		default:
			return ShapeObjectBodyEnvelope
		}
	default:
		return ShapeScalar
	}
}

// Unwrap decodes raw and returns the logical payload. A string body that does
// not parse as JSON is treated as no envelope and the raw object is returned.
// Invalid JSON yields nil.
func Unwrap(raw []byte) any {
	switch Classify(raw) {
	case ShapeInvalid:
		return nil
	case ShapeStringBodyEnvelope:
		inner := gjson.GetBytes(raw, envelopeKey).Str
		if data, ok := decode([]byte(inner)); ok {
			return data
		}
		data, _ := decode(raw)
		return data
	case ShapeObjectBodyEnvelope:
		data, _ := decode([]byte(gjson.GetBytes(raw, envelopeKey).Raw))
		return data
	default:
		data, _ := decode(raw)
		return data
	}
}

// UnwrapValue applies the envelope rule to an already-decoded value
func UnwrapValue(v any) any {
	obj, ok := v.(map[string]any)
	if !ok {
		return v
	}

	switch body := obj[envelopeKey].(type) {
	case nil:
		return v
	case string:
		if data, ok := decode([]byte(body)); ok {
			return data
		}
		return v
	default:
		return body
	}
}

func decode(raw []byte) (any, bool) {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, false
	}
	return data, true
}
