package protocol

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// TagField is the name of the field holding the variant tag on the wire.
const TagField = "type"

// WireObject is an untyped JSON object as sent or received in one frame.
type WireObject map[string]json.RawMessage

var (
	ErrUnknownType     = errors.New("unknown message type")
	ErrMissingTag      = errors.New("missing message type")
	ErrMissingField    = errors.New("missing field")
	ErrUnexpectedField = errors.New("unexpected field")
	ErrMalformedFrame  = errors.New("malformed frame")
	ErrDuplicateTag    = errors.New("duplicate message type")
	errNilMessage      = errors.New("nil message")
)

// Serialize turns m into its wire shape: the message's own fields plus the
// tag field set to m.Type(). No validation is done on the payload.
func Serialize(m Message) (WireObject, error) {
	if m == nil {
		return nil, errNilMessage
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %s", m.Type())
	}
	obj := WireObject{}
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, errors.Wrapf(err, "flatten %s", m.Type())
	}
	tag, err := json.Marshal(m.Type())
	if err != nil {
		return nil, errors.Wrap(err, "marshal tag")
	}
	obj[TagField] = tag
	return obj, nil
}

// Marshal serializes m into one JSON frame.
func Marshal(m Message) ([]byte, error) {
	obj, err := Serialize(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(obj)
}

// Tag returns the variant tag of a wire object.
func (o WireObject) Tag() (string, error) {
	raw, ok := o[TagField]
	if !ok {
		return "", ErrMissingTag
	}
	var tag string
	if err := json.Unmarshal(raw, &tag); err != nil {
		return "", errors.Wrapf(ErrMissingTag, "tag is not a string: %s", string(raw))
	}
	return tag, nil
}

// Payload returns a copy of o without the tag field.
func (o WireObject) Payload() WireObject {
	out := make(WireObject, len(o))
	for k, v := range o {
		if k == TagField {
			continue
		}
		out[k] = v
	}
	return out
}

// expectFields checks that payload has exactly the named fields.
func expectFields(payload WireObject, names ...string) error {
	for _, n := range names {
		if _, ok := payload[n]; !ok {
			return errors.Wrapf(ErrMissingField, "%q", n)
		}
	}
	if len(payload) == len(names) {
		return nil
	}
	known := make(map[string]struct{}, len(names))
	for _, n := range names {
		known[n] = struct{}{}
	}
	for k := range payload {
		if _, ok := known[k]; !ok {
			return errors.Wrapf(ErrUnexpectedField, "%q", k)
		}
	}
	return nil
}

func field(payload WireObject, name string, dst any) error {
	if err := json.Unmarshal(payload[name], dst); err != nil {
		return errors.Wrapf(err, "field %q", name)
	}
	return nil
}
