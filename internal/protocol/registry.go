package protocol

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// Decoder builds a typed message from a payload that no longer carries the
// tag field.
type Decoder[T any] func(payload WireObject) (T, error)

// Entry binds a wire tag to the decoder of its variant.
type Entry[T any] struct {
	Tag    string
	Decode Decoder[T]
}

// Registry maps wire tags to decoders. It is built once and never changes,
// so it can be shared freely.
type Registry[T any] struct {
	decoders map[string]Decoder[T]
}

// NewRegistry builds a registry from entries. Empty or repeated tags and nil
// decoders are rejected.
func NewRegistry[T any](entries ...Entry[T]) (*Registry[T], error) {
	decoders := make(map[string]Decoder[T], len(entries))
	for _, e := range entries {
		if e.Tag == "" {
			return nil, errors.New("registry: empty tag")
		}
		if e.Decode == nil {
			return nil, errors.Errorf("registry: nil decoder for %q", e.Tag)
		}
		if _, ok := decoders[e.Tag]; ok {
			return nil, errors.Wrapf(ErrDuplicateTag, "%q", e.Tag)
		}
		decoders[e.Tag] = e.Decode
	}
	return &Registry[T]{decoders: decoders}, nil
}

func mustRegistry[T any](entries ...Entry[T]) *Registry[T] {
	r, err := NewRegistry(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Tags lists the registered tags in sorted order.
func (r *Registry[T]) Tags() []string {
	out := make([]string, 0, len(r.decoders))
	for tag := range r.decoders {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Hydrate resolves the tag of obj and decodes the rest of the payload into
// the registered variant. Unknown tags fail with ErrUnknownType and the zero
// value of T.
func (r *Registry[T]) Hydrate(obj WireObject) (T, error) {
	var zero T
	tag, err := obj.Tag()
	if err != nil {
		return zero, err
	}
	return r.Decode(tag, obj.Payload())
}

// Decode runs the decoder registered for tag on payload.
func (r *Registry[T]) Decode(tag string, payload WireObject) (T, error) {
	var zero T
	decode, ok := r.decoders[tag]
	if !ok {
		return zero, errors.Wrapf(ErrUnknownType, "%q", tag)
	}
	v, err := decode(payload)
	if err != nil {
		return zero, errors.Wrapf(err, "decode %s", tag)
	}
	return v, nil
}

// Unmarshal parses one JSON frame and hydrates it.
func (r *Registry[T]) Unmarshal(frame []byte) (T, error) {
	var zero T
	var obj WireObject
	if err := json.Unmarshal(frame, &obj); err != nil {
		return zero, errors.Wrapf(ErrMalformedFrame, "%v", err)
	}
	if obj == nil {
		return zero, ErrMissingTag
	}
	return r.Hydrate(obj)
}

// NewResponseRegistry returns the registry used by clients to hydrate
// server replies.
func NewResponseRegistry() *Registry[Response] {
	return mustRegistry(
		Entry[Response]{Tag: TagInputResponse, Decode: decodeInputResponse},
		Entry[Response]{Tag: TagQuestionResponse, Decode: decodeQuestionResponse},
	)
}

// NewRequestRegistry returns the registry used by the server to hydrate
// client requests.
func NewRequestRegistry() *Registry[Request] {
	return mustRegistry(
		Entry[Request]{Tag: TagInputRequest, Decode: decodeInputRequest},
		Entry[Request]{Tag: TagQuestionRequest, Decode: decodeQuestionRequest},
	)
}

func decodeInputRequest(p WireObject) (Request, error) {
	if err := expectFields(p, "input"); err != nil {
		return nil, err
	}
	var r InputRequest
	if err := field(p, "input", &r.Input); err != nil {
		return nil, err
	}
	return r, nil
}

func decodeQuestionRequest(p WireObject) (Request, error) {
	if err := expectFields(p, "question"); err != nil {
		return nil, err
	}
	var r QuestionRequest
	if err := field(p, "question", &r.Question); err != nil {
		return nil, err
	}
	return r, nil
}

func decodeInputResponse(p WireObject) (Response, error) {
	if err := expectFields(p, "questions"); err != nil {
		return nil, err
	}
	var r InputResponse
	if err := field(p, "questions", &r.Questions); err != nil {
		return nil, err
	}
	return r, nil
}

func decodeQuestionResponse(p WireObject) (Response, error) {
	if err := expectFields(p, "question", "answer", "pictures"); err != nil {
		return nil, err
	}
	var r QuestionResponse
	if err := field(p, "question", &r.Question); err != nil {
		return nil, err
	}
	if err := field(p, "answer", &r.Answer); err != nil {
		return nil, err
	}
	if err := field(p, "pictures", &r.Pictures); err != nil {
		return nil, err
	}
	return r, nil
}
