package protocol

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeInjectsTag(t *testing.T) {
	obj, err := Serialize(InputRequest{Input: "как поступить"})
	require.NoError(t, err)

	tag, err := obj.Tag()
	require.NoError(t, err)
	assert.Equal(t, TagInputRequest, tag)
	assert.JSONEq(t, `"как поступить"`, string(obj["input"]))
	assert.Len(t, obj, 2)

	b, err := Marshal(QuestionRequest{Question: "Где столовая?"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"question":"Где столовая?","type":"QuestionRequest"}`, string(b))
}

func TestSerializeAllowsEmptyInput(t *testing.T) {
	b, err := Marshal(InputRequest{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"input":"","type":"InputRequest"}`, string(b))
}

func TestSerializeNil(t *testing.T) {
	_, err := Serialize(nil)
	require.Error(t, err)
}

func TestResponseRoundTrip(t *testing.T) {
	reg := NewResponseRegistry()
	cases := []Response{
		InputResponse{Questions: []string{}},
		InputResponse{Questions: []string{"c", "a", "b"}},
		InputResponse{},
		QuestionResponse{Question: "q", Answer: "a<br>b", Pictures: []string{"/images/db/1.png", "/images/db/2.png"}},
		QuestionResponse{Question: "", Answer: "", Pictures: []string{}},
		QuestionResponse{Question: "Кто?", Answer: "Мы."},
	}
	for _, want := range cases {
		t.Run(want.Type(), func(t *testing.T) {
			obj, err := Serialize(want)
			require.NoError(t, err)

			got, err := reg.Hydrate(obj)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			payload := obj.Payload()
			_, hasTag := payload[TagField]
			assert.False(t, hasTag)
			got, err = reg.Decode(want.Type(), payload)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestRequestRoundTrip(t *testing.T) {
	reg := NewRequestRegistry()
	for _, want := range []Request{
		InputRequest{Input: "расписание"},
		QuestionRequest{Question: "Когда сессия?"},
	} {
		b, err := Marshal(want)
		require.NoError(t, err)
		got, err := reg.Unmarshal(b)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestHydrateUnknownTag(t *testing.T) {
	reg := NewResponseRegistry()
	for _, tag := range []string{"", "inputresponse", "InputRequest", "Response", "ErrorResponse"} {
		obj := WireObject{TagField: json.RawMessage(`"` + tag + `"`), "questions": json.RawMessage(`[]`)}
		got, err := reg.Hydrate(obj)
		require.Error(t, err, tag)
		assert.True(t, errors.Is(err, ErrUnknownType), tag)
		assert.Nil(t, got)
	}
}

func TestHydrateMissingTag(t *testing.T) {
	reg := NewResponseRegistry()

	_, err := reg.Hydrate(WireObject{"questions": json.RawMessage(`[]`)})
	assert.True(t, errors.Is(err, ErrMissingTag))

	_, err = reg.Hydrate(WireObject{TagField: json.RawMessage(`42`)})
	assert.True(t, errors.Is(err, ErrMissingTag))

	_, err = reg.Unmarshal([]byte(`null`))
	assert.True(t, errors.Is(err, ErrMissingTag))
}

func TestHydrateStrictFields(t *testing.T) {
	reg := NewResponseRegistry()

	_, err := reg.Unmarshal([]byte(`{"type":"QuestionResponse","question":"q","answer":"a"}`))
	assert.True(t, errors.Is(err, ErrMissingField))

	_, err = reg.Unmarshal([]byte(`{"type":"InputResponse","questions":[],"extra":1}`))
	assert.True(t, errors.Is(err, ErrUnexpectedField))

	_, err = reg.Unmarshal([]byte(`{"type":"InputResponse","questions":"nope"}`))
	require.Error(t, err)
}

func TestUnmarshalMalformed(t *testing.T) {
	reg := NewResponseRegistry()
	for _, frame := range []string{`{`, `[]`, `"InputResponse"`, ``} {
		_, err := reg.Unmarshal([]byte(frame))
		assert.True(t, errors.Is(err, ErrMalformedFrame), frame)
	}
}

func TestNewRegistryRejectsBadEntries(t *testing.T) {
	dec := func(WireObject) (Response, error) { return InputResponse{}, nil }

	_, err := NewRegistry(Entry[Response]{Tag: "A", Decode: dec}, Entry[Response]{Tag: "A", Decode: dec})
	assert.True(t, errors.Is(err, ErrDuplicateTag))

	_, err = NewRegistry(Entry[Response]{Tag: "", Decode: dec})
	require.Error(t, err)

	_, err = NewRegistry(Entry[Response]{Tag: "A"})
	require.Error(t, err)
}

func TestRegistryTags(t *testing.T) {
	assert.Equal(t, []string{TagInputResponse, TagQuestionResponse}, NewResponseRegistry().Tags())
	assert.Equal(t, []string{TagInputRequest, TagQuestionRequest}, NewRequestRegistry().Tags())
}
