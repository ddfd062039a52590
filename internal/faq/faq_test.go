package faq

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faqchat/internal/protocol"
	"faqchat/internal/store"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"Как поступить в ВУЗ?", []string{"как", "поступить", "вуз"}},
		{"Где 5 корпус, и что в нём?", []string{"где", "5", "корпус", "что", "нём"}},
		{"Hello, World!!!", []string{"hello", "world"}},
		{"во-первых", []string{"вопервых"}},
		{"  ГИА-2024: сроки  ", []string{"гиа2024", "сроки"}},
		{"«Кавычки» не ASCII", []string{"«кавычки»", "ascii"}},
		{"а и в", nil},
		{"", nil},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Split(c.in), c.in)
	}
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("", ""))
	assert.Equal(t, 1.0, Ratio("корпус", "корпус"))
	assert.Equal(t, 0.0, Ratio("abc", ""))
	assert.Equal(t, 0.0, Ratio("abc", "xyz"))
	// one deletion over 11 runes
	assert.InDelta(t, 10.0/11.0, Ratio("абвгде", "абвгд"), 1e-9)
	assert.InDelta(t, 0.5, Ratio("ab", "ba"), 1e-9)
	assert.Equal(t, Ratio("kitten", "sitting"), Ratio("sitting", "kitten"))
}

func TestSimilar(t *testing.T) {
	assert.True(t, Similar("поступление", "поступления", DefaultScoreCutoff))
	assert.False(t, Similar("корпус", "курс", DefaultScoreCutoff))
	assert.False(t, Similar("abc", "xyz", 0))
}

func TestMatchesOrder(t *testing.T) {
	questions := []string{
		"Где находится столовая?",
		"Как получить справку об обучении?",
		"Где получить студенческий билет?",
		"Когда выдают студенческий билет и справку?",
	}
	got := Matches("получить студенческий билет", questions, DefaultScoreCutoff)
	require.Len(t, got, 3)
	assert.Equal(t, Match{Question: "Где получить студенческий билет?", Count: 3}, got[0])
	assert.Equal(t, Match{Question: "Когда выдают студенческий билет и справку?", Count: 2}, got[1])
	assert.Equal(t, Match{Question: "Как получить справку об обучении?", Count: 1}, got[2])

	assert.Empty(t, Matches("и в на", questions, DefaultScoreCutoff))
	assert.Empty(t, Matches("погода", questions, DefaultScoreCutoff))
}

func TestMatchesTiesKeepCatalogueOrder(t *testing.T) {
	got := Matches("библиотека", []string{"Где библиотека?", "Часы работы библиотеки", "Библиотека онлайн"}, DefaultScoreCutoff)
	require.Len(t, got, 3)
	assert.Equal(t, "Где библиотека?", got[0].Question)
	assert.Equal(t, "Часы работы библиотеки", got[1].Question)
	assert.Equal(t, "Библиотека онлайн", got[2].Question)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "строка<br>строка", Normalize("строка\nстрока"))
	assert.Equal(t,
		"Сайт: <a href='https://example.edu/abit?x=1'>https://example.edu/abit?x=1</a><br>Почта там же.",
		Normalize("Сайт: https://example.edu/abit?x=1\nПочта там же."),
	)
	assert.Equal(t,
		"<a href='www.example.org'>www.example.org</a> и <a href='http://b.ru'>http://b.ru</a>",
		Normalize("www.example.org и http://b.ru"),
	)
	assert.Equal(t, "без ссылок", Normalize("без ссылок"))
}

type fakeSuggester struct {
	out   []string
	err   error
	calls int
	limit int
}

func (f *fakeSuggester) Suggest(_ context.Context, _ string, _ []string, limit int) ([]string, error) {
	f.calls++
	f.limit = limit
	return f.out, f.err
}

func seeded(t *testing.T) store.Catalog {
	t.Helper()
	ctx := context.Background()
	c := store.NewMemoryStore()
	require.NoError(t, c.Upsert(ctx, store.Entry{Group: "Учёба", Question: "Где получить студенческий билет?", Answer: "В деканате.\nКабинет 101.", Pictures: []string{"dean.png", "map.jpg"}}))
	require.NoError(t, c.Upsert(ctx, store.Entry{Group: "Учёба", Question: "Когда сессия?", Answer: "В январе."}))
	return c
}

func TestRespondInput(t *testing.T) {
	svc := NewService(seeded(t), WithLogger(zerolog.Nop()))
	resp, err := svc.Respond(context.Background(), protocol.InputRequest{Input: "студенческий билет"})
	require.NoError(t, err)
	assert.Equal(t, protocol.InputResponse{Questions: []string{"Где получить студенческий билет?"}}, resp)

	resp, err = svc.Respond(context.Background(), protocol.InputRequest{Input: ""})
	require.NoError(t, err)
	assert.Equal(t, protocol.InputResponse{Questions: []string{}}, resp)
}

func TestRespondInputLimit(t *testing.T) {
	ctx := context.Background()
	c := store.NewMemoryStore()
	for _, q := range []string{"Сессия зимой", "Сессия летом", "Сессия осенью"} {
		require.NoError(t, c.Upsert(ctx, store.Entry{Question: q, Answer: "."}))
	}
	svc := NewService(c, WithMatchesLimit(2), WithLogger(zerolog.Nop()))
	resp, err := svc.Respond(ctx, protocol.InputRequest{Input: "сессия"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Сессия зимой", "Сессия летом"}, resp.(protocol.InputResponse).Questions)
}

func TestRespondFallsBackToSuggester(t *testing.T) {
	ctx := context.Background()
	sug := &fakeSuggester{out: []string{"Когда сессия?"}}
	svc := NewService(seeded(t), WithSuggester(sug), WithMatchesLimit(4), WithLogger(zerolog.Nop()))

	resp, err := svc.Respond(ctx, protocol.InputRequest{Input: "экзамены"})
	require.NoError(t, err)
	assert.Equal(t, protocol.InputResponse{Questions: []string{"Когда сессия?"}}, resp)
	assert.Equal(t, 1, sug.calls)
	assert.Equal(t, 4, sug.limit)

	_, err = svc.Respond(ctx, protocol.InputRequest{Input: "билет"})
	require.NoError(t, err)
	assert.Equal(t, 1, sug.calls, "not consulted when matching finds something")

	sug.err = errors.New("rate limited")
	resp, err = svc.Respond(ctx, protocol.InputRequest{Input: "экзамены"})
	require.NoError(t, err)
	assert.Equal(t, protocol.InputResponse{Questions: []string{}}, resp)
}

func TestRespondQuestion(t *testing.T) {
	svc := NewService(seeded(t), WithPicturesURL("/pics/"), WithLogger(zerolog.Nop()))
	resp, err := svc.Respond(context.Background(), protocol.QuestionRequest{Question: "Где получить студенческий билет?"})
	require.NoError(t, err)
	assert.Equal(t, protocol.QuestionResponse{
		Question: "Где получить студенческий билет?",
		Answer:   "В деканате.<br>Кабинет 101.",
		Pictures: []string{"/pics/dean.png", "/pics/map.jpg"},
	}, resp)

	resp, err = svc.Respond(context.Background(), protocol.QuestionRequest{Question: "Когда сессия?"})
	require.NoError(t, err)
	assert.Equal(t, []string{}, resp.(protocol.QuestionResponse).Pictures)

	_, err = svc.Respond(context.Background(), protocol.QuestionRequest{Question: "Нет такого"})
	assert.True(t, errors.Is(err, store.ErrQuestionNotFound))
}

func TestRespondNil(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), WithLogger(zerolog.Nop()))
	_, err := svc.Respond(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrUnsupportedRequest))
}
