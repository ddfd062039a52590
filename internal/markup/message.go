package markup

import (
	"strings"

	"github.com/pkg/errors"

	"faqchat/internal/protocol"
)

// ErrNotImplemented is returned for a response variant that has no
// rendering. It means a variant was added to the protocol but not here.
var ErrNotImplemented = errors.New("not implemented")

const (
	// NothingFound is shown when the server has no question to suggest.
	NothingFound = "К сожалению, по вашему запросу ничего не найдено. Попробуйте переформулировать вопрос."

	suggestionsIntro = "Возможно, вас интересует:"
)

// Message builds the markup fragment for a response. It is pure; every piece
// of text that did not come from the server as HTML is escaped here.
func Message(resp protocol.Response) (string, error) {
	switch r := resp.(type) {
	case protocol.InputResponse:
		return inputMessage(r), nil
	case protocol.QuestionResponse:
		return questionMessage(r), nil
	default:
		return "", errors.Wrapf(ErrNotImplemented, "message for %T", resp)
	}
}

func inputMessage(r protocol.InputResponse) string {
	if len(r.Questions) == 0 {
		return NothingFound
	}
	var b strings.Builder
	b.WriteString("<p>" + suggestionsIntro + "</p>")
	b.WriteString(`<div class="questions">`)
	for _, q := range r.Questions {
		e := Escape(q)
		b.WriteString(`<button class="question" data-question="` + e + `">` + e + `</button>`)
	}
	b.WriteString("</div>")
	return b.String()
}

func questionMessage(r protocol.QuestionResponse) string {
	var b strings.Builder
	b.WriteString("<p>Ответ на вопрос «" + Escape(r.Question) + "»:</p>")
	b.WriteString("<p>" + r.Answer + "</p>")
	for _, src := range r.Pictures {
		b.WriteString(`<img class="picture" src="` + Escape(src) + `" alt="">`)
	}
	return b.String()
}
