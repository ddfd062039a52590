package markup

import (
	"github.com/pkg/errors"

	"faqchat/internal/protocol"
)

// DisplayOptions controls how a Renderer shows a fragment.
type DisplayOptions struct {
	// Sanitize asks the renderer to Escape the fragment first.
	Sanitize bool
	// Outgoing marks a message written by the user rather than the bot.
	Outgoing bool
}

// Renderer appends fragments to the visible conversation.
type Renderer interface {
	Display(fragment string, opts DisplayOptions) error
}

// Picker returns a uniform random index in [0, n).
type Picker interface {
	Intn(n int) int
}

// Invitations is the pool one follow-up line is drawn from after an answer.
var Invitations = [3]string{
	"Остались вопросы? Спрашивайте!",
	"Если хотите узнать что-то ещё, просто напишите.",
	"Могу ещё чем-нибудь помочь?",
}

// Render displays the message for resp. Answers are followed by a separate
// invitation to keep asking.
func Render(r Renderer, resp protocol.Response, pick Picker) error {
	msg, err := Message(resp)
	if err != nil {
		return err
	}
	if err := r.Display(msg, DisplayOptions{}); err != nil {
		return errors.Wrap(err, "display response")
	}
	if _, ok := resp.(protocol.QuestionResponse); !ok {
		return nil
	}
	invitation := Invitations[pick.Intn(len(Invitations))]
	if err := r.Display(invitation, DisplayOptions{}); err != nil {
		return errors.Wrap(err, "display invitation")
	}
	return nil
}
