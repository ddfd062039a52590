// Package terminal renders chat fragments as plain text for the CLI client.
package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"faqchat/internal/markup"
)

// Renderer writes fragments to out. Suggested questions are numbered so the
// user can pick one by typing its number; Choice resolves that number.
type Renderer struct {
	out io.Writer

	botLabel    lipgloss.Style
	userLabel   lipgloss.Style
	choiceStyle lipgloss.Style
	linkStyle   lipgloss.Style

	mu      sync.Mutex
	choices []string
}

var _ markup.Renderer = (*Renderer)(nil)

func New(out io.Writer) *Renderer {
	lr := lipgloss.NewRenderer(out)
	return &Renderer{
		out:         out,
		botLabel:    lr.NewStyle().Bold(true).Foreground(lipgloss.Color("62")),
		userLabel:   lr.NewStyle().Bold(true).Foreground(lipgloss.Color("170")),
		choiceStyle: lr.NewStyle().Foreground(lipgloss.Color("39")),
		linkStyle:   lr.NewStyle().Underline(true),
	}
}

func (r *Renderer) Display(fragment string, opts markup.DisplayOptions) error {
	if opts.Sanitize {
		fragment = markup.Escape(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return errors.Wrap(err, "parse fragment")
	}

	var b strings.Builder
	var choices []string
	r.walk(doc.Find("body"), &b, &choices)
	text := tidy(b.String())

	label := r.botLabel.Render("бот:")
	if opts.Outgoing {
		label = r.userLabel.Render("вы:")
	}
	if _, err := fmt.Fprintf(r.out, "%s %s\n", label, text); err != nil {
		return errors.Wrap(err, "write fragment")
	}

	if len(choices) > 0 {
		r.mu.Lock()
		r.choices = choices
		r.mu.Unlock()
	}
	return nil
}

// Choice returns the question shown as entry n (1-based) of the latest list.
func (r *Renderer) Choice(n int) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < 1 || n > len(r.choices) {
		return "", false
	}
	return r.choices[n-1], true
}

func (r *Renderer) walk(s *goquery.Selection, b *strings.Builder, choices *[]string) {
	s.Contents().Each(func(_ int, n *goquery.Selection) {
		switch goquery.NodeName(n) {
		case "#text":
			b.WriteString(n.Text())
		case "br":
			b.WriteString("\n")
		case "p", "div":
			newline(b)
			r.walk(n, b, choices)
			newline(b)
		case "button":
			if !n.HasClass("question") {
				r.walk(n, b, choices)
				return
			}
			q, ok := n.Attr("data-question")
			if !ok {
				q = n.Text()
			}
			*choices = append(*choices, q)
			newline(b)
			b.WriteString(r.choiceStyle.Render(fmt.Sprintf("  [%d] %s", len(*choices), n.Text())))
			newline(b)
		case "a":
			href, _ := n.Attr("href")
			label := n.Text()
			b.WriteString(r.linkStyle.Render(label))
			if href != "" && href != label {
				b.WriteString(" (" + href + ")")
			}
		case "img":
			src, _ := n.Attr("src")
			newline(b)
			b.WriteString("  [картинка] " + src)
			newline(b)
		default:
			r.walk(n, b, choices)
		}
	})
}

func newline(b *strings.Builder) {
	s := b.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		b.WriteString("\n")
	}
}

func tidy(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	out := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, strings.TrimRight(l, " \t"))
	}
	return strings.Join(out, "\n")
}
