package markup

import "strings"

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
	"/", "&#x2F;",
	"`", "&#x60;",
	"=", "&#x3D;",
)

// Escape makes s safe to embed as text or as a quoted attribute value.
// Characters other than & < > " ' / ` = are left unchanged.
func Escape(s string) string {
	return escaper.Replace(s)
}
