// Package i18n renders status keys through the embedded gettext catalogs.
package i18n

import (
	"embed"
	"fmt"
	"strings"

	"metroterminal/internal/app/msgkey"

	"github.com/leonelquinteros/gotext"
)

//go:embed locales/*.po
var locales embed.FS

const DefaultLanguage = "cs"

type Translator struct {
	po *gotext.Po
}

func Languages() []string {
	return []string{"cs", "en"}
}

func New(lang string) (Translator, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = DefaultLanguage
	}
	raw, err := locales.ReadFile("locales/" + lang + ".po")
	if err != nil {
		return Translator{}, fmt.Errorf("unsupported language %q", lang)
	}
	po := gotext.NewPo()
	po.Parse(raw)
	return Translator{po: po}, nil
}

// Text falls back to the bare key and arguments for an entry the catalog
// does not have.
func (t Translator) Text(key string, args ...any) string {
	if t.po == nil || t.po.Get(key) == key {
		return msgkey.Plain.Text(key, args...)
	}
	return t.po.Get(key, args...)
}
