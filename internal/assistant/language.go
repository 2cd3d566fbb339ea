package assistant

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const fallbackLanguage = "English"

// Language names the caller's preferred language, in English, from an
// Accept-Language header value. Used to tell the model which language to answer in.
func Language(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil {
		return fallbackLanguage
	}

	for _, tag := range tags {
		base, confidence := tag.Base()
		if confidence == language.No || base.String() == "und" {
			continue
		}
		name := display.English.Languages().Name(base)
		if name != "" {
			return name
		}
	}
	return fallbackLanguage
}
