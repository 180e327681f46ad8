// Package lang maps the ISO 639-1 codes used on pipeline artifacts to the
// tags each collaborator expects: the recognition CLI wants bare ISO codes
// while IndicTrans2-style translation servers want Flores-200 tags such as
// kan_Knda. The registry covers the Indic pairs the pipeline targets plus
// English, the usual pivot.
package lang

import "strings"

type entry struct {
	code    string // ISO 639-1
	flores  string // Flores-200 / IndicTrans2 tag
	display string
}

var languages = []entry{
	{"kn", "kan_Knda", "Kannada"},
	{"hi", "hin_Deva", "Hindi"},
	{"en", "eng_Latn", "English"},
	{"ta", "tam_Taml", "Tamil"},
	{"te", "tel_Telu", "Telugu"},
	{"ml", "mal_Mlym", "Malayalam"},
	{"mr", "mar_Deva", "Marathi"},
	{"bn", "ben_Beng", "Bengali"},
	{"gu", "guj_Gujr", "Gujarati"},
	{"pa", "pan_Guru", "Punjabi"},
	{"ur", "urd_Arab", "Urdu"},
	{"or", "ory_Orya", "Odia"},
	{"as", "asm_Beng", "Assamese"},
}

var (
	byCode   map[string]*entry
	byFlores map[string]*entry
)

func init() {
	byCode = make(map[string]*entry, len(languages))
	byFlores = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode[e.code] = e
		byFlores[strings.ToLower(e.flores)] = e
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode[code]; ok {
		return e
	}
	if e, ok := byFlores[code]; ok {
		return e
	}
	return nil
}

// Known reports whether code resolves to a registered language.
func Known(code string) bool { return lookup(code) != nil }

// ISO2 normalizes code (ISO or Flores form) to its ISO 639-1 tag, or ""
// when unknown.
func ISO2(code string) string {
	if e := lookup(code); e != nil {
		return e.code
	}
	return ""
}

// Flores returns the Flores-200 tag for code, or "" when unknown.
func Flores(code string) string {
	if e := lookup(code); e != nil {
		return e.flores
	}
	return ""
}

// Display returns the human-readable name for code, falling back to the
// raw code so log lines stay informative for unregistered languages.
func Display(code string) string {
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.TrimSpace(code)
}
