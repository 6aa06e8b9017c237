// Package i18n negotiates the report language and holds the report
// message catalog.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	KeyPatientReport       = "patient_report"
	KeyFinancialReport     = "financial_report"
	KeyTestsReport         = "tests_report"
	KeySummaryReport       = "summary_report"
	KeyUnspecifiedTest     = "unspecified_test"
	KeyNoDescription       = "no_description"
	KeyUnspecifiedHospital = "unspecified_hospital"
)

// Supported lists the languages with a message table.
var Supported = []language.Tag{language.Arabic, language.English, language.French}

var messages = map[string]map[language.Tag]string{
	KeyPatientReport: {
		language.Arabic:  "تقرير نتائج المرضى",
		language.English: "Patient Results Report",
		language.French:  "Rapport Résultats Patient",
	},
	KeyFinancialReport: {
		language.Arabic:  "التقرير المالي",
		language.English: "Financial Report",
		language.French:  "Rapport Financier",
	},
	KeyTestsReport: {
		language.Arabic:  "تقرير الفحوصات",
		language.English: "Tests Report",
		language.French:  "Rapport des Tests",
	},
	KeySummaryReport: {
		language.Arabic:  "التقرير الإجمالي",
		language.English: "Summary Report",
		language.French:  "Rapport Sommaire",
	},
	KeyUnspecifiedTest: {
		language.Arabic:  "فحص غير محدد",
		language.English: "Unspecified test",
		language.French:  "Test non spécifié",
	},
	KeyNoDescription: {
		language.Arabic:  "لا يوجد وصف",
		language.English: "No description",
		language.French:  "Aucune description",
	},
	KeyUnspecifiedHospital: {
		language.Arabic:  "مستشفى غير محدد",
		language.English: "Unspecified hospital",
		language.French:  "Hôpital non spécifié",
	},
}

// Translator picks a supported language for a request and renders
// messages in it.
type Translator struct {
	tags     []language.Tag
	matcher  language.Matcher
	catalog  *catalog.Builder
	fallback language.Tag
}

// New builds a translator whose fallback is defaultLang. An unknown
// default falls back to Arabic.
func New(defaultLang string) *Translator {
	fallback := language.Arabic
	if tag, err := language.Parse(defaultLang); err == nil {
		_, idx, conf := language.NewMatcher(Supported).Match(tag)
		if conf != language.No {
			fallback = Supported[idx]
		}
	}

	// The matcher treats its first tag as the default.
	tags := []language.Tag{fallback}
	for _, tag := range Supported {
		if tag != fallback {
			tags = append(tags, tag)
		}
	}

	cat := catalog.NewBuilder(catalog.Fallback(fallback))
	for key, byTag := range messages {
		for tag, text := range byTag {
			// Keys and tags are fixed above, so SetString cannot fail.
			_ = cat.SetString(tag, key, text)
		}
	}

	return &Translator{
		tags:     tags,
		matcher:  language.NewMatcher(tags),
		catalog:  cat,
		fallback: fallback,
	}
}

// Default returns the fallback language.
func (t *Translator) Default() language.Tag {
	return t.fallback
}

// Match returns the best supported language for the given preferences.
// Each preference may be a plain tag ("fr") or an Accept-Language header
// value. The first preference that matches wins; none yields the default.
func (t *Translator) Match(preferences ...string) language.Tag {
	for _, pref := range preferences {
		pref = strings.TrimSpace(pref)
		if pref == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(pref)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, idx, conf := t.matcher.Match(tags...)
		if conf != language.No {
			return t.tags[idx]
		}
	}
	return t.fallback
}

// T renders key in tag. Keys without a message come back unchanged.
func (t *Translator) T(tag language.Tag, key string, args ...interface{}) string {
	p := message.NewPrinter(tag, message.Catalog(t.catalog))
	return p.Sprintf(message.Key(key, key), args...)
}

// Code returns the short language code used in cache keys and reports.
func Code(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}
