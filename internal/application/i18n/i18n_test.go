package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestMatch(t *testing.T) {
	tr := New("ar")

	assert.Equal(t, language.Arabic, tr.Default())
	assert.Equal(t, language.French, tr.Match("fr"))
	assert.Equal(t, language.English, tr.Match("en-GB,en;q=0.8"))
	assert.Equal(t, language.French, tr.Match("", "fr-CA"))
	assert.Equal(t, language.Arabic, tr.Match("de"))
	assert.Equal(t, language.Arabic, tr.Match())
	assert.Equal(t, language.English, tr.Match("!!", "en"))
}

func TestNew_DefaultLanguage(t *testing.T) {
	assert.Equal(t, language.English, New("en-US").Default())
	assert.Equal(t, language.Arabic, New("klingon").Default())
	assert.Equal(t, language.French, New("fr").Match("de"))
}

func TestT(t *testing.T) {
	tr := New("ar")

	assert.Equal(t, "Financial Report", tr.T(language.English, KeyFinancialReport))
	assert.Equal(t, "Rapport Sommaire", tr.T(language.French, KeySummaryReport))
	assert.Equal(t, "تقرير الفحوصات", tr.T(language.Arabic, KeyTestsReport))
	assert.Equal(t, "Unspecified test", tr.T(tr.Match("en"), KeyUnspecifiedTest))
	assert.Equal(t, "missing_key", tr.T(language.English, "missing_key"))
}

func TestCode(t *testing.T) {
	assert.Equal(t, "fr", Code(language.French))
	assert.Equal(t, "ar", Code(New("ar").Match("ar-SA")))
}
