package services

import "unicode/utf8"

const DefaultMinTextLength = 50

// QualityGate decides whether extracted text is worth sending for analysis.
type QualityGate struct {
	MinLength int
}

func NewQualityGate(minLength int) QualityGate {
	if minLength < 1 {
		minLength = DefaultMinTextLength
	}
	return QualityGate{MinLength: minLength}
}

// IsMeaningful is true when text has at least MinLength characters.
func (g QualityGate) IsMeaningful(text string) bool {
	return text != "" && utf8.RuneCountInString(text) >= g.MinLength
}
