package translation

import "fmt"

// Field names as they appear in the request body.
const (
	FieldSentence       = "sentence"
	FieldTargetLanguage = "targetLanguage"
)

// Request is a validated translation request.
type Request struct {
	Sentence       string
	TargetLanguage string
}

// ValidationError names the first request field that is missing or malformed.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required.", e.Field)
}

// Validate turns loosely typed input into a Request. Both values must be non-empty strings;
// sentence is checked first.
func Validate(sentence, targetLanguage any) (Request, *ValidationError) {
	s, ok := nonEmptyString(sentence)
	if !ok {
		return Request{}, &ValidationError{Field: FieldSentence}
	}
	lang, ok := nonEmptyString(targetLanguage)
	if !ok {
		return Request{}, &ValidationError{Field: FieldTargetLanguage}
	}
	return Request{Sentence: s, TargetLanguage: lang}, nil
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || len(s) == 0 {
		return "", false
	}
	return s, true
}
