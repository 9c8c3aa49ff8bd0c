package i18n

import "fmt"

// Translator retrieves localized messages for validation keywords.
// data provides optional metadata to embed in the message (for example,
// "limit" or "property").
type Translator interface {
	Message(keyword string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(keyword string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch keyword {
		case "required":
			return withProperty("必須プロパティが不足しています", data)
		case "additionalProperties":
			return withProperty("未知のプロパティです", data)
		case "type":
			return "型が不正です"
		case "format":
			return "書式が不正です"
		case "pattern":
			return "パターンに一致しません"
		case "minLength":
			return "短すぎます"
		case "maxLength":
			return "長すぎます"
		case "enum":
			return "許可されていない値です"
		case "minimum", "exclusiveMinimum":
			return withLimit("値が小さすぎます", data)
		case "maximum", "exclusiveMaximum":
			return withLimit("値が大きすぎます", data)
		case "dependencies":
			return withProperty("依存プロパティが不足しています", data)
		case "anyOf":
			return "いずれの条件にも一致しません"
		case "oneOf":
			return "ちょうど一つの条件に一致する必要があります"
		case "not":
			return "禁止された値です"
		}
	default: // "en"
		switch keyword {
		case "required":
			return withProperty("required property missing", data)
		case "additionalProperties":
			return withProperty("additional property not allowed", data)
		case "type":
			return "invalid type"
		case "format":
			return "invalid format"
		case "pattern":
			return "does not match pattern"
		case "minLength":
			return "too short"
		case "maxLength":
			return "too long"
		case "enum":
			return "value not allowed"
		case "minimum":
			return withLimit("must be >=", data)
		case "exclusiveMinimum":
			return withLimit("must be >", data)
		case "maximum":
			return withLimit("must be <=", data)
		case "exclusiveMaximum":
			return withLimit("must be <", data)
		case "dependencies":
			return withProperty("dependent property missing", data)
		case "anyOf":
			return "must match at least one schema in anyOf"
		case "oneOf":
			return "must match exactly one schema in oneOf"
		case "not":
			return "must not be valid against the negated schema"
		}
	}
	return keyword
}

func withProperty(msg string, data map[string]string) string {
	if p := data["property"]; p != "" {
		return fmt.Sprintf("%s: %s", msg, p)
	}
	return msg
}

func withLimit(msg string, data map[string]string) string {
	if l := data["limit"]; l != "" {
		return msg + " " + l
	}
	return msg
}

// For returns the built-in Translator for lang ("en"/"ja"). Unknown languages
// fall back to English.
func For(lang string) Translator {
	if lang != "ja" {
		lang = "en"
	}
	return dictTranslator{lang: lang}
}

// Default is the English Translator.
var Default Translator = dictTranslator{lang: "en"}

// T fetches a message for the given keyword using the English dictionary.
func T(keyword string, data map[string]string) string { return Default.Message(keyword, data) }
