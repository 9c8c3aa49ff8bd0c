package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("type", nil); msg == "type" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	ja := For("ja")
	if msg := ja.Message("type", nil); msg == "invalid type" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	if msg := For("fr").Message("type", nil); msg != "invalid type" {
		t.Fatalf("expected english fallback, got %q", msg)
	}
}

func TestTranslator_EmbedsData(t *testing.T) {
	if msg := T("required", map[string]string{"property": "ResultUnit"}); msg != "required property missing: ResultUnit" {
		t.Fatalf("unexpected message: %q", msg)
	}
	if msg := T("minimum", map[string]string{"limit": "0"}); msg != "must be >= 0" {
		t.Fatalf("unexpected message: %q", msg)
	}
	if msg := T("somethingElse", nil); msg != "somethingElse" {
		t.Fatalf("expected keyword passthrough, got %q", msg)
	}
}
