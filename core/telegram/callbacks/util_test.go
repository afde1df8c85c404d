package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		unique  string
		payload string
	}{
		{"unique and payload", "\fchrwiz|character|create|start|1|0", "chrwiz", "character|create|start|1|0"},
		{"escaped prefix", "\\fchrwiz|payload", "chrwiz", "payload"},
		{"unique only", "\fchrwiz", "chrwiz", ""},
		{"no prefix", "chrwiz|payload", "chrwiz", "payload"},
		{"empty", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			unique, payload := ParseCallbackData(&tele.Callback{Data: tc.data})
			if unique != tc.unique || payload != tc.payload {
				t.Fatalf("got (%q, %q), want (%q, %q)", unique, payload, tc.unique, tc.payload)
			}
		})
	}
}

func TestParseCallbackDataNil(t *testing.T) {
	unique, payload := ParseCallbackData(nil)
	if unique != "" || payload != "" {
		t.Fatalf("nil callback should parse empty, got (%q, %q)", unique, payload)
	}
}
