package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"trace", "trace"},
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"warning", "warn"},
		{"error", "error"},
		{"", "info"},
		{"  nonsense ", "info"},
	}
	for _, c := range cases {
		if got := parseLevel(c.in).String(); got != c.want {
			t.Errorf("parseLevel(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestInitNamed(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "debug", Format: "json", Service: "svc", Writer: &buf})

	Named("blocker").Info().Str("session_id", "abc").Msg("hello")

	out := buf.String()
	for _, want := range []string{`"component":"blocker"`, `"service":"svc"`, `"session_id":"abc"`, `"message":"hello"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
	if Named("") != Get() {
		t.Error("Named(\"\") should return root")
	}
}

func TestMaskNumber(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"123":          "****",
		"+15551234567": "********4567",
	}
	for in, want := range cases {
		if got := MaskNumber(in); got != want {
			t.Errorf("MaskNumber(%q) = %q, want %q", in, got, want)
		}
	}
}
