package llm

import "testing"

func TestCoerce(t *testing.T) {
	cases := []struct {
		name    string
		reply   string
		raw     bool
		summary string
	}{
		{"plain object", `{"summary":"ok"}`, false, "ok"},
		{"whitespace", "\n  {\"summary\":\"ok\"}  \n", false, "ok"},
		{"fenced", "Here you go:\n```json\n{\"summary\":\"S\",\"feedback\":{}}\n```", false, "S"},
		{"prose only", "Sorry, I can't help.", true, ""},
		{"empty", "", true, ""},
		{"array", `["a","b"]`, true, ""},
		{"broken span", "{ not json }", true, ""},
		{"two objects", `{"a":1} and {"b":2}`, true, ""},
		{"nested braces", `x {"summary":"a {b}"} y`, false, "a {b}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := Coerce(tc.reply)
			if m == nil {
				t.Fatal("Coerce returned nil")
			}
			if IsRaw(m) != tc.raw {
				t.Fatalf("IsRaw = %v, want %v (%v)", IsRaw(m), tc.raw, m)
			}
			if tc.raw {
				if m[RawKey] != tc.reply {
					t.Errorf("raw = %q, want verbatim reply", m[RawKey])
				}
				return
			}
			if m["summary"] != tc.summary {
				t.Errorf("summary = %v", m["summary"])
			}
		})
	}
}

func TestContainsJSONObject(t *testing.T) {
	if ContainsJSONObject("no braces here") {
		t.Error("expected false")
	}
	if !ContainsJSONObject(`prefix {"summary": ""} suffix`) {
		t.Error("expected true")
	}
}
