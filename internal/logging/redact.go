package logging

import (
	"encoding/json"
	"strings"
)

const redacted = "***REDACTED***"

var redactKeys = map[string]struct{}{
	"password":       {},
	"privatekey":     {},
	"private_key":    {},
	"secret":         {},
	"secretkey":      {},
	"mnemonic":       {},
	"recoveryphrase": {},
	"seed":           {},
	"signature":      {},
}

// maxPreview bounds how much of an unparseable payload may reach the logs.
const maxPreview = 64

// RedactJSON returns raw with the values of secret-bearing keys replaced.
// Input that is not valid JSON is reduced to a short, masked preview since
// it cannot be scrubbed field by field.
func RedactJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return maskedPreview(raw)
	}

	b, err := json.Marshal(redactValue(v))
	if err != nil {
		return maskedPreview(raw)
	}
	return string(b)
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			if _, ok := redactKeys[strings.ToLower(k)]; ok {
				out[k] = redacted
				continue
			}
			out[k] = redactValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = redactValue(t[i])
		}
		return out
	default:
		return v
	}
}

// maskedPreview keeps only the structural characters of s so a log line can
// show the shape of a broken payload without leaking words or hex.
func maskedPreview(s string) string {
	if len(s) > maxPreview {
		s = s[:maxPreview]
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '{', '}', '[', ']', ':', ',', '"':
			b.WriteRune(r)
		default:
			b.WriteByte('*')
		}
	}
	return b.String()
}
