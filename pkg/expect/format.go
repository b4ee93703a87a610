package expect

import (
	"encoding/json"
	"fmt"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

// formatValue renders a value for failure messages. Values are serialized as
// RFC 8785 canonical JSON so equivalent data always renders identically;
// values JSON cannot express fall back to Go syntax.
func formatValue(v any) string {
	if v == nil {
		return "nil"
	}
	if m, ok := v.(AsymmetricMatcher); ok {
		return m.String()
	}
	if err, ok := v.(error); ok {
		return fmt.Sprintf("error(%q)", err.Error())
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	canonical, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return string(raw)
	}
	return string(canonical)
}

// formatArgs renders an argument tuple for mock-call failure messages.
func formatArgs(args []any) string {
	out := "("
	for i, arg := range args {
		if i > 0 {
			out += ", "
		}
		out += formatValue(arg)
	}
	return out + ")"
}
