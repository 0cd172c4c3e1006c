package printform

import (
	"fmt"
	"html"
	"regexp"
)

var tokenPattern = regexp.MustCompile(`\{([A-Za-z0-9_.-]+)\}`)

// Render replaces {name} tokens in template. Values are HTML-escaped. A token
// without a value falls back to its field placeholder and is otherwise left as is.
func Render(template string, fields []Field, data map[string]interface{}) string {
	placeholders := make(map[string]string, len(fields))
	for _, f := range fields {
		if f.Placeholder != "" {
			placeholders[f.Name] = f.Placeholder
		}
	}

	return tokenPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := token[1 : len(token)-1]
		if v, ok := data[name]; ok && v != nil {
			return html.EscapeString(stringify(v))
		}
		if p, ok := placeholders[name]; ok {
			return html.EscapeString(p)
		}
		return token
	})
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		if len(t) > 0 {
			return t[0]
		}
		return ""
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}
