package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// JQ runs a jq program over a JSON document and returns the stringified
// non-null results.
func JQ(data []byte, expr string) ([]string, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}

	var input any
	err = json.Unmarshal(data, &input)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON data: %w", err)
	}

	var values []string
	iter := code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, err
		}
		if v == nil {
			continue
		}
		values = append(values, stringify(v))
	}
	return values, nil
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	rendered, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(rendered)
}

// translates a dot-separated key path into a jq program. an array
// encountered at any step maps the remaining keys over its elements.
func dotPathProgram(path string) string {
	var b strings.Builder
	b.WriteString(".")
	for _, key := range strings.Split(path, ".") {
		fmt.Fprintf(&b, ` | if type == "array" then .[] else . end | .[%q]?`, key)
	}
	b.WriteString(` | if type == "array" then .[] else . end | select(. != null)`)
	return b.String()
}

// JSONValues resolves a dot-separated key path (`productData.name`,
// `galleryImages.imageData.src`) against a JSON document. Values are
// trimmed and deduplicated preserving first-seen order; keys missing
// from the document yield no values rather than an error.
func JSONValues(data []byte, path string) ([]string, error) {
	values, err := JQ(data, dotPathProgram(path))
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var unique []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		unique = append(unique, v)
	}
	return unique, nil
}

// JSONValue is the joined form of JSONValues: a single value is returned
// bare, several are joined with "; ", none yields "".
func JSONValue(data []byte, path string) (string, error) {
	values, err := JSONValues(data, path)
	if err != nil {
		return "", err
	}
	return strings.Join(values, "; "), nil
}
