package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

var errInvalidJSON = errors.New("invalid JSON body")

// readQuery extracts the scan query from a request body. JSON, text and
// urlencoded bodies are accepted; anything else yields an empty query.
func readQuery(w http.ResponseWriter, req *http.Request) (string, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, req.Body, MaxBodySize))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type")) //nolint:errcheck // empty type on error
	switch {
	case mediaType == "application/json":
		return queryFromJSON(data)
	case strings.HasPrefix(mediaType, "text/") || isJSONSuffix(mediaType):
		return queryFromText(string(data)), nil
	case mediaType == "application/x-www-form-urlencoded":
		form, err := url.ParseQuery(string(data))
		if err != nil {
			return "", fmt.Errorf("parse form: %w", err)
		}
		return form.Get("query"), nil
	default:
		return "", nil
	}
}

// isJSONSuffix matches structured types such as application/vnd.api+json.
func isJSONSuffix(mediaType string) bool {
	return strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json")
}

// queryFromJSON accepts only objects and arrays; an empty body is an empty query.
func queryFromJSON(data []byte) (string, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return "", nil
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return "", errInvalidJSON
	}

	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return "", errInvalidJSON
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return "", nil
	}
	return stringify(obj["query"]), nil
}

// queryFromText treats a body that looks like a JSON object as one, ignoring
// parse failures; any other text is the query itself.
func queryFromText(body string) string {
	t := strings.TrimSpace(body)
	if strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(t), &obj); err != nil {
			return ""
		}
		if s, ok := obj["query"].(string); ok {
			return s
		}
		return ""
	}
	return body
}

// stringify renders a non-string query value; falsy values become "".
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return ""
	case float64:
		if x == 0 {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}
