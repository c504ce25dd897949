package testkit

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode checks the response code, printing the body on mismatch.
func AssertStatusCode(t *testing.T, s *Step, got int, body []byte) {
	t.Helper()
	assert.Equal(t, s.ExpectedCode, got,
		"[%s %s] HTTP status code mismatch\nbody: %s", s.Method, s.URL, string(body))
}

// AssertJSONBody deep-compares actual against expected after decoding both,
// so key order and whitespace never matter.
func AssertJSONBody(t *testing.T, s *Step, expected, actual []byte) {
	t.Helper()
	if len(expected) == 0 {
		return
	}

	var expVal, actVal any
	require.NoError(t, json.Unmarshal(expected, &expVal),
		"[%s] expected response file is not valid JSON", s.Name)

	if !assert.NoError(t, json.Unmarshal(actual, &actVal),
		"[%s] actual response is not valid JSON\nbody: %s", s.Name, string(actual)) {
		return
	}

	assert.Equal(t, expVal, actVal, "[%s] response body mismatch", s.Name)
}

// AssertExpect checks every path in s.Expect against doc. String
// expectations may reference captured variables.
func AssertExpect(t *testing.T, s *Step, doc any, vars Vars) {
	t.Helper()

	for path, want := range s.Expect {
		got, ok := Lookup(doc, path)
		if !assert.True(t, ok, "[%s] path %q not in response", s.Name, path) {
			continue
		}
		if str, isStr := want.(string); isStr {
			expanded, err := vars.Expand(str)
			assert.NoError(t, err, "[%s] expect %q", s.Name, path)
			want = expanded
		}
		assert.Equal(t, want, got, "[%s] %s", s.Name, path)
	}
}

// Lookup walks a decoded JSON document along a dotted path. Numeric
// segments index arrays and "#" yields the length of an array or object.
// The empty path is the document itself.
func Lookup(doc any, path string) (any, bool) {
	if path == "" {
		return doc, true
	}

	cur := doc
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			if seg == "#" {
				cur = float64(len(node))
				continue
			}
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			if seg == "#" {
				cur = float64(len(node))
				continue
			}
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}
