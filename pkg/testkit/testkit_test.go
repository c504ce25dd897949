package testkit_test

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier/storefront/pkg/testkit"
)

// sessionHandler issues a token on POST /login and requires it on GET /me.
var sessionHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/login":
		var in struct {
			User string `json:"user"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.User == "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"detail":"user is required"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"token": "tok-" + in.User, "expires_in": 60})
	case r.Method == http.MethodGet && r.URL.Path == "/me":
		if r.Header.Get("Authorization") != "Bearer tok-ada" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Not authenticated"}`))
			return
		}
		_, _ = w.Write([]byte(`{"user":{"name":"ada","roles":["admin","buyer"]}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not Found"}`))
	}
})

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sessionFlow = `{
  "name": "session",
  "steps": [
    {"name": "anonymous", "url": "/me", "expectedCode": 401,
     "expect": {"detail": "Not authenticated"}},
    {"name": "login", "method": "post", "url": "/login",
     "body": {"user": "ada"}, "expectedCode": 200,
     "capture": {"token": "token", "ttl": "expires_in"}},
    {"name": "me", "url": "/me",
     "headers": {"Authorization": "Bearer {{token}}"}, "expectedCode": 200,
     "expect": {"user.name": "ada", "user.roles.#": 2, "user.roles.1": "buyer"}},
    {"name": "me exact", "url": "/me",
     "headers": {"Authorization": "Bearer {{token}}"}, "expectedCode": 200,
     "responseFile": "fixtures/me_res.json"}
  ]
}`

func writeFixtures(t *testing.T, dir string) {
	t.Helper()
	fixtures := filepath.Join(dir, "fixtures")
	require.NoError(t, os.MkdirAll(fixtures, 0o755))
	writeFile(t, fixtures, "me_res.json", `{"user": {"roles": ["admin", "buyer"], "name": "ada"}}`)
	writeFile(t, fixtures, "login_req.json", `{"user": ""}`)
}

func TestRunFlowCapturesAndExpands(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	path := writeFile(t, dir, "session.json", sessionFlow)

	f, err := testkit.LoadFlow(path)
	require.NoError(t, err)

	vars := testkit.RunFlow(t, sessionHandler, f)
	assert.Equal(t, "tok-ada", vars["token"])
	assert.Equal(t, "60", vars["ttl"])
}

func TestRunDir(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	writeFile(t, dir, "session.json", sessionFlow)
	writeFile(t, dir, "validation.json", `{
	  "name": "validation",
	  "steps": [{"method": "POST", "url": "/login", "bodyFile": "fixtures/login_req.json", "expectedCode": 422}]
	}`)

	testkit.RunDir(t, sessionHandler, dir)
}

func TestLoadFlowDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "health.json", `{
	  "name": "health",
	  "steps": [{"url": "/health", "expectedCode": 200}]
	}`)

	f, err := testkit.LoadFlow(path)
	require.NoError(t, err)
	require.Len(t, f.Steps, 1)
	assert.Equal(t, http.MethodGet, f.Steps[0].Method)
	assert.Equal(t, "01_GET", f.Steps[0].Name)
}

func TestLoadFlowRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"no name":  `{"steps": [{"url": "/", "expectedCode": 200}]}`,
		"no steps": `{"name": "empty"}`,
		"no url":   `{"name": "x", "steps": [{"expectedCode": 200}]}`,
		"no code":  `{"name": "x", "steps": [{"url": "/"}]}`,
		"not json": `{"name": `,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "flow.json", body)
			_, err := testkit.LoadFlow(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadDirEmpty(t *testing.T) {
	flows, errs := testkit.LoadDir(t.TempDir())
	assert.Empty(t, flows)
	assert.Len(t, errs, 1)
}

func TestVarsExpand(t *testing.T) {
	vars := testkit.Vars{"id": "42", "token": "abc"}

	out, err := vars.Expand("/orders/{{id}}?t={{ token }}")
	require.NoError(t, err)
	assert.Equal(t, "/orders/42?t=abc", out)

	out, err = vars.Expand("/orders/{{missing}}")
	assert.Error(t, err)
	assert.Equal(t, "/orders/{{missing}}", out)
}

func TestLookup(t *testing.T) {
	var doc any
	require.NoError(t, json.Unmarshal([]byte(`{"items":[{"id":"a","qty":2}],"meta":{"k":1,"v":2}}`), &doc))

	cases := []struct {
		path string
		want any
		ok   bool
	}{
		{"items.#", 1.0, true},
		{"items.0.id", "a", true},
		{"items.0.qty", 2.0, true},
		{"meta.#", 2.0, true},
		{"items.1", nil, false},
		{"items.x", nil, false},
		{"missing", nil, false},
		{"items.0.id.deeper", nil, false},
	}
	for _, tc := range cases {
		got, ok := testkit.Lookup(doc, tc.path)
		assert.Equal(t, tc.ok, ok, tc.path)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.path)
		}
	}

	root, ok := testkit.Lookup(doc, "")
	assert.True(t, ok)
	assert.Equal(t, doc, root)
}
