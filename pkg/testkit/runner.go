package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"strings"
	"testing"
)

// Vars holds the values captured so far in a flow.
type Vars map[string]string

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// Expand substitutes every {{name}} in s. Unknown names are reported and
// left in place.
func (v Vars) Expand(s string) (string, error) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		val, ok := v[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return val
	})
	if len(missing) > 0 {
		return out, fmt.Errorf("undefined variables: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// Run loads one flow file and runs it against handler.
func Run(t *testing.T, handler http.Handler, path string) {
	t.Helper()

	f, err := LoadFlow(path)
	if err != nil {
		t.Fatalf("testkit: load flow %q: %v", path, err)
	}
	t.Run(f.Name, func(t *testing.T) {
		RunFlow(t, handler, f)
	})
}

// RunDir runs every flow in dir against the same handler, so state left by
// one flow is visible to the next.
func RunDir(t *testing.T, handler http.Handler, dir string) {
	t.Helper()
	RunEach(t, dir, func(*testing.T) http.Handler { return handler })
}

// RunEach runs every flow in dir as a subtest, each against a handler built
// fresh by newHandler.
func RunEach(t *testing.T, dir string, newHandler func(t *testing.T) http.Handler) {
	t.Helper()

	flows, errs := LoadDir(dir)
	for _, err := range errs {
		t.Errorf("%v", err)
	}
	for _, f := range flows {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			RunFlow(t, newHandler(t), f)
		})
	}
}

// RunFlow fires f's steps in order. A failing step stops the flow, since
// later steps usually depend on what it would have captured.
func RunFlow(t *testing.T, handler http.Handler, f *Flow) Vars {
	t.Helper()

	vars := Vars{}
	for i := range f.Steps {
		step := &f.Steps[i]
		if !t.Run(step.Name, func(t *testing.T) {
			runStep(t, handler, f, step, vars)
		}) {
			break
		}
	}
	return vars
}

func runStep(t *testing.T, handler http.Handler, f *Flow, s *Step, vars Vars) {
	t.Helper()

	url, err := vars.Expand(s.URL)
	if err != nil {
		t.Fatalf("url: %v", err)
	}

	body, err := requestBody(f, s, vars)
	if err != nil {
		t.Fatalf("body: %v", err)
	}

	req := httptest.NewRequest(s.Method, url, body)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range s.Headers {
		val, err := vars.Expand(v)
		if err != nil {
			t.Fatalf("header %s: %v", k, err)
		}
		req.Header.Set(k, val)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	AssertStatusCode(t, s, rec.Code, rec.Body.Bytes())

	if p := f.path(s.ResponseFile); p != "" {
		expected, err := os.ReadFile(p)
		if err != nil {
			t.Errorf("read response file %q: %v", p, err)
		} else {
			AssertJSONBody(t, s, expected, rec.Body.Bytes())
		}
	}

	if len(s.Expect) == 0 && len(s.Capture) == 0 {
		return
	}

	var doc any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("response is not JSON: %v\nbody: %s", err, rec.Body.String())
	}
	AssertExpect(t, s, doc, vars)

	for name, path := range s.Capture {
		val, ok := Lookup(doc, path)
		if !ok {
			t.Fatalf("capture %s: path %q not in response\nbody: %s", name, path, rec.Body.String())
		}
		vars[name] = stringify(val)
	}
}

func requestBody(f *Flow, s *Step, vars Vars) (io.Reader, error) {
	raw := []byte(s.Body)
	if len(raw) == 0 && s.BodyFile != "" {
		data, err := os.ReadFile(f.path(s.BodyFile))
		if err != nil {
			return nil, err
		}
		raw = data
	}
	if len(raw) == 0 {
		return nil, nil
	}

	expanded, err := vars.Expand(string(raw))
	if err != nil {
		return nil, err
	}
	return bytes.NewReader([]byte(expanded)), nil
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, _ := json.Marshal(v)
	return string(b)
}
