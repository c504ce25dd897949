// Package testkit drives REST API tests from JSON flow files.
//
// A flow is an ordered list of HTTP steps fired against one http.Handler.
// Steps share variables: a step captures values out of its response body by
// dotted path, and later steps reference them as {{name}} in their URL,
// headers, body and expectations.
//
//	{
//	  "name": "checkout",
//	  "steps": [
//	    {"name": "login", "method": "POST", "url": "/api/auth/login",
//	     "body": {"email": "ada@example.com", "password": "secret"},
//	     "expectedCode": 200, "capture": {"token": "access_token"}},
//	    {"name": "cart", "url": "/api/cart",
//	     "headers": {"Authorization": "Bearer {{token}}"},
//	     "expectedCode": 200, "expect": {"item_count": 0, "items.#": 0}}
//	  ]
//	}
//
// Flow files live next to the _test.go that runs them:
//
//	func TestAPI(t *testing.T) {
//	    testkit.RunEach(t, "testdata", func(t *testing.T) http.Handler {
//	        return newHandler(t)
//	    })
//	}
package testkit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Flow is one test case: a named sequence of steps sharing variables.
type Flow struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Steps       []Step `json:"steps"`

	// directory of the flow file, resolved at load time
	dir string
}

// Step is a single request and the assertions on its response.
type Step struct {
	Name    string            `json:"name"`
	Method  string            `json:"method"` // defaults to GET
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`

	// Body is sent verbatim. BodyFile, relative to the flow file, is used
	// when Body is empty.
	Body     json.RawMessage `json:"body"`
	BodyFile string          `json:"bodyFile"`

	ExpectedCode int `json:"expectedCode"`

	// Expect maps dotted response paths onto the values they must hold.
	// "items.#" is the length of items; "items.0.id" indexes into it.
	Expect map[string]any `json:"expect"`

	// ResponseFile, relative to the flow file, must equal the whole body.
	ResponseFile string `json:"responseFile"`

	// Capture maps variable names onto dotted response paths.
	Capture map[string]string `json:"capture"`
}

// LoadFlow reads and validates a flow from a JSON file.
func LoadFlow(path string) (*Flow, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var f Flow
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}

	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("testkit: invalid flow %q: %w", abs, err)
	}

	f.dir = filepath.Dir(abs)
	return &f, nil
}

// LoadDir loads every *.json file in dir as a Flow, in file name order.
// Files that fail to load are collected as errors.
func LoadDir(dir string) ([]*Flow, []error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(entries) == 0 {
		return nil, []error{fmt.Errorf("testkit: no flow files found in %q", dir)}
	}

	var (
		flows []*Flow
		errs  []error
	)
	for _, path := range entries {
		f, err := LoadFlow(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		flows = append(flows, f)
	}
	return flows, errs
}

func (f *Flow) validate() error {
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(f.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	for i := range f.Steps {
		s := &f.Steps[i]
		if s.URL == "" {
			return fmt.Errorf("steps[%d].url is required", i)
		}
		if s.ExpectedCode == 0 {
			return fmt.Errorf("steps[%d].expectedCode is required", i)
		}
		if s.Method == "" {
			s.Method = http.MethodGet
		}
		s.Method = strings.ToUpper(s.Method)
		if s.Name == "" {
			s.Name = fmt.Sprintf("%02d_%s", i+1, s.Method)
		}
	}
	return nil
}

// path resolves name against the flow file's directory. Returns "" when
// name is empty.
func (f *Flow) path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(f.dir, name)
}
