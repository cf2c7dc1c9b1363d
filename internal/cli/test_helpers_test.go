package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// contentServer serves a two-book catalog and counts unit requests.
type contentServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests map[string]int
	failing  map[string]bool
}

func newContentServer(t *testing.T) *contentServer {
	t.Helper()
	cs := &contentServer{requests: make(map[string]int), failing: make(map[string]bool)}

	books := map[string][][]string{
		"GEN": {
			{"In the beginning God created the heaven and the earth.", "And the earth was without form, and void."},
			{"Thus the heavens and the earth were finished."},
		},
		"EXO": {
			{"Now these are the names of the children of Israel."},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/data/meta.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"books":[["GEN","Genesis"],["EXO","Exodus"]]}`)
	})
	mux.HandleFunc("/data/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/data/book_"), ".json")

		cs.mu.Lock()
		cs.requests[id]++
		failing := cs.failing[id]
		cs.mu.Unlock()

		chapters, ok := books[id]
		if failing {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"chapters": chapters})
	})

	cs.Server = httptest.NewServer(mux)
	t.Cleanup(cs.Close)
	return cs
}

func (cs *contentServer) fail(id string) {
	cs.mu.Lock()
	cs.failing[id] = true
	cs.mu.Unlock()
}

func (cs *contentServer) count(id string) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.requests[id]
}

// writeTestConfig writes a config pointing at url with a temp cache and log.
func writeTestConfig(t *testing.T, url string) string {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf(`source:
  url: %s
  timeout: 5s
cache:
  dir: %s
sync:
  delay: 0s
progress:
  debounce: 10ms
logging:
  file: %s
  level: debug
`, url, filepath.Join(dir, "cache"), filepath.Join(dir, "lectio.log"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// run executes the CLI with the test config and returns stdout.
func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	var err error
	out := captureOutput(t, func() {
		err = RunWithArgs("test", append([]string{"--config", cfgPath}, args...))
	})
	return out, err
}

// runJSON executes the CLI in JSON mode and decodes stdout into dest.
func runJSON(t *testing.T, cfgPath string, dest any, args ...string) error {
	t.Helper()
	out, err := run(t, cfgPath, append([]string{"--json"}, args...)...)
	if out != "" {
		require.NoError(t, json.Unmarshal([]byte(out), dest), out)
	}
	return err
}
