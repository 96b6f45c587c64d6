package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/ppiankov/symmetry/internal/api"
	"github.com/ppiankov/symmetry/internal/model"
	"github.com/ppiankov/symmetry/internal/pipeline"
	"github.com/ppiankov/symmetry/internal/ui"
)

func TestRegisterDefaults_EnvOverridesUnsetKeys(t *testing.T) {
	v := viper.New()
	v.SetEnvPrefix("SYMMETRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	t.Setenv("SYMMETRY_CACHE_ENABLED", "false")
	t.Setenv("SYMMETRY_CONCURRENCY_WORKERS", "7")

	if err := registerDefaults(v, model.DefaultSettings()); err != nil {
		t.Fatalf("registerDefaults: %v", err)
	}

	s := model.DefaultSettings()
	if err := v.Unmarshal(s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if s.Cache.Enabled {
		t.Error("SYMMETRY_CACHE_ENABLED=false was ignored")
	}
	if s.Concurrency.Workers != 7 {
		t.Errorf("workers = %d, want 7", s.Concurrency.Workers)
	}
	if s.Liveness.PollInterval != 30*time.Second {
		t.Errorf("poll interval = %v, want default 30s", s.Liveness.PollInterval)
	}
	if len(s.Backend.Args) == 0 || s.Backend.Args[len(s.Backend.Args)-1] != "{port}" {
		t.Errorf("backend args lost: %v", s.Backend.Args)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Penang laksa", "Penang_laksa"},
		{"AC/DC: Live?", "AC_DC__Live_"},
		{"  ", "untitled"},
		{"..", "untitled"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := strings.Repeat("é", 80) // 160 bytes
	got := sanitizeFilename(long)
	if len(got) > 100 || !strings.HasPrefix(long, got) {
		t.Errorf("truncation split a rune or overran: %d bytes", len(got))
	}

	if got := reportBaseName("Laksa", "en", "fr"); got != "Laksa.en-fr" {
		t.Errorf("reportBaseName = %q", got)
	}
}

func TestOperationFor(t *testing.T) {
	tests := []struct {
		err  error
		want ui.Operation
	}{
		{&pipeline.StageError{Stage: pipeline.StageFetch, Err: errors.New("x")}, ui.OpArticleFetch},
		{fmt.Errorf("wrapped: %w", &pipeline.StageError{Stage: pipeline.StageTranslate, Err: errors.New("x")}), ui.OpTranslation},
		{&pipeline.StageError{Stage: pipeline.StageCompare, Err: errors.New("x")}, ui.OpComparison},
		{errors.New("target language is required"), ui.OpComparison},
	}
	for _, tt := range tests {
		if got := operationFor(tt.err); got != tt.want {
			t.Errorf("operationFor(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestWriteDefaultSettings_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := writeDefaultSettings(path); err != nil {
		t.Fatalf("first write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, want := range []string{"SYMMETRY_", "probe_query:", "process_pattern:"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("settings file missing %q", want)
		}
	}
	if strings.Contains(string(data), "api_key") {
		t.Error("API key must never be written to the settings file")
	}

	if err := writeDefaultSettings(path); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
}

// compareBackend answers the compare route only.
func compareBackend(t *testing.T, status int) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var bodies []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != api.PathCompare {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_, _ = w.Write([]byte(`{"comparisons":[{
			"left_article_array":["Laksa is a soup.","It is popular in Penang."],
			"right_article_array":["Le laksa est une soupe."],
			"left_article_missing_info_index":[1],
			"right_article_extra_info_index":[]}]}`))
	}))
	t.Cleanup(server.Close)
	return server, &bodies
}

func writeCompareInputs(t *testing.T, backendURL string) (dir, appCfg, a, b string) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("HOME", dir)

	appCfg = filepath.Join(dir, "config.json")
	if err := os.WriteFile(appCfg, []byte(`{"BACKEND_BASE_URL":"`+backendURL+`"}`), 0644); err != nil {
		t.Fatal(err)
	}
	a = filepath.Join(dir, "laksa.en.txt")
	b = filepath.Join(dir, "laksa.fr.txt")
	if err := os.WriteFile(a, []byte("Laksa is a soup. It is popular in Penang."), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("Le laksa est une soupe."), 0644); err != nil {
		t.Fatal(err)
	}
	return dir, appCfg, a, b
}

func TestCompareCommand_WritesReports(t *testing.T) {
	server, bodies := compareBackend(t, http.StatusOK)
	dir, appCfg, a, b := writeCompareInputs(t, server.URL)
	md := filepath.Join(dir, "out", "laksa.md")

	rootCmd.SetArgs([]string{"compare", a, b,
		"--lang-a", "en", "--lang-b", "fr",
		"--md", md, "--no-cache",
		"--app-config", appCfg,
	})
	if err := Execute(); err != nil {
		t.Fatalf("compare: %v", err)
	}

	data, err := os.ReadFile(md)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(string(data), "It is popular in Penang.") {
		t.Errorf("report missing flagged sentence:\n%s", data)
	}

	if len(*bodies) != 1 {
		t.Fatalf("backend calls = %d, want 1", len(*bodies))
	}
	body := (*bodies)[0]
	if body["article_text_blob_1_language"] != "en" || body["article_text_blob_2_language"] != "fr" {
		t.Errorf("languages not forwarded: %v", body)
	}
	if _, ok := body["comparison_threshold"]; ok {
		t.Error("threshold sent although --threshold was not given")
	}
}

func TestCompareCommand_UserFacingError(t *testing.T) {
	server, _ := compareBackend(t, http.StatusNotFound)
	_, appCfg, a, b := writeCompareInputs(t, server.URL)

	rootCmd.SetArgs([]string{"compare", a, b,
		"--lang-a", "en", "--lang-b", "fr",
		"--md", "", "--no-cache",
		"--app-config", appCfg,
	})
	err := Execute()
	if err == nil {
		t.Fatal("expected error")
	}
	want := "Comparison endpoint not found (404). Verify that the backend is reachable at " + server.URL + "."
	if err.Error() != want {
		t.Errorf("error = %q\nwant    %q", err.Error(), want)
	}
}
