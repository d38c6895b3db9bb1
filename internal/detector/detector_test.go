package detector

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/PaulDuvall/rules-engine/internal/catalog"
)

// writeFile creates a file (and parent dirs) under root.
func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestDetect_Languages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "requirements.txt", "fastapi==0.100.0\n")
	writeFile(t, dir, "go.mod", "module example.com/svc\n")

	ctx := New().Detect(dir)

	want := []string{"go", "python"}
	if !reflect.DeepEqual(ctx.Languages, want) {
		t.Errorf("Languages = %v, want %v", ctx.Languages, want)
	}
}

func TestDetect_TypeScriptSubsumesJavaScript(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"dependencies":{}}`)
	writeFile(t, dir, "tsconfig.json", `{}`)

	ctx := New().Detect(dir)

	if !ctx.HasLanguage("typescript") {
		t.Error("expected typescript")
	}
	if ctx.HasLanguage("javascript") {
		t.Error("typescript project must not also report javascript")
	}
}

func TestDetect_Frameworks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "requirements.txt", "fastapi==0.100.0\nuvicorn\n")
	writeFile(t, dir, "package.json", `{"dependencies":{"react":"^18.0.0"}}`)

	ctx := New().Detect(dir)

	if !ctx.HasFramework("fastapi") {
		t.Errorf("expected fastapi in %v", ctx.Frameworks)
	}
	if !ctx.HasFramework("react") {
		t.Errorf("expected react in %v", ctx.Frameworks)
	}
}

func TestDetect_CloudProviders(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "serverless.yml", "service: api\n")
	writeFile(t, dir, "main.tf", "provider \"google\" {}\n")

	ctx := New().Detect(dir)

	want := []string{"aws", "gcp"}
	if !reflect.DeepEqual(ctx.CloudProviders, want) {
		t.Errorf("CloudProviders = %v, want %v", ctx.CloudProviders, want)
	}
}

func TestDetect_MaturityProduction(t *testing.T) {
	dir := t.TempDir()
	// Three strong signals: CI, monitoring, infrastructure.
	writeFile(t, dir, ".github/workflows/ci.yml", "on: push\n")
	writeFile(t, dir, "prometheus.yml", "scrape_configs: []\n")
	writeFile(t, dir, "Dockerfile", "FROM alpine\n")

	ctx := New().Detect(dir)

	if ctx.Maturity != catalog.MaturityProduction {
		t.Errorf("Maturity = %s, want production", ctx.Maturity)
	}
}

func TestDetect_MaturityPreProduction(t *testing.T) {
	dir := t.TempDir()
	// Two weak signals (tests, docs) but fewer than three strong ones.
	writeFile(t, dir, "tests/test_app.py", "")
	writeFile(t, dir, "docs/readme.md", "")

	ctx := New().Detect(dir)

	if ctx.Maturity != catalog.MaturityPreProduction {
		t.Errorf("Maturity = %s, want pre-production", ctx.Maturity)
	}
}

func TestDetect_MaturityDefaultMVP(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py", "print('hi')\n")

	ctx := New().Detect(dir)

	if ctx.Maturity != catalog.MaturityMVP {
		t.Errorf("Maturity = %s, want mvp", ctx.Maturity)
	}
}

func TestDetect_ConfidenceMonotone(t *testing.T) {
	empty := t.TempDir()
	emptyCtx := New().Detect(empty)
	if emptyCtx.Confidence >= 0.5 {
		t.Errorf("empty dir confidence = %.2f, want < 0.5", emptyCtx.Confidence)
	}

	rich := t.TempDir()
	writeFile(t, rich, "go.mod", "module example.com/svc\nrequire github.com/gin-gonic/gin v1.9.0\n")
	writeFile(t, rich, ".github/workflows/ci.yml", "on: push\n")
	writeFile(t, rich, "Dockerfile", "FROM alpine\n")
	richCtx := New().Detect(rich)

	if richCtx.Confidence <= emptyCtx.Confidence {
		t.Errorf("confidence not monotone: rich %.2f <= empty %.2f",
			richCtx.Confidence, emptyCtx.Confidence)
	}
	if richCtx.Confidence > 0.95 {
		t.Errorf("confidence %.2f exceeds ceiling", richCtx.Confidence)
	}
}

func TestDetect_Deterministic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "requirements.txt", "django\n")
	writeFile(t, dir, "package.json", `{"dependencies":{"express":"^4"}}`)
	writeFile(t, dir, "serverless.yml", "")
	writeFile(t, dir, "tests/test.py", "")

	d := New()
	first := d.Detect(dir)
	for i := 0; i < 5; i++ {
		if again := d.Detect(dir); !reflect.DeepEqual(first, again) {
			t.Fatalf("detection not deterministic:\n%+v\n%+v", first, again)
		}
	}
}

func TestDetect_MissingDirectory(t *testing.T) {
	ctx := New().Detect("/nonexistent/path/for/sure")

	if ctx.Maturity != catalog.MaturityMVP {
		t.Errorf("Maturity = %s, want mvp", ctx.Maturity)
	}
	if len(ctx.Languages) != 0 || len(ctx.Frameworks) != 0 {
		t.Error("missing directory must yield an empty context")
	}
}
