/*
Package detector infers a project's context (languages, frameworks, cloud
providers, maturity) from read-only filesystem probes of a working
directory.

Detection is deterministic: probes run in fixed table order, directory
listings are already sorted by os.ReadDir, result sets are sorted before
return, and no wall-clock or random input is consulted. Repeated calls
against an unchanged directory produce identical contexts.
*/
package detector

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PaulDuvall/rules-engine/internal/catalog"
)

// Context is the detected project context for one working directory.
type Context struct {
	Languages      []string         `json:"languages"`
	Frameworks     []string         `json:"frameworks"`
	CloudProviders []string         `json:"cloudProviders"`
	Maturity       catalog.Maturity `json:"maturity"`
	Confidence     float64          `json:"confidence"`
}

// HasLanguage reports whether the context includes a language.
func (c *Context) HasLanguage(lang string) bool {
	return contains(c.Languages, lang)
}

// HasFramework reports whether the context includes a framework.
func (c *Context) HasFramework(fw string) bool {
	return contains(c.Frameworks, fw)
}

// HasCloudProvider reports whether the context includes a cloud provider.
func (c *Context) HasCloudProvider(p string) bool {
	return contains(c.CloudProviders, p)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Maturity classification thresholds: production needs at least 3 strong
// signals, pre-production at least 2 weak signals.
const (
	productionStrongSignals  = 3
	preProductionWeakSignals = 2
)

// Confidence is 0.3 with zero signals and grows by 0.1 per signal found,
// capped below 1.0.
const (
	confidenceBase    = 0.3
	confidencePerHit  = 0.1
	confidenceCeiling = 0.95
)

// Detector performs project context detection.
type Detector struct {
	// no state today; kept as a receiver so callers inject it as a
	// collaborator and tests can swap implementations later
}

// New creates a Detector.
func New() *Detector {
	return &Detector{}
}

// Detect inspects dir and returns its project context. A missing or
// unreadable directory yields an empty mvp context rather than an error:
// detection is advisory, not load-bearing.
func (d *Detector) Detect(dir string) *Context {
	ctx := &Context{Maturity: catalog.MaturityMVP}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		ctx.Confidence = confidenceBase
		return ctx
	}

	languages := d.detectLanguages(dir)
	frameworks := d.detectFrameworks(dir)
	clouds := d.detectCloudProviders(dir)
	strong, weak := d.countMaturitySignals(dir)

	sort.Strings(languages)
	sort.Strings(frameworks)
	sort.Strings(clouds)
	ctx.Languages = languages
	ctx.Frameworks = frameworks
	ctx.CloudProviders = clouds

	switch {
	case strong >= productionStrongSignals:
		ctx.Maturity = catalog.MaturityProduction
	case weak >= preProductionWeakSignals:
		ctx.Maturity = catalog.MaturityPreProduction
	default:
		ctx.Maturity = catalog.MaturityMVP
	}

	signals := len(languages) + len(frameworks) + len(clouds) + strong + weak
	confidence := confidenceBase + confidencePerHit*float64(signals)
	if confidence > confidenceCeiling {
		confidence = confidenceCeiling
	}
	ctx.Confidence = confidence

	return ctx
}

// detectLanguages probes for known manifest files.
func (d *Detector) detectLanguages(dir string) []string {
	found := make(map[string]bool)
	for _, probe := range languageProbes {
		if fileExists(filepath.Join(dir, probe.file)) {
			found[probe.language] = true
		}
	}
	// TypeScript implies a JavaScript toolchain but is reported on its own.
	if found["typescript"] {
		delete(found, "javascript")
	}
	return keys(found)
}

// detectFrameworks probes dependency manifests for framework markers.
func (d *Detector) detectFrameworks(dir string) []string {
	found := make(map[string]bool)
	for _, probe := range frameworkProbes {
		data, err := os.ReadFile(filepath.Join(dir, probe.file))
		if err != nil {
			continue
		}
		content := strings.ToLower(string(data))
		for _, marker := range probe.markers {
			if strings.Contains(content, marker.substring) {
				found[marker.framework] = true
			}
		}
	}
	return keys(found)
}

// detectCloudProviders probes for provider-specific config files and dirs.
func (d *Detector) detectCloudProviders(dir string) []string {
	found := make(map[string]bool)
	for _, probe := range cloudProbes {
		if fileExists(filepath.Join(dir, probe.path)) {
			found[probe.provider] = true
		}
	}
	// Terraform configs name their provider inside the files.
	if tfProvider := terraformProvider(dir); tfProvider != "" {
		found[tfProvider] = true
	}
	return keys(found)
}

// terraformProvider reads *.tf files in dir and returns the first known
// provider referenced, in sorted file order for determinism.
func terraformProvider(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries { // os.ReadDir returns sorted entries
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".tf") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		content := string(data)
		for _, p := range []string{"aws", "google", "azurerm"} {
			if strings.Contains(content, `provider "`+p+`"`) {
				switch p {
				case "google":
					return "gcp"
				case "azurerm":
					return "azure"
				default:
					return p
				}
			}
		}
	}
	return ""
}

// countMaturitySignals counts strong and weak maturity signals.
// Strong signals indicate production discipline (CI/CD, monitoring,
// security scanning, environment-specific config, IaC); weak signals
// indicate a project moving past prototype stage.
func (d *Detector) countMaturitySignals(dir string) (strong, weak int) {
	for _, probe := range strongMaturityProbes {
		for _, p := range probe.paths {
			if fileExists(filepath.Join(dir, p)) {
				strong++
				break
			}
		}
	}
	for _, probe := range weakMaturityProbes {
		for _, p := range probe.paths {
			if fileExists(filepath.Join(dir, p)) {
				weak++
				break
			}
		}
	}
	return strong, weak
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
