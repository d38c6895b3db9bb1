package detector

// languageProbes map manifest files to languages.
var languageProbes = []struct {
	file     string
	language string
}{
	{"go.mod", "go"},
	{"package.json", "javascript"},
	{"tsconfig.json", "typescript"},
	{"requirements.txt", "python"},
	{"pyproject.toml", "python"},
	{"setup.py", "python"},
	{"Pipfile", "python"},
	{"Cargo.toml", "rust"},
	{"pom.xml", "java"},
	{"build.gradle", "java"},
	{"build.gradle.kts", "kotlin"},
	{"Gemfile", "ruby"},
	{"composer.json", "php"},
	{"mix.exs", "elixir"},
}

// frameworkMarker is one dependency marker inside a manifest file.
type frameworkMarker struct {
	substring string
	framework string
}

// frameworkProbes map dependency manifests to framework markers found in
// their content. Matching is substring-based on the lowercased file.
var frameworkProbes = []struct {
	file    string
	markers []frameworkMarker
}{
	{
		file: "package.json",
		markers: []frameworkMarker{
			{`"react"`, "react"},
			{`"next"`, "nextjs"},
			{`"vue"`, "vue"},
			{`"express"`, "express"},
			{`"@nestjs/core"`, "nestjs"},
			{`"svelte"`, "svelte"},
		},
	},
	{
		file: "requirements.txt",
		markers: []frameworkMarker{
			{"fastapi", "fastapi"},
			{"django", "django"},
			{"flask", "flask"},
		},
	},
	{
		file: "pyproject.toml",
		markers: []frameworkMarker{
			{"fastapi", "fastapi"},
			{"django", "django"},
			{"flask", "flask"},
		},
	},
	{
		file: "go.mod",
		markers: []frameworkMarker{
			{"github.com/gin-gonic/gin", "gin"},
			{"github.com/labstack/echo", "echo"},
			{"github.com/gofiber/fiber", "fiber"},
		},
	},
	{
		file: "Gemfile",
		markers: []frameworkMarker{
			{"rails", "rails"},
		},
	},
}

// cloudProbes map provider-specific files and directories to providers.
var cloudProbes = []struct {
	path     string
	provider string
}{
	{".aws", "aws"},
	{"serverless.yml", "aws"},
	{"serverless.yaml", "aws"},
	{"template.yaml", "aws"},
	{"samconfig.toml", "aws"},
	{"cdk.json", "aws"},
	{"app.yaml", "gcp"},
	{"cloudbuild.yaml", "gcp"},
	{".gcloudignore", "gcp"},
	{"azure-pipelines.yml", "azure"},
	{"host.json", "azure"},
}

// strongMaturityProbes are production-discipline signals. Each probe
// counts at most once, regardless of how many of its paths exist.
var strongMaturityProbes = []struct {
	name  string
	paths []string
}{
	{"ci-cd", []string{".github/workflows", ".gitlab-ci.yml", ".circleci/config.yml", "Jenkinsfile"}},
	{"monitoring", []string{"prometheus.yml", "datadog.yaml", "newrelic.yml", "grafana"}},
	{"security-scanning", []string{".snyk", ".github/dependabot.yml", "trivy.yaml", ".trivyignore"}},
	{"environment-config", []string{".env.production", "config/production.yml", "config/production.yaml", "environments"}},
	{"infrastructure", []string{"terraform", "Dockerfile", "docker-compose.yml", "k8s", "kubernetes"}},
}

// weakMaturityProbes indicate a project past prototype stage.
var weakMaturityProbes = []struct {
	name  string
	paths []string
}{
	{"tests", []string{"tests", "test", "spec", "__tests__"}},
	{"env-config", []string{".env.example", ".env.staging", "config"}},
	{"ci-any", []string{".github/workflows", ".gitlab-ci.yml", ".circleci"}},
	{"containerized", []string{"Dockerfile", "docker-compose.yml"}},
	{"docs", []string{"docs", "CONTRIBUTING.md"}},
}
