/*
Package intent derives a lightweight UserIntent from a prompt: the topics
it touches, the kind of action requested, and its urgency. The intent is
recomputed for every message and never persisted.
*/
package intent

import (
	"sort"
	"strings"
)

// Action is the kind of work the user is asking for.
type Action string

const (
	ActionImplement Action = "implement"
	ActionFix       Action = "fix"
	ActionRefactor  Action = "refactor"
	ActionReview    Action = "review"
	ActionGeneral   Action = "general"
)

// Urgency marks whether the user signalled time pressure.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyNormal Urgency = "normal"
)

// Intent is the per-message user intent.
type Intent struct {
	Topics  []string
	Action  Action
	Urgency Urgency
}

// topicMarkers maps prompt substrings to canonical catalog topics.
// Several markers may map to the same topic.
var topicMarkers = map[string]string{
	"auth":           "authentication",
	"login":          "authentication",
	"oauth":          "authentication",
	"jwt":            "authentication",
	"session":        "authentication",
	"permission":     "authorization",
	"rbac":           "authorization",
	"access control": "authorization",
	"security":       "security",
	"vulnerab":       "security",
	"encrypt":        "encryption",
	"secret":         "secrets",
	"credential":     "secrets",
	"api key":        "secrets",
	"compliance":     "compliance",
	"gdpr":           "compliance",
	"testing":        "testing",
	"unit test":      "testing",
	"test suite":     "testing",
	"coverage":       "testing",
	"mock":           "testing",
	"api":            "api",
	"endpoint":       "api",
	"rest":           "api",
	"graphql":        "api",
	"database":       "database",
	"query":          "database",
	"migration":      "database",
	"sql":            "database",
	"deploy":         "deployment",
	"release":        "deployment",
	"rollback":       "deployment",
	"ci/cd":          "ci-cd",
	"pipeline":       "ci-cd",
	"github actions": "ci-cd",
	"logging":        "logging",
	"log message":    "logging",
	"log level":      "logging",
	"monitor":        "monitoring",
	"metric":         "monitoring",
	"alert":          "monitoring",
	"performance":    "performance",
	"slow":           "performance",
	"latency":        "performance",
	"optimiz":        "performance",
	"error handling": "error-handling",
	"exception":      "error-handling",
	"retry":          "error-handling",
	"cache":          "caching",
	"caching":        "caching",
	"document":       "documentation",
	"readme":         "documentation",
	"style":          "style",
	"lint":           "style",
	"architecture":   "architecture",
	"design pattern": "patterns",
	"scalab":         "scalability",
	"docker":         "infrastructure",
	"kubernetes":     "infrastructure",
	"terraform":      "infrastructure",
}

// actionMarkers maps verbs to actions, checked in declaration order of
// the actions slice below so that "fix" beats "implement" when both appear.
var actionMarkers = []struct {
	action  Action
	markers []string
}{
	{ActionFix, []string{"fix", "debug", "resolve", "broken", "crash", "error", "bug"}},
	{ActionRefactor, []string{"refactor", "clean up", "cleanup", "restructure", "simplify"}},
	{ActionReview, []string{"review", "feedback on", "critique", "look over"}},
	{ActionImplement, []string{"implement", "build", "create", "add", "write", "develop"}},
}

// urgencyMarkers signal high urgency.
var urgencyMarkers = []string{
	"urgent", "asap", "immediately", "right now", "critical",
	"production is down", "prod is down", "outage", "emergency", "hotfix",
}

// Derive extracts an Intent from prompt text. Topics are returned sorted
// so identical prompts always produce identical intents.
func Derive(text string) Intent {
	lower := strings.ToLower(text)

	seen := make(map[string]bool)
	for marker, topic := range topicMarkers {
		if strings.Contains(lower, marker) {
			seen[topic] = true
		}
	}
	topics := make([]string, 0, len(seen))
	for t := range seen {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	action := ActionGeneral
	for _, am := range actionMarkers {
		for _, m := range am.markers {
			if strings.Contains(lower, m) {
				action = am.action
				break
			}
		}
		if action != ActionGeneral {
			break
		}
	}

	urgency := UrgencyNormal
	for _, m := range urgencyMarkers {
		if strings.Contains(lower, m) {
			urgency = UrgencyHigh
			break
		}
	}

	return Intent{Topics: topics, Action: action, Urgency: urgency}
}

// HasTopic reports whether the intent includes a topic.
func (i Intent) HasTopic(topic string) bool {
	for _, t := range i.Topics {
		if t == topic {
			return true
		}
	}
	return false
}
