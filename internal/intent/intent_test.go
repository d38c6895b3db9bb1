package intent

import (
	"reflect"
	"testing"
)

func TestDerive_Topics(t *testing.T) {
	it := Derive("Add OAuth login and store the api key somewhere safe")

	for _, want := range []string{"authentication", "secrets"} {
		if !it.HasTopic(want) {
			t.Errorf("expected topic %q in %v", want, it.Topics)
		}
	}
}

func TestDerive_TopicsSortedAndDeterministic(t *testing.T) {
	text := "Deploy the caching layer and add monitoring alerts"

	first := Derive(text)
	for i := 0; i < 5; i++ {
		again := Derive(text)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Derive not deterministic: %+v then %+v", first, again)
		}
	}

	for i := 1; i < len(first.Topics); i++ {
		if first.Topics[i-1] >= first.Topics[i] {
			t.Fatalf("topics not sorted: %v", first.Topics)
		}
	}
}

func TestDerive_MarkersDoNotMatchInsideWords(t *testing.T) {
	// "login", "catalog", and "latest" carry substrings of shorter marker
	// candidates; they must not contribute logging or testing topics.
	it := Derive("Fix the login page listed in the catalog with the latest styles")
	for _, bogus := range []string{"logging", "testing"} {
		if it.HasTopic(bogus) {
			t.Errorf("spurious topic %q in %v", bogus, it.Topics)
		}
	}

	it = Derive("Raise the log level and improve logging in the unit tests")
	for _, want := range []string{"logging", "testing"} {
		if !it.HasTopic(want) {
			t.Errorf("expected topic %q in %v", want, it.Topics)
		}
	}
}

func TestDerive_Action(t *testing.T) {
	tests := []struct {
		text string
		want Action
	}{
		{"Fix the broken login", ActionFix},
		{"Refactor this handler", ActionRefactor},
		{"Review my changes", ActionReview},
		{"Implement a new endpoint", ActionImplement},
		{"What does this config do?", ActionGeneral},
		// "fix" wins over "implement" when both appear
		{"Implement a workaround to fix the outage", ActionFix},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := Derive(tt.text).Action; got != tt.want {
				t.Errorf("Derive(%q).Action = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestDerive_Urgency(t *testing.T) {
	if got := Derive("production is down, fix the auth service").Urgency; got != UrgencyHigh {
		t.Errorf("expected high urgency, got %s", got)
	}
	if got := Derive("add a test for the parser").Urgency; got != UrgencyNormal {
		t.Errorf("expected normal urgency, got %s", got)
	}
}

func TestDerive_NoSignals(t *testing.T) {
	it := Derive("hello there")
	if len(it.Topics) != 0 {
		t.Errorf("expected no topics, got %v", it.Topics)
	}
	if it.Action != ActionGeneral || it.Urgency != UrgencyNormal {
		t.Errorf("expected general/normal, got %s/%s", it.Action, it.Urgency)
	}
}
