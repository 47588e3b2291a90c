package web

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

// A missing plan is the empty state with a generate button, not an error.
func TestPlanPageNotFoundShowsGenerateCTA(t *testing.T) {
	f := newWebFixture(t)
	f.login()

	w := f.get("/plan")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "No training plan yet") || !strings.Contains(body, "Generate a plan") {
		t.Error("missing the generate call to action")
	}
	if strings.Contains(body, "Try again") {
		t.Error("a 404 must not render as an error")
	}
}

// Any other plan failure is an error with a retry, never the generate CTA.
func TestPlanPageFailureShowsError(t *testing.T) {
	f := newWebFixture(t)
	f.login()

	f.api.mu.Lock()
	f.api.planStatus = http.StatusInternalServerError
	f.api.planDetail = "Failed to load training plan"
	f.api.mu.Unlock()

	w := f.get("/plan")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Failed to load training plan") || !strings.Contains(body, "Try again") {
		t.Error("plan failure should render as an error with retry")
	}
	if strings.Contains(body, "Generate a plan") {
		t.Error("an error must not render the generate call to action")
	}
}

func TestPlanPageRendersAllWeeks(t *testing.T) {
	f := newWebFixture(t)
	f.api.setPlan(t, twoWeekPlan(time.Now()))
	f.login()

	w := f.get("/plan")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()

	for _, want := range []string{
		"Week 1",
		"Week 2",
		"Base building",
		"Speed",
		"Regenerate plan",
		"Last generated",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("plan page is missing %q", want)
		}
	}
}

func TestGeneratePlanRedirectsBack(t *testing.T) {
	f := newWebFixture(t)
	f.login()

	w := f.postForm("/plan/generate", nil)
	if w.Code != http.StatusSeeOther || location(w) != "/plan" {
		t.Fatalf("generate = %d %q, want 303 to /plan", w.Code, location(w))
	}

	f.api.mu.Lock()
	calls, regenerate := f.api.generateCalls, f.api.lastRegenerate
	f.api.mu.Unlock()
	if calls != 1 {
		t.Errorf("generateCalls = %d, want 1", calls)
	}
	if regenerate {
		t.Error("a first generation must not set regenerate")
	}

	// The page now shows the generated plan.
	if w := f.get("/plan"); !strings.Contains(w.Body.String(), "Regenerate plan") {
		t.Error("plan page should render the plan after generation")
	}
}

func TestRegenerateSendsFlag(t *testing.T) {
	f := newWebFixture(t)
	f.api.setPlan(t, twoWeekPlan(time.Now()))
	f.login()

	w := f.postForm("/plan/generate", url.Values{"regenerate": {"true"}})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}

	f.api.mu.Lock()
	regenerate := f.api.lastRegenerate
	f.api.mu.Unlock()
	if !regenerate {
		t.Error("regenerate flag was not forwarded to the API")
	}
}

func TestGenerateFailureRendersDetail(t *testing.T) {
	f := newWebFixture(t)
	f.api.setPlan(t, twoWeekPlan(time.Now()))
	f.api.generateStatus = http.StatusBadRequest
	f.api.generateDetail = "Training plan already exists. Set regenerate=true to create a new one."
	f.login()

	w := f.postForm("/plan/generate", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "Training plan already exists") {
		t.Error("generate failure detail should render on the page")
	}
}
