package checks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/requestwave/soundcheck/internal/services"
)

// trialWindow is the platform's free trial length after signup. proAccessSlack
// absorbs clock skew and end-of-day rounding on the backend when the trial
// boundary is close.
const (
	trialWindow    = 14 * 24 * time.Hour
	proAccessSlack = 48 * time.Hour
)

// BillingSuite verifies the subscription state machine and Stripe integration
// surface: plan values, pro access derivation, checkout session creation, and
// webhook signature enforcement.
func BillingSuite() Suite {
	return Suite{
		Name:        "billing",
		Description: "Subscription state, checkout, and webhook protection",
		Checks: []Check{
			{Name: "subscription reports a known plan", Fn: checkSubscriptionPlan},
			{Name: "pro access matches plan and trial window", Fn: checkProAccessDerivation},
			{Name: "checkout returns a Stripe session", Fn: checkCheckoutSession},
			{Name: "unsigned webhook is rejected", Fn: checkWebhookSignature},
		},
	}
}

func checkSubscriptionPlan(ctx context.Context, env *Env, rec *Recorder) error {
	const name = "subscription reports a known plan"

	sub, err := env.Platform.SubscriptionStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch subscription status: %w", err)
	}

	details := map[string]any{"plan": sub.Plan, "status": sub.Status}

	switch sub.Plan {
	case "free", "trial", "pro":
		rec.Record("billing", name, true, "", details)
	default:
		rec.Record("billing", name, false,
			fmt.Sprintf("unknown plan %q, expected free, trial, or pro", sub.Plan), details)
	}
	return nil
}

// checkProAccessDerivation verifies pro_access is consistent with the plan:
// pro and active subscriptions grant it, free denies it, and trial grants it
// only inside the trial window derived from the signup date.
func checkProAccessDerivation(ctx context.Context, env *Env, rec *Recorder) error {
	const name = "pro access matches plan and trial window"

	sub, err := env.Platform.SubscriptionStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch subscription status: %w", err)
	}

	details := map[string]any{
		"plan":       sub.Plan,
		"status":     sub.Status,
		"pro_access": sub.ProAccess,
	}

	var expected bool
	switch sub.Plan {
	case "pro":
		expected = true
	case "free":
		expected = false
	case "trial":
		end := sub.TrialEndsAt
		if end == nil && sub.SignupDate != nil {
			derived := sub.SignupDate.Add(trialWindow)
			end = &derived
		}
		if end == nil {
			rec.Record("billing", name, false,
				"trial plan without trial_ends_at or signup_date", details)
			return nil
		}

		details["trial_ends_at"] = end.Format(time.RFC3339)
		until := time.Until(*end)
		if until > proAccessSlack || until < -proAccessSlack {
			expected = until > 0
		} else {
			// Within slack of the boundary either value is acceptable.
			rec.Record("billing", name, true,
				"trial boundary within slack window, skipping strict comparison", details)
			return nil
		}
	default:
		rec.Record("billing", name, false,
			fmt.Sprintf("cannot derive expectation for plan %q", sub.Plan), details)
		return nil
	}

	if sub.ProAccess != expected {
		rec.Record("billing", name, false,
			fmt.Sprintf("plan %q should have pro_access=%t, backend reports %t",
				sub.Plan, expected, sub.ProAccess), details)
		return nil
	}

	rec.Record("billing", name, true, "", details)
	return nil
}

func checkCheckoutSession(ctx context.Context, env *Env, rec *Recorder) error {
	const name = "checkout returns a Stripe session"

	session, err := env.Platform.CreateCheckout(ctx, "pro")
	if err != nil {
		var statusErr *services.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict {
			// Already subscribed; the endpoint works, there is just nothing to buy.
			rec.Record("billing", name, true,
				"account already subscribed, checkout declined with 409", nil)
			return nil
		}
		rec.Record("billing", name, false, err.Error(), nil)
		return nil
	}

	details := map[string]any{"session_id": session.SessionID}

	if session.URL == "" || session.SessionID == "" {
		rec.Record("billing", name, false,
			"checkout response missing session id or url", details)
		return nil
	}
	if !strings.Contains(session.URL, "stripe.com") {
		rec.Record("billing", name, false,
			fmt.Sprintf("checkout url does not point at Stripe: %s", session.URL), details)
		return nil
	}

	rec.Record("billing", name, true, "", details)
	return nil
}

// checkWebhookSignature posts a syntactically valid Stripe event without a
// signature header and requires the backend to reject it.
func checkWebhookSignature(ctx context.Context, env *Env, rec *Recorder) error {
	const name = "unsigned webhook is rejected"

	payload := []byte(`{"id":"evt_soundcheck_probe","type":"checkout.session.completed","data":{"object":{}}}`)

	err := env.Platform.PostWebhook(ctx, payload, "")
	if err == nil {
		rec.Record("billing", name, false,
			"webhook endpoint accepted an unsigned payload", nil)
		return nil
	}

	var statusErr *services.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			rec.Record("billing", name, true, "",
				map[string]any{"status": statusErr.StatusCode})
			return nil
		}
		rec.Record("billing", name, false,
			fmt.Sprintf("expected 400/401/403, got %d", statusErr.StatusCode),
			map[string]any{"status": statusErr.StatusCode})
		return nil
	}

	return fmt.Errorf("webhook probe failed to execute: %w", err)
}
