package utils

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/subscription"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/cristophermlima/pierce-hub-suite-sub001/config"
	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
)

// SubscriptionStatus is the access-gating payload consumed by the frontend.
type SubscriptionStatus struct {
	Subscribed      bool       `json:"subscribed"`
	Status          string     `json:"status"`
	TrialActive     bool       `json:"trial_active"`
	TrialEnd        *time.Time `json:"trial_end,omitempty"`
	SubscriptionEnd *time.Time `json:"subscription_end,omitempty"`
}

// ConstructStripeEvent securely constructs and verifies a Stripe webhook event
func ConstructStripeEvent(c *fiber.Ctx) (stripe.Event, error) {
	payload, err := io.ReadAll(c.Request().BodyStream())
	if err != nil {
		LogError("stripe_webhook", err, map[string]interface{}{"stage": "read_body"})
		return stripe.Event{}, fiber.NewError(fiber.StatusBadRequest, "Failed to read request body")
	}

	signature := c.Get("Stripe-Signature")
	if signature == "" {
		return stripe.Event{}, fiber.NewError(fiber.StatusBadRequest, "Missing Stripe-Signature header")
	}

	// Verify the webhook signature with tolerance for clock drift
	event, err := webhook.ConstructEventWithTolerance(
		payload,
		signature,
		config.AppConfig.StripeWebhookSecret,
		5*time.Minute,
	)
	if err != nil {
		LogError("stripe_webhook", err, map[string]interface{}{"stage": "verify_signature"})
		return stripe.Event{}, fiber.NewError(fiber.StatusBadRequest, "Invalid webhook signature")
	}

	LogEvent("stripe_webhook_verified", map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
	})

	return event, nil
}

// GetSubscriptionStatus resolves the user's current billing state. Users
// without a Stripe subscription are evaluated against their local trial
// window; a Stripe lookup failure also degrades to the locally stored state
// so a billing outage never locks the studio out.
func GetSubscriptionStatus(user *models.User) SubscriptionStatus {
	if user.StripeSubscriptionID == nil || *user.StripeSubscriptionID == "" {
		return localSubscriptionStatus(user)
	}

	sub, err := subscription.Get(*user.StripeSubscriptionID, nil)
	if err != nil {
		LogError("stripe_subscription_lookup", err, map[string]interface{}{
			"user_id":         user.ID,
			"subscription_id": *user.StripeSubscriptionID,
		})
		return localSubscriptionStatus(user)
	}

	status := SubscriptionStatus{
		Status:     string(sub.Status),
		Subscribed: sub.Status == stripe.SubscriptionStatusActive || sub.Status == stripe.SubscriptionStatusTrialing,
	}
	if sub.TrialEnd > 0 {
		trialEnd := time.Unix(sub.TrialEnd, 0)
		status.TrialEnd = &trialEnd
		status.TrialActive = sub.Status == stripe.SubscriptionStatusTrialing
	}
	if sub.CurrentPeriodEnd > 0 {
		periodEnd := time.Unix(sub.CurrentPeriodEnd, 0)
		status.SubscriptionEnd = &periodEnd
	}
	return status
}

func localSubscriptionStatus(user *models.User) SubscriptionStatus {
	status := SubscriptionStatus{
		Status:   user.SubscriptionStatus,
		TrialEnd: user.TrialEndsAt,
	}
	if user.TrialEndsAt != nil && time.Now().Before(*user.TrialEndsAt) {
		status.TrialActive = true
		status.Subscribed = true
	}
	if user.SubscriptionStatus == "active" {
		status.Subscribed = true
		status.SubscriptionEnd = user.SubscriptionEndsAt
	}
	return status
}
