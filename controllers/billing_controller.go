package controller

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/customer"

	"github.com/cristophermlima/pierce-hub-suite-sub001/config"
	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
	"github.com/cristophermlima/pierce-hub-suite-sub001/utils"
)

func InitStripe() {
	stripe.Key = config.AppConfig.StripeSecretKey
}

// GetSubscriptionPlans lists the tiers for the pricing page. Public.
func GetSubscriptionPlans(c *fiber.Ctx) error {
	var plans []models.SubscriptionPlan
	if err := config.DB.Order("price ASC").Find(&plans).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch plans",
		})
	}

	for i := range plans {
		plans[i].DisplayPrice = "$" + strconv.Itoa(plans[i].Price/100)
	}

	return c.JSON(utils.SuccessResponse(plans))
}

type CheckoutRequest struct {
	PlanName string `json:"plan_name" validate:"required,oneof=starter studio chain"`
}

// CreateCheckoutSession starts a Stripe Checkout subscription flow for the
// requested tier.
func CreateCheckoutSession(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var plan models.SubscriptionPlan
	if err := config.DB.Where("name = ?", req.PlanName).First(&plan).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Plan not found",
		})
	}
	if plan.StripePriceID == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Plan is not available for checkout",
		})
	}

	customerID, err := getOrCreateStripeCustomer(user)
	if err != nil {
		utils.LogError("stripe_customer", err, map[string]interface{}{"user_id": user.ID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to start checkout",
		})
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(plan.StripePriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(config.AppConfig.AppURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(config.AppConfig.AppURL + "/billing/cancelled"),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"user_id":   strconv.Itoa(int(user.ID)),
				"plan_name": plan.Name,
			},
		},
	}
	if plan.TrialDays > 0 && user.StripeSubscriptionID == nil {
		params.SubscriptionData.TrialPeriodDays = stripe.Int64(int64(plan.TrialDays))
	}

	session, err := checkoutsession.New(params)
	if err != nil {
		utils.LogError("stripe_checkout", err, map[string]interface{}{"user_id": user.ID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to start checkout",
		})
	}

	return c.JSON(fiber.Map{
		"checkout_url": session.URL,
		"session_id":   session.ID,
	})
}

// GetBillingStatus returns the caller's current subscription state.
func GetBillingStatus(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	status := utils.GetSubscriptionStatus(user)
	return c.JSON(fiber.Map{
		"success": true,
		"plan":    user.PlanName,
		"status":  status,
	})
}

// HandleBillingWebhook keeps the local subscription mirror in sync with
// Stripe's lifecycle events.
func HandleBillingWebhook(c *fiber.Ctx) error {
	event, err := utils.ConstructStripeEvent(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Error parsing subscription",
			})
		}
		return handleSubscriptionUpserted(c, &sub)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Error parsing subscription",
			})
		}
		return handleSubscriptionDeleted(c, &sub)

	case "invoice.payment_failed":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Error parsing invoice",
			})
		}
		return handleInvoiceFailed(c, &invoice)

	default:
		return c.SendStatus(fiber.StatusOK)
	}
}

func handleSubscriptionUpserted(c *fiber.Ctx, sub *stripe.Subscription) error {
	user, err := userForSubscription(sub)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	updates := map[string]interface{}{
		"stripe_subscription_id": sub.ID,
		"subscription_status":    string(sub.Status),
	}
	if planName, ok := sub.Metadata["plan_name"]; ok && planName != "" {
		updates["plan_name"] = planName
	}
	if sub.CurrentPeriodEnd > 0 {
		updates["subscription_ends_at"] = time.Unix(sub.CurrentPeriodEnd, 0)
	}
	if sub.TrialEnd > 0 {
		updates["trial_ends_at"] = time.Unix(sub.TrialEnd, 0)
	}

	if err := config.DB.Model(user).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update subscription",
		})
	}

	utils.LogEvent("subscription_synced", map[string]interface{}{
		"user_id": user.ID,
		"status":  string(sub.Status),
	})
	return c.SendStatus(fiber.StatusOK)
}

func handleSubscriptionDeleted(c *fiber.Ctx, sub *stripe.Subscription) error {
	user, err := userForSubscription(sub)
	if err != nil {
		// The account may already be gone; ack so Stripe stops retrying.
		return c.SendStatus(fiber.StatusOK)
	}

	updates := map[string]interface{}{
		"subscription_status":    "canceled",
		"stripe_subscription_id": nil,
	}
	if err := config.DB.Model(user).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update subscription",
		})
	}

	utils.LogEvent("subscription_canceled", map[string]interface{}{
		"user_id": user.ID,
	})
	return c.SendStatus(fiber.StatusOK)
}

func handleInvoiceFailed(c *fiber.Ctx, invoice *stripe.Invoice) error {
	if invoice.Customer == nil {
		return c.SendStatus(fiber.StatusOK)
	}

	var user models.User
	if err := config.DB.Where("stripe_customer_id = ?", invoice.Customer.ID).First(&user).Error; err != nil {
		return c.SendStatus(fiber.StatusOK)
	}

	if err := config.DB.Model(&user).Update("subscription_status", "past_due").Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update subscription",
		})
	}

	utils.LogEvent("invoice_payment_failed", map[string]interface{}{
		"user_id": user.ID,
	})
	return c.SendStatus(fiber.StatusOK)
}

// userForSubscription finds the account for a subscription event, preferring
// the user_id stamped into metadata at checkout time.
func userForSubscription(sub *stripe.Subscription) (*models.User, error) {
	var user models.User

	if raw, ok := sub.Metadata["user_id"]; ok && raw != "" {
		if id, err := strconv.Atoi(raw); err == nil {
			if err := config.DB.First(&user, id).Error; err == nil {
				return &user, nil
			}
		}
	}

	if sub.Customer != nil {
		if err := config.DB.Where("stripe_customer_id = ?", sub.Customer.ID).First(&user).Error; err == nil {
			return &user, nil
		}
	}

	if err := config.DB.Where("stripe_subscription_id = ?", sub.ID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// getOrCreateStripeCustomer gets or creates a Stripe customer
func getOrCreateStripeCustomer(user *models.User) (string, error) {
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}

	var name string
	if user.Name != nil {
		name = *user.Name
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Name:  stripe.String(name),
		Metadata: map[string]string{
			"user_id": strconv.Itoa(int(user.ID)),
		},
	}

	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}

	user.StripeCustomerID = &cust.ID
	if err := config.DB.Save(user).Error; err != nil {
		return "", err
	}

	return cust.ID, nil
}
