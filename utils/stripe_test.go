package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
)

func TestLocalSubscriptionStatusTrialActive(t *testing.T) {
	trialEnd := time.Now().Add(7 * 24 * time.Hour)
	user := &models.User{
		SubscriptionStatus: "trialing",
		TrialEndsAt:        &trialEnd,
	}

	status := localSubscriptionStatus(user)

	assert.True(t, status.Subscribed)
	assert.True(t, status.TrialActive)
	assert.Equal(t, "trialing", status.Status)
}

func TestLocalSubscriptionStatusTrialExpired(t *testing.T) {
	trialEnd := time.Now().Add(-24 * time.Hour)
	user := &models.User{
		SubscriptionStatus: "trialing",
		TrialEndsAt:        &trialEnd,
	}

	status := localSubscriptionStatus(user)

	assert.False(t, status.Subscribed)
	assert.False(t, status.TrialActive)
}

func TestLocalSubscriptionStatusActivePaid(t *testing.T) {
	periodEnd := time.Now().Add(30 * 24 * time.Hour)
	user := &models.User{
		SubscriptionStatus: "active",
		SubscriptionEndsAt: &periodEnd,
	}

	status := localSubscriptionStatus(user)

	assert.True(t, status.Subscribed)
	assert.False(t, status.TrialActive)
	assert.Equal(t, &periodEnd, status.SubscriptionEnd)
}

func TestGetSubscriptionStatusWithoutStripeFallsBackToLocal(t *testing.T) {
	user := &models.User{SubscriptionStatus: "canceled"}

	status := GetSubscriptionStatus(user)

	assert.False(t, status.Subscribed)
	assert.Equal(t, "canceled", status.Status)
}
