// Package policy decides whether a call or message is allowed or blocked.
package policy

import (
	"time"

	"github.com/ppiankov/offhours/internal/hours"
	"github.com/ppiankov/offhours/internal/model"
)

// Decide is the call disposition policy.
//
// Evaluation order (first match wins, must not be changed):
//  1. App disabled       → Allow(app_disabled)
//  2. Call blocking off  → Allow(feature_disabled)
//  3. Inside the window  → Allow(business_hours)
//  4. Otherwise          → Block(after_hours)
func Decide(flags model.FeatureFlags, schedule model.WeeklySchedule, now time.Time) model.Decision {
	return Evaluate(model.FeatureCalls, flags, schedule, now)
}

// Evaluate runs the same precedence chain with the feature gate of f.
// The fallback blocker additionally requires accessibilityEnabled; DND and
// SMS auto-reply replace the call-blocking gate with their own flag.
// An unknown feature is treated as disabled.
func Evaluate(f model.Feature, flags model.FeatureFlags, schedule model.WeeklySchedule, now time.Time) model.Decision {
	if !flags.AppEnabled {
		return model.AllowBecause(model.ReasonAppDisabled)
	}
	if !featureOn(f, flags) {
		return model.AllowBecause(model.ReasonFeatureDisabled)
	}
	if hours.IsWithinBusinessHours(schedule, now) {
		return model.AllowBecause(model.ReasonBusinessHours)
	}
	return model.BlockAfterHours()
}

func featureOn(f model.Feature, flags model.FeatureFlags) bool {
	switch f {
	case model.FeatureCalls:
		return flags.BlockCallsEnabled
	case model.FeatureFallback:
		return flags.BlockCallsEnabled && flags.AccessibilityEnabled
	case model.FeatureDND:
		return flags.DNDEnabled
	case model.FeatureSMS:
		return flags.SMSAutoReplyEnabled
	default:
		return false
	}
}
