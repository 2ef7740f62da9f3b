// Package settings is the key-value configuration surface read at decision time.
package settings

import (
	"strconv"
	"time"

	"github.com/ppiankov/offhours/internal/model"
)

// Top-level setting keys.
const (
	KeyEnabled       = "isEnabled"
	KeyBlockCalls    = "blockCalls"
	KeySendSMS       = "sendSMS"
	KeyAccessibility = "accessibilityEnabled"
	KeyDND           = "dndEnabled"
	KeyCustomMessage = "customMessage"
	KeyTimezone      = "timezone"
)

// Per-weekday field suffixes, joined as "{day}_{field}".
const (
	FieldEnabled     = "enabled"
	FieldStartHour   = "startHour"
	FieldStartMinute = "startMinute"
	FieldEndHour     = "endHour"
	FieldEndMinute   = "endMinute"
)

// DefaultCustomMessage is the auto-reply body when none is configured.
const DefaultCustomMessage = "I am currently unavailable. Please call back during business hours."

type kind int

const (
	kindBool kind = iota
	kindInt
	kindString
)

var dayFields = []string{FieldEnabled, FieldStartHour, FieldStartMinute, FieldEndHour, FieldEndMinute}

// DayKey returns the setting key for a weekday field, e.g. "monday_startHour".
func DayKey(d time.Weekday, field string) string {
	return model.DayName(d) + "_" + field
}

// Defaults returns every known key with its default value.
func Defaults() Values {
	flags := model.DefaultFeatureFlags()
	v := Values{
		KeyEnabled:       strconv.FormatBool(flags.AppEnabled),
		KeyBlockCalls:    strconv.FormatBool(flags.BlockCallsEnabled),
		KeySendSMS:       strconv.FormatBool(flags.SMSAutoReplyEnabled),
		KeyAccessibility: strconv.FormatBool(flags.AccessibilityEnabled),
		KeyDND:           strconv.FormatBool(flags.DNDEnabled),
		KeyCustomMessage: DefaultCustomMessage,
		KeyTimezone:      "",
	}
	ds := model.DefaultDaySchedule()
	for d := time.Sunday; d <= time.Saturday; d++ {
		v[DayKey(d, FieldEnabled)] = strconv.FormatBool(ds.Enabled)
		v[DayKey(d, FieldStartHour)] = strconv.Itoa(ds.Start.Hour())
		v[DayKey(d, FieldStartMinute)] = strconv.Itoa(ds.Start.Minute())
		v[DayKey(d, FieldEndHour)] = strconv.Itoa(ds.End.Hour())
		v[DayKey(d, FieldEndMinute)] = strconv.Itoa(ds.End.Minute())
	}
	return v
}

var keyKinds = buildKeyKinds()

func buildKeyKinds() map[string]kind {
	m := map[string]kind{
		KeyEnabled:       kindBool,
		KeyBlockCalls:    kindBool,
		KeySendSMS:       kindBool,
		KeyAccessibility: kindBool,
		KeyDND:           kindBool,
		KeyCustomMessage: kindString,
		KeyTimezone:      kindString,
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		for _, f := range dayFields {
			k := kindInt
			if f == FieldEnabled {
				k = kindBool
			}
			m[DayKey(d, f)] = k
		}
	}
	return m
}

// Known reports whether key is part of the configuration surface.
func Known(key string) bool {
	_, ok := keyKinds[key]
	return ok
}

// typed converts a raw value to the YAML scalar type of its key.
func typed(key, value string) any {
	switch keyKinds[key] {
	case kindBool:
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	case kindInt:
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return value
}
