package settings

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ppiankov/offhours/internal/model"
)

var (
	// ErrUnknownKey is returned when writing a key outside the configuration surface.
	ErrUnknownKey = errors.New("unknown setting key")
	// ErrInvalid is returned when a value fails validation.
	ErrInvalid = errors.New("invalid setting value")
)

// Values is the raw key-value view of the configuration surface.
type Values map[string]string

// Keys returns the keys in sorted order.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Settings is the parsed configuration used by one decision.
type Settings struct {
	Flags         model.FeatureFlags
	Schedule      model.WeeklySchedule
	CustomMessage string
	Timezone      string
}

// locations caches resolved zones by name so decisions after the first
// never touch zoneinfo on disk.
var locations sync.Map // string -> *time.Location

// Location resolves Timezone; empty means the host's local zone.
func (s *Settings) Location() *time.Location {
	if s.Timezone == "" {
		return time.Local
	}
	if loc, ok := locations.Load(s.Timezone); ok {
		return loc.(*time.Location)
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Local
	}
	actual, _ := locations.LoadOrStore(s.Timezone, loc)
	return actual.(*time.Location)
}

type rawDay struct {
	Enabled     bool
	StartHour   int `validate:"min=0,max=23"`
	StartMinute int `validate:"min=0,max=59"`
	EndHour     int `validate:"min=0,max=23"`
	EndMinute   int `validate:"min=0,max=59"`
}

type rawSettings struct {
	Days          [7]rawDay `validate:"dive"`
	CustomMessage string    `validate:"max=1600"`
	Timezone      string    `validate:"omitempty,timezone"`
}

var (
	vOnce sync.Once
	vInst *validator.Validate
)

func validate() *validator.Validate {
	vOnce.Do(func() {
		vInst = validator.New(validator.WithRequiredStructEnabled())
	})
	return vInst
}

// Parse overlays v on Defaults and validates the result.
// Unknown keys are ignored. Malformed or out-of-range values return ErrInvalid.
func Parse(v Values) (*Settings, error) {
	merged := Defaults()
	for k, val := range v {
		if Known(k) {
			merged[k] = strings.TrimSpace(val)
		}
	}

	p := parser{values: merged}
	raw := rawSettings{
		CustomMessage: merged[KeyCustomMessage],
		Timezone:      merged[KeyTimezone],
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		raw.Days[d] = rawDay{
			Enabled:     p.bool(DayKey(d, FieldEnabled)),
			StartHour:   p.int(DayKey(d, FieldStartHour)),
			StartMinute: p.int(DayKey(d, FieldStartMinute)),
			EndHour:     p.int(DayKey(d, FieldEndHour)),
			EndMinute:   p.int(DayKey(d, FieldEndMinute)),
		}
	}
	flags := model.FeatureFlags{
		AppEnabled:           p.bool(KeyEnabled),
		BlockCallsEnabled:    p.bool(KeyBlockCalls),
		SMSAutoReplyEnabled:  p.bool(KeySendSMS),
		AccessibilityEnabled: p.bool(KeyAccessibility),
		DNDEnabled:           p.bool(KeyDND),
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := validate().Struct(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	s := &Settings{
		Flags:         flags,
		Schedule:      make(model.WeeklySchedule, 7),
		CustomMessage: raw.CustomMessage,
		Timezone:      raw.Timezone,
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		rd := raw.Days[d]
		s.Schedule[d] = model.DaySchedule{
			Enabled: rd.Enabled,
			Start:   model.NewTimeOfDay(rd.StartHour, rd.StartMinute),
			End:     model.NewTimeOfDay(rd.EndHour, rd.EndMinute),
		}
	}
	return s, nil
}

// Validate checks a single key/value pair as Set would store it.
func Validate(key, value string) error {
	if !Known(key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	_, err := Parse(Values{key: value})
	return err
}

// parser records the first conversion error.
type parser struct {
	values Values
	err    error
}

func (p *parser) bool(key string) bool {
	b, err := strconv.ParseBool(p.values[key])
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, key, p.values[key])
	}
	return b
}

func (p *parser) int(key string) int {
	n, err := strconv.Atoi(p.values[key])
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, p.values[key])
	}
	return n
}
