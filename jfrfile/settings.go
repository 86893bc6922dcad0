package jfrfile

import (
	"strconv"
	"strings"
	"time"
)

// Well-known setting names JFR event types expose, read from each
// class's SettingsElement list (§4.9).
const (
	SettingEnabled    = "enabled"
	SettingThreshold  = "threshold"
	SettingPeriod     = "period"
	SettingStackTrace = "stackTrace"
	SettingCutoff     = "cutoff"
	SettingThrottle   = "throttle"
)

// SettingByName returns the first setting on c with the given name.
func (c *ClassElement) SettingByName(name string) (SettingsElement, bool) {
	for _, s := range c.Settings {
		if s.Name == name {
			return s, true
		}
	}
	return SettingsElement{}, false
}

// ParseBoolSetting interprets a setting's default value as the boolean
// grammar JFR settings use: "true"/"false".
func ParseBoolSetting(raw string) (bool, error) {
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, errf(KindSettingParse, "not a boolean setting value: %q", raw)
	}
}

// PeriodEveryChunk and PeriodBeginChunk/PeriodEndChunk are the
// non-duration sentinel values a "period" setting may hold instead of
// a time duration.
const (
	PeriodEveryChunk = "everyChunk"
	PeriodBeginChunk = "beginChunk"
	PeriodEndChunk   = "endChunk"
)

// ParsePeriodSetting interprets a "period" setting's default value:
// either one of the chunk-boundary sentinels, or a duration in the
// same "NN<unit>" grammar ParseDurationSetting accepts.
func ParsePeriodSetting(raw string) (sentinel string, d time.Duration, err error) {
	switch raw {
	case PeriodEveryChunk, PeriodBeginChunk, PeriodEndChunk:
		return raw, 0, nil
	default:
		d, err = ParseDurationSetting(raw)
		return "", d, err
	}
}

// durationUnits maps a JFR setting suffix to a time.Duration multiplier.
// Longest suffixes are checked first so "ms" isn't mistaken for "s".
var durationUnits = []struct {
	suffix string
	unit   time.Duration
}{
	{"ns", time.Nanosecond},
	{"us", time.Microsecond},
	{"ms", time.Millisecond},
	{"s", time.Second},
	{"m", time.Minute},
	{"h", time.Hour},
	{"d", 24 * time.Hour},
}

// ParseDurationSetting interprets a threshold/period-style setting's
// default value in JFR's duration grammar: a non-negative integer
// immediately followed by one of "ns", "us", "ms", "s", "m", "h", "d",
// or the sentinel "infinity" (returned as the maximum representable
// duration, since a threshold of infinity never fires).
//
// Grounded on the time-unit grammar spec.md §4.9 documents and the
// JFR default.jfc/profile.jfc settings shipped with the JDK, which use
// exactly this suffix set for every duration-valued setting.
func ParseDurationSetting(raw string) (time.Duration, error) {
	if raw == "infinity" {
		return time.Duration(1<<63 - 1), nil
	}
	for _, u := range durationUnits {
		if strings.HasSuffix(raw, u.suffix) {
			numPart := strings.TrimSuffix(raw, u.suffix)
			n, err := strconv.ParseInt(numPart, 10, 64)
			if err != nil {
				return 0, errf(KindSettingParse, "malformed duration setting %q: %v", raw, err)
			}
			if n < 0 {
				return 0, errf(KindSettingParse, "duration setting %q must not be negative", raw)
			}
			return time.Duration(n) * u.unit, nil
		}
	}
	return 0, errf(KindSettingParse, "unrecognized duration setting %q", raw)
}

// SettingOff is the sentinel a "stackTrace"-style boolean-or-"off"
// setting may hold instead of "true"/"false".
const SettingOff = "off"

// ParseCutoffSetting interprets a "cutoff" setting's default value: the
// same duration grammar as ParseDurationSetting (including the
// "infinity" sentinel), since a cutoff bounds how long an event's
// duration field may run before it is dropped.
func ParseCutoffSetting(raw string) (time.Duration, error) {
	return ParseDurationSetting(raw)
}

// ThrottleValue is a parsed "throttle" setting: either disabled
// ("off"), a rate (Count events per Per duration), or, when raw doesn't
// match either known grammar, preserved verbatim in Other rather than
// rejected (§4.9: "other forms are reported as Other(raw)").
type ThrottleValue struct {
	Off   bool
	Count int64
	Per   time.Duration
	Other string
}

// throttlePerUnit maps a throttle rate's unit suffix (after the "/") to
// a time.Duration, using the same suffix set as duration settings.
var throttlePerUnit = map[string]time.Duration{
	"ns": time.Nanosecond,
	"us": time.Microsecond,
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  24 * time.Hour,
}

// ParseThrottleSetting interprets a "throttle" setting's default value
// in JFR's rate grammar: "<count>/<unit>" (e.g. "100/s"), or the
// sentinel "off".
func ParseThrottleSetting(raw string) ThrottleValue {
	if raw == SettingOff {
		return ThrottleValue{Off: true}
	}
	count, unit, ok := strings.Cut(raw, "/")
	if ok {
		if n, err := strconv.ParseInt(count, 10, 64); err == nil {
			if d, ok := throttlePerUnit[unit]; ok {
				return ThrottleValue{Count: n, Per: d}
			}
		}
	}
	return ThrottleValue{Other: raw}
}
