package metering

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CounterType classifies how successive values of a metering counter relate
type CounterType string

const (
	// CounterTypeDelta marks counters whose values are incremental usage to be summed
	CounterTypeDelta CounterType = "DELTA"
	// CounterTypeGauge marks counters whose values are point-in-time readings; only the latest matters
	CounterTypeGauge CounterType = "GAUGE"
	// CounterTypeCumulative marks counters whose values are running totals
	CounterTypeCumulative CounterType = "CUMULATIVE"
)

// IsValid returns true if the counter type is valid
func (t CounterType) IsValid() bool {
	switch t {
	case CounterTypeDelta, CounterTypeGauge, CounterTypeCumulative:
		return true
	default:
		return false
	}
}

// String returns the string representation of CounterType
func (t CounterType) String() string {
	return string(t)
}

// ParseCounterType coerces a raw string into a CounterType, case-insensitively
func ParseCounterType(s string) (CounterType, error) {
	t := CounterType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("metering: unknown counter type %q", s)
	}
	return t, nil
}

// MeteringRecord is an immutable record of a single usage event produced by
// an external metering source. Corrections are made with new records, never
// by mutating existing ones. Volume and timestamp arrive as strings and are
// parsed on demand.
type MeteringRecord struct {
	AppKey        string      `json:"appKey,omitempty"`
	CounterName   string      `json:"counterName"`
	CounterType   CounterType `json:"counterType"`
	CounterVolume string      `json:"counterVolume"`
	ResourceID    string      `json:"resourceId,omitempty"`
	Timestamp     string      `json:"timestamp"`
}

// timestampLayouts are the tolerated timestamp formats, tried in order
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999Z07:00",
	"2006-01-02T15:04:05.999999-0700",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses one of the tolerated timestamp formats. Callers that
// cannot accept the aggregator's lenient now-fallback should pre-screen
// records with this function and decide how to handle failures themselves.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("metering: unrecognized timestamp %q", s)
}

// ParsedTimestamp returns the record's timestamp, falling back to the
// current time when the string cannot be parsed. The fallback keeps
// malformed records inside the aggregation window instead of dropping them,
// matching the historical report behavior.
func (r MeteringRecord) ParsedTimestamp() time.Time {
	ts, err := ParseTimestamp(r.Timestamp)
	if err != nil {
		return time.Now()
	}
	return ts
}

// Volume parses the record's volume string as a decimal
func (r MeteringRecord) Volume() (decimal.Decimal, error) {
	v, err := decimal.NewFromString(r.CounterVolume)
	if err != nil {
		return decimal.Zero, fmt.Errorf("metering: invalid counter volume %q: %w", r.CounterVolume, err)
	}
	return v, nil
}

// volumeOrZero treats an unparsable volume as zero so that a single
// malformed record does not poison a whole aggregation group.
func (r MeteringRecord) volumeOrZero() decimal.Decimal {
	v, err := r.Volume()
	if err != nil {
		return decimal.Zero
	}
	return v
}

// DimensionName identifies a facet a metering record can be grouped by
type DimensionName string

const (
	DimensionAppKey      DimensionName = "app_key"
	DimensionCounterName DimensionName = "counter_name"
	DimensionCounterType DimensionName = "counter_type"
	DimensionResourceID  DimensionName = "resource_id"
)

// facetValue returns the record's value for a dimension and whether the
// facet is present on the record. Missing facets are omitted from grouping
// keys rather than treated as wildcards or errors.
func (r MeteringRecord) facetValue(name DimensionName) (string, bool) {
	switch name {
	case DimensionAppKey:
		return r.AppKey, r.AppKey != ""
	case DimensionCounterName:
		return r.CounterName, r.CounterName != ""
	case DimensionCounterType:
		return r.CounterType.String(), r.CounterType != ""
	case DimensionResourceID:
		return r.ResourceID, r.ResourceID != ""
	default:
		return "", false
	}
}

// TimeBucket is the granularity used for time-based grouping
type TimeBucket string

const (
	TimeBucketHour  TimeBucket = "hour"
	TimeBucketDay   TimeBucket = "day"
	TimeBucketMonth TimeBucket = "month"
	TimeBucketYear  TimeBucket = "year"
)

// IsValid returns true if the bucket size is one of the recognized values
func (b TimeBucket) IsValid() bool {
	switch b {
	case TimeBucketHour, TimeBucketDay, TimeBucketMonth, TimeBucketYear:
		return true
	default:
		return false
	}
}

// String returns the string representation of TimeBucket
func (b TimeBucket) String() string {
	return string(b)
}

// keyFor truncates a timestamp to the bucket granularity and renders it as
// the bucket's grouping key.
func (b TimeBucket) keyFor(ts time.Time) string {
	switch b {
	case TimeBucketHour:
		return ts.Format("2006-01-02 15:00")
	case TimeBucketDay:
		return ts.Format("2006-01-02")
	case TimeBucketMonth:
		return ts.Format("2006-01")
	case TimeBucketYear:
		return ts.Format("2006")
	default:
		return ""
	}
}
