package metering

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/johanna-II/billing-engine/internal/domain/shared"
	"github.com/johanna-II/billing-engine/internal/domain/shared/valueobject"
)

// AggregatedMetrics is a derived, read-only summary of one group of
// metering records. It is recomputed on every aggregation call; there is no
// incremental mutation.
type AggregatedMetrics struct {
	TotalVolume decimal.Decimal          `json:"total_volume"`
	RecordCount int                      `json:"record_count"`
	MinVolume   decimal.Decimal          `json:"min_volume"`
	MaxVolume   decimal.Decimal          `json:"max_volume"`
	AvgVolume   decimal.Decimal          `json:"avg_volume"`
	StartTime   time.Time                `json:"start_time"`
	EndTime     time.Time                `json:"end_time"`
	Dimensions  map[DimensionName]string `json:"dimensions"`
}

// AggregateByDimensions groups records by a composite key built from the
// requested dimension names and computes volume statistics and the time
// range per group. Facets missing on a record are omitted from its key.
// Groups are returned in a stable order so repeated calls over the same
// input, in any order, produce identical output.
func AggregateByDimensions(records []MeteringRecord, dimensions []DimensionName) []AggregatedMetrics {
	type group struct {
		records []MeteringRecord
		facets  map[DimensionName]string
	}

	groups := make(map[string]*group)
	for _, record := range records {
		parts := make([]string, 0, len(dimensions))
		facets := make(map[DimensionName]string)
		for _, dim := range dimensions {
			value, ok := record.facetValue(dim)
			if !ok {
				continue
			}
			parts = append(parts, string(dim)+"="+value)
			facets[dim] = value
		}
		key := strings.Join(parts, "|")
		g, ok := groups[key]
		if !ok {
			g = &group{facets: facets}
			groups[key] = g
		}
		g.records = append(g.records, record)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]AggregatedMetrics, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		metrics := summarizeGroup(g.records)
		metrics.Dimensions = g.facets
		result = append(result, metrics)
	}
	return result
}

// summarizeGroup computes the volume statistics and time range for one group
func summarizeGroup(records []MeteringRecord) AggregatedMetrics {
	total := decimal.Zero
	var minVol, maxVol decimal.Decimal
	var start, end time.Time

	for i, record := range records {
		volume := record.volumeOrZero()
		total = total.Add(volume)

		ts := record.ParsedTimestamp()
		if i == 0 {
			minVol, maxVol = volume, volume
			start, end = ts, ts
			continue
		}
		if volume.LessThan(minVol) {
			minVol = volume
		}
		if volume.GreaterThan(maxVol) {
			maxVol = volume
		}
		if ts.Before(start) {
			start = ts
		}
		if ts.After(end) {
			end = ts
		}
	}

	avg := decimal.Zero
	if len(records) > 0 {
		avg = valueobject.RoundAmount(total.Div(decimal.NewFromInt(int64(len(records)))))
	}

	return AggregatedMetrics{
		TotalVolume: total,
		RecordCount: len(records),
		MinVolume:   minVol,
		MaxVolume:   maxVol,
		AvgVolume:   avg,
		StartTime:   start,
		EndTime:     end,
	}
}

// AggregateByTimeBucket groups full records under bucket keys obtained by
// truncating each record's timestamp to the bucket granularity. An
// unrecognized bucket size is a validation error.
func AggregateByTimeBucket(records []MeteringRecord, bucket TimeBucket) (map[string][]MeteringRecord, error) {
	if !bucket.IsValid() {
		return nil, shared.ErrInvalidBucket
	}
	buckets := make(map[string][]MeteringRecord)
	for _, record := range records {
		key := bucket.keyFor(record.ParsedTimestamp())
		buckets[key] = append(buckets[key], record)
	}
	return buckets, nil
}

// CalculateDeltaSum sums the volumes of DELTA records, optionally filtered
// to a single counter name (empty means all counters). Records of other
// counter types are silently skipped. The sum is rounded to two places.
func CalculateDeltaSum(records []MeteringRecord, counterName string) decimal.Decimal {
	sum := decimal.Zero
	for _, record := range records {
		if record.CounterType != CounterTypeDelta {
			continue
		}
		if counterName != "" && record.CounterName != counterName {
			continue
		}
		sum = sum.Add(record.volumeOrZero())
	}
	return valueobject.RoundAmount(sum)
}

// GetLatestGaugeValues returns, per counter name, the volume of the most
// recent GAUGE record. The sort is stable, so records sharing a timestamp
// resolve by input order with the later record winning.
func GetLatestGaugeValues(records []MeteringRecord) map[string]decimal.Decimal {
	gauges := make([]MeteringRecord, 0)
	for _, record := range records {
		if record.CounterType == CounterTypeGauge {
			gauges = append(gauges, record)
		}
	}
	sort.SliceStable(gauges, func(i, j int) bool {
		return gauges[i].ParsedTimestamp().Before(gauges[j].ParsedTimestamp())
	})

	latest := make(map[string]decimal.Decimal)
	for _, record := range gauges {
		latest[record.CounterName] = record.volumeOrZero()
	}
	return latest
}

// DefaultOutlierThreshold is the standard-deviation multiple beyond which a
// record counts as an outlier.
const DefaultOutlierThreshold = 2.0

// DetectOutliers flags records whose volume deviates from the population
// mean by more than threshold standard deviations. Fewer than three records
// is statistically meaningless and returns an empty result, as does a zero
// standard deviation (all volumes identical).
func DetectOutliers(records []MeteringRecord, threshold float64) []MeteringRecord {
	if len(records) < 3 {
		return []MeteringRecord{}
	}

	volumes := make([]float64, len(records))
	var sum float64
	for i, record := range records {
		v, _ := record.volumeOrZero().Float64()
		volumes[i] = v
		sum += v
	}
	mean := sum / float64(len(volumes))

	var variance float64
	for _, v := range volumes {
		variance += (v - mean) * (v - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(volumes)))
	if stdDev == 0 {
		return []MeteringRecord{}
	}

	outliers := make([]MeteringRecord, 0)
	for i, record := range records {
		if math.Abs(volumes[i]-mean)/stdDev > threshold {
			outliers = append(outliers, record)
		}
	}
	return outliers
}

// GrowthRate captures period-over-period change in DELTA usage
type GrowthRate struct {
	Absolute   decimal.Decimal `json:"absolute"`
	Percentage decimal.Decimal `json:"percentage"`
}

// CalculateGrowthRate compares the DELTA sums of two periods for a counter.
// A zero previous-period sum yields a zero percentage; this is a guard
// against division by zero, not an error.
func CalculateGrowthRate(previous, current []MeteringRecord, counterName string) GrowthRate {
	previousSum := CalculateDeltaSum(previous, counterName)
	currentSum := CalculateDeltaSum(current, counterName)
	absolute := currentSum.Sub(previousSum)

	percentage := decimal.Zero
	if !previousSum.IsZero() {
		percentage = valueobject.RoundAmount(absolute.Div(previousSum).Mul(decimal.NewFromInt(100)))
	}
	return GrowthRate{Absolute: absolute, Percentage: percentage}
}

// CounterSummary aggregates one counter inside a usage summary
type CounterSummary struct {
	Type CounterType `json:"type"`
	// DeltaTotal is the summed volume for DELTA counters
	DeltaTotal decimal.Decimal `json:"delta_total"`
	// LatestGauge is the most recent reading for GAUGE counters
	LatestGauge decimal.Decimal `json:"latest_gauge"`
}

// TimeRange is the inclusive span covered by a set of records
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// UsageSummary is a one-pass report over a set of metering records
type UsageSummary struct {
	TotalRecords int                       `json:"total_records"`
	Counters     map[string]CounterSummary `json:"counters"`
	Resources    []string                  `json:"resources"`
	TimeRange    *TimeRange                `json:"time_range"`
}

// CreateUsageSummary combines DELTA totals and latest GAUGE readings per
// counter with the distinct resource IDs and overall time range. Empty
// input returns an explicit empty shape rather than failing.
func CreateUsageSummary(records []MeteringRecord) UsageSummary {
	summary := UsageSummary{
		TotalRecords: len(records),
		Counters:     make(map[string]CounterSummary),
		Resources:    []string{},
	}
	if len(records) == 0 {
		return summary
	}

	latestGaugeAt := make(map[string]time.Time)
	resourceSet := make(map[string]struct{})
	var start, end time.Time

	for i, record := range records {
		ts := record.ParsedTimestamp()
		if i == 0 {
			start, end = ts, ts
		} else {
			if ts.Before(start) {
				start = ts
			}
			if ts.After(end) {
				end = ts
			}
		}

		if record.ResourceID != "" {
			resourceSet[record.ResourceID] = struct{}{}
		}

		counter := summary.Counters[record.CounterName]
		counter.Type = record.CounterType
		switch record.CounterType {
		case CounterTypeDelta:
			counter.DeltaTotal = counter.DeltaTotal.Add(record.volumeOrZero())
		case CounterTypeGauge:
			if seen, ok := latestGaugeAt[record.CounterName]; !ok || !ts.Before(seen) {
				latestGaugeAt[record.CounterName] = ts
				counter.LatestGauge = record.volumeOrZero()
			}
		}
		summary.Counters[record.CounterName] = counter
	}

	for resource := range resourceSet {
		summary.Resources = append(summary.Resources, resource)
	}
	sort.Strings(summary.Resources)

	summary.TimeRange = &TimeRange{Start: start, End: end}
	return summary
}
