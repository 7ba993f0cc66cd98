package metering

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johanna-II/billing-engine/internal/domain/shared"
)

func deltaRecord(counter, volume, timestamp string) MeteringRecord {
	return MeteringRecord{
		AppKey:        "app-1",
		CounterName:   counter,
		CounterType:   CounterTypeDelta,
		CounterVolume: volume,
		Timestamp:     timestamp,
	}
}

func gaugeRecord(counter, volume, timestamp string) MeteringRecord {
	return MeteringRecord{
		AppKey:        "app-1",
		CounterName:   counter,
		CounterType:   CounterTypeGauge,
		CounterVolume: volume,
		Timestamp:     timestamp,
	}
}

func TestAggregateByDimensions(t *testing.T) {
	records := []MeteringRecord{
		deltaRecord("compute.instance", "10", "2024-03-01T00:00:00"),
		deltaRecord("compute.instance", "20", "2024-03-01T06:00:00"),
		deltaRecord("storage.volume", "5", "2024-03-01T03:00:00"),
	}

	groups := AggregateByDimensions(records, []DimensionName{DimensionCounterName})
	require.Len(t, groups, 2)

	compute := groups[0]
	assert.Equal(t, "compute.instance", compute.Dimensions[DimensionCounterName])
	assert.Equal(t, 2, compute.RecordCount)
	assert.Equal(t, "30", compute.TotalVolume.String())
	assert.Equal(t, "10", compute.MinVolume.String())
	assert.Equal(t, "20", compute.MaxVolume.String())
	assert.Equal(t, "15.00", compute.AvgVolume.StringFixed(2))
	assert.Equal(t, "2024-03-01T00:00:00", compute.StartTime.Format("2006-01-02T15:04:05"))
	assert.Equal(t, "2024-03-01T06:00:00", compute.EndTime.Format("2006-01-02T15:04:05"))

	storage := groups[1]
	assert.Equal(t, "storage.volume", storage.Dimensions[DimensionCounterName])
	assert.Equal(t, 1, storage.RecordCount)
}

func TestAggregateByDimensions_MissingFacetOmittedFromKey(t *testing.T) {
	withResource := deltaRecord("api.calls", "1", "2024-03-01T00:00:00")
	withResource.ResourceID = "res-1"
	withoutResource := deltaRecord("api.calls", "2", "2024-03-01T01:00:00")

	groups := AggregateByDimensions(
		[]MeteringRecord{withResource, withoutResource},
		[]DimensionName{DimensionCounterName, DimensionResourceID},
	)

	// The record without a resource groups under counter name alone.
	require.Len(t, groups, 2)
	for _, g := range groups {
		if _, ok := g.Dimensions[DimensionResourceID]; ok {
			assert.Equal(t, "1", g.TotalVolume.String())
		} else {
			assert.Equal(t, "2", g.TotalVolume.String())
		}
	}
}

func TestAggregateByDimensions_OrderIndependent(t *testing.T) {
	records := []MeteringRecord{
		deltaRecord("a", "1", "2024-03-01T00:00:00"),
		deltaRecord("b", "2", "2024-03-02T00:00:00"),
		deltaRecord("a", "3", "2024-03-03T00:00:00"),
		deltaRecord("b", "4", "2024-03-04T00:00:00"),
	}
	reversed := []MeteringRecord{records[3], records[2], records[1], records[0]}

	forward := AggregateByDimensions(records, []DimensionName{DimensionCounterName})
	backward := AggregateByDimensions(reversed, []DimensionName{DimensionCounterName})

	assert.Equal(t, forward, backward)
}

func TestAggregateByTimeBucket(t *testing.T) {
	records := []MeteringRecord{
		deltaRecord("cpu", "1", "2024-03-01T10:15:00"),
		deltaRecord("cpu", "2", "2024-03-01T10:45:00"),
		deltaRecord("cpu", "3", "2024-03-01T11:05:00"),
	}

	t.Run("hour buckets truncate to the hour", func(t *testing.T) {
		buckets, err := AggregateByTimeBucket(records, TimeBucketHour)
		require.NoError(t, err)
		require.Len(t, buckets, 2)
		assert.Len(t, buckets["2024-03-01 10:00"], 2)
		assert.Len(t, buckets["2024-03-01 11:00"], 1)
	})

	t.Run("day buckets", func(t *testing.T) {
		buckets, err := AggregateByTimeBucket(records, TimeBucketDay)
		require.NoError(t, err)
		require.Len(t, buckets, 1)
		assert.Len(t, buckets["2024-03-01"], 3)
	})

	t.Run("month and year buckets", func(t *testing.T) {
		monthly, err := AggregateByTimeBucket(records, TimeBucketMonth)
		require.NoError(t, err)
		assert.Contains(t, monthly, "2024-03")

		yearly, err := AggregateByTimeBucket(records, TimeBucketYear)
		require.NoError(t, err)
		assert.Contains(t, yearly, "2024")
	})

	t.Run("invalid bucket size", func(t *testing.T) {
		_, err := AggregateByTimeBucket(records, TimeBucket("week"))
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.ErrInvalidBucket.Code, domainErr.Code)
	})
}

func TestCalculateDeltaSum(t *testing.T) {
	records := []MeteringRecord{
		deltaRecord("cpu", "10.105", "2024-03-01T00:00:00"),
		deltaRecord("cpu", "20.001", "2024-03-01T01:00:00"),
		deltaRecord("ram", "99", "2024-03-01T02:00:00"),
		gaugeRecord("cpu", "500", "2024-03-01T03:00:00"),
	}

	t.Run("filters to one counter", func(t *testing.T) {
		assert.Equal(t, "30.11", CalculateDeltaSum(records, "cpu").StringFixed(2))
	})

	t.Run("empty counter name sums all DELTA records", func(t *testing.T) {
		assert.Equal(t, "129.11", CalculateDeltaSum(records, "").StringFixed(2))
	})

	t.Run("non-DELTA records are skipped", func(t *testing.T) {
		onlyGauge := []MeteringRecord{gaugeRecord("cpu", "500", "2024-03-01T00:00:00")}
		assert.True(t, CalculateDeltaSum(onlyGauge, "").IsZero())
	})
}

func TestGetLatestGaugeValues(t *testing.T) {
	records := []MeteringRecord{
		gaugeRecord("mem.used", "100", "2024-03-01T00:00:00"),
		gaugeRecord("mem.used", "300", "2024-03-01T02:00:00"),
		gaugeRecord("mem.used", "200", "2024-03-01T01:00:00"),
		gaugeRecord("disk.used", "50", "2024-03-01T01:30:00"),
		deltaRecord("mem.used", "999", "2024-03-01T05:00:00"),
	}

	latest := GetLatestGaugeValues(records)
	require.Len(t, latest, 2)
	assert.Equal(t, "300", latest["mem.used"].String())
	assert.Equal(t, "50", latest["disk.used"].String())
}

func TestGetLatestGaugeValues_TieBrokenByInputOrder(t *testing.T) {
	records := []MeteringRecord{
		gaugeRecord("mem.used", "1", "2024-03-01T00:00:00"),
		gaugeRecord("mem.used", "2", "2024-03-01T00:00:00"),
	}

	latest := GetLatestGaugeValues(records)
	assert.Equal(t, "2", latest["mem.used"].String())
}

func TestDetectOutliers(t *testing.T) {
	t.Run("flags the extreme record", func(t *testing.T) {
		volumes := []string{"10", "11", "9", "10", "11", "10", "9", "1000"}
		records := make([]MeteringRecord, len(volumes))
		for i, v := range volumes {
			records[i] = deltaRecord("cpu", v, "2024-03-01T0"+strconv.Itoa(i)+":00:00")
		}

		outliers := DetectOutliers(records, DefaultOutlierThreshold)
		require.Len(t, outliers, 1)
		assert.Equal(t, "1000", outliers[0].CounterVolume)
	})

	t.Run("fewer than three records is always empty", func(t *testing.T) {
		records := []MeteringRecord{
			deltaRecord("cpu", "1", "2024-03-01T00:00:00"),
			deltaRecord("cpu", "1000000", "2024-03-01T01:00:00"),
		}
		assert.Empty(t, DetectOutliers(records, DefaultOutlierThreshold))
	})

	t.Run("identical volumes give zero deviation and no outliers", func(t *testing.T) {
		records := []MeteringRecord{
			deltaRecord("cpu", "5", "2024-03-01T00:00:00"),
			deltaRecord("cpu", "5", "2024-03-01T01:00:00"),
			deltaRecord("cpu", "5", "2024-03-01T02:00:00"),
		}
		assert.Empty(t, DetectOutliers(records, DefaultOutlierThreshold))
	})
}

func TestCalculateGrowthRate(t *testing.T) {
	previous := []MeteringRecord{
		deltaRecord("cpu", "100", "2024-02-01T00:00:00"),
		deltaRecord("cpu", "100", "2024-02-15T00:00:00"),
	}
	current := []MeteringRecord{
		deltaRecord("cpu", "150", "2024-03-01T00:00:00"),
		deltaRecord("cpu", "100", "2024-03-15T00:00:00"),
	}

	t.Run("positive growth", func(t *testing.T) {
		growth := CalculateGrowthRate(previous, current, "cpu")
		assert.Equal(t, "50.00", growth.Absolute.StringFixed(2))
		assert.Equal(t, "25.00", growth.Percentage.StringFixed(2))
	})

	t.Run("zero previous sum yields zero percentage", func(t *testing.T) {
		growth := CalculateGrowthRate(nil, current, "cpu")
		assert.Equal(t, "250.00", growth.Absolute.StringFixed(2))
		assert.True(t, growth.Percentage.IsZero())
	})

	t.Run("shrinking usage", func(t *testing.T) {
		growth := CalculateGrowthRate(current, previous, "cpu")
		assert.Equal(t, "-50.00", growth.Absolute.StringFixed(2))
		assert.Equal(t, "-20.00", growth.Percentage.StringFixed(2))
	})
}

func TestCreateUsageSummary(t *testing.T) {
	t.Run("empty input returns the empty shape", func(t *testing.T) {
		summary := CreateUsageSummary(nil)
		assert.Equal(t, 0, summary.TotalRecords)
		assert.Empty(t, summary.Counters)
		assert.Empty(t, summary.Resources)
		assert.Nil(t, summary.TimeRange)
	})

	t.Run("combines delta totals, gauges, resources and time range", func(t *testing.T) {
		cpu1 := deltaRecord("cpu", "10", "2024-03-01T00:00:00")
		cpu1.ResourceID = "vm-1"
		cpu2 := deltaRecord("cpu", "20", "2024-03-03T00:00:00")
		cpu2.ResourceID = "vm-2"
		mem1 := gaugeRecord("mem.used", "100", "2024-03-01T12:00:00")
		mem1.ResourceID = "vm-1"
		mem2 := gaugeRecord("mem.used", "250", "2024-03-02T12:00:00")
		mem2.ResourceID = "vm-1"

		summary := CreateUsageSummary([]MeteringRecord{cpu1, mem2, cpu2, mem1})

		assert.Equal(t, 4, summary.TotalRecords)
		assert.Equal(t, []string{"vm-1", "vm-2"}, summary.Resources)

		require.Contains(t, summary.Counters, "cpu")
		assert.Equal(t, "30", summary.Counters["cpu"].DeltaTotal.String())

		require.Contains(t, summary.Counters, "mem.used")
		assert.Equal(t, "250", summary.Counters["mem.used"].LatestGauge.String())

		require.NotNil(t, summary.TimeRange)
		assert.Equal(t, "2024-03-01T00:00:00", summary.TimeRange.Start.Format("2006-01-02T15:04:05"))
		assert.Equal(t, "2024-03-03T00:00:00", summary.TimeRange.End.Format("2006-01-02T15:04:05"))
	})

	t.Run("identical output regardless of input ordering", func(t *testing.T) {
		a := deltaRecord("cpu", "10", "2024-03-01T00:00:00")
		b := deltaRecord("cpu", "20", "2024-03-02T00:00:00")
		c := gaugeRecord("mem", "5", "2024-03-03T00:00:00")

		assert.Equal(t,
			CreateUsageSummary([]MeteringRecord{a, b, c}),
			CreateUsageSummary([]MeteringRecord{c, b, a}),
		)
	})
}
