package feedorder_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"dealfeed/internal/domain/service/feedorder"
	"dealfeed/internal/domain/value"
)

func TestAllocateN(t *testing.T) {
	abc := []feedorder.Availability{{Source: "a", Count: 50}, {Source: "b", Count: 30}, {Source: "c", Count: 5}}
	abcPolicy := value.FeedPolicy{Quotas: map[value.Source]value.SourceQuota{
		"a": {MinRatio: 0.05, MaxRatio: 0.5},
		"b": {MinRatio: 0.05, MaxRatio: 0.3},
		"c": {MinRatio: 0.05, MaxRatio: 0.2},
	}}

	testCases := []struct {
		name      string
		available []feedorder.Availability
		size      int
		policy    value.FeedPolicy
		want      feedorder.Allocation
	}{
		{
			name:      "ceilings bind",
			available: abc,
			size:      20,
			policy:    abcPolicy,
			want:      feedorder.Allocation{"a": 10, "b": 6, "c": 4},
		},
		{
			name:      "residual goes past ceilings",
			available: abc,
			size:      60,
			policy:    abcPolicy,
			want:      feedorder.Allocation{"a": 37, "b": 18, "c": 5},
		},
		{
			name:      "whole pool",
			available: abc,
			size:      85,
			policy:    abcPolicy,
			want:      feedorder.Allocation{"a": 50, "b": 30, "c": 5},
		},
		{
			name:      "size clamped to pool",
			available: []feedorder.Availability{{Source: "a", Count: 3}},
			size:      1000,
			want:      feedorder.Allocation{"a": 3},
		},
		{
			name:      "ratio rounding tolerates float error",
			available: []feedorder.Availability{{Source: "a", Count: 100}, {Source: "b", Count: 100}},
			size:      100,
			policy: value.FeedPolicy{Quotas: map[value.Source]value.SourceQuota{
				"a": {MinRatio: 0.07, MaxRatio: 0.07},
			}},
			want: feedorder.Allocation{"a": 7, "b": 93},
		},
		{
			name:      "minimum wins over ceiling",
			available: []feedorder.Availability{{Source: "b", Count: 100}, {Source: "a", Count: 100}},
			size:      10,
			policy: value.FeedPolicy{Quotas: map[value.Source]value.SourceQuota{
				"a": {MinRatio: 0.5, MaxRatio: 0.2},
			}},
			want: feedorder.Allocation{"a": 5, "b": 5},
		},
		{
			name: "group floor and ceiling",
			available: []feedorder.Availability{
				{Source: "n1", Count: 40},
				{Source: "n2", Count: 40},
				{Source: "e1", Count: 10},
				{Source: "e2", Count: 10},
			},
			size: 20,
			policy: value.FeedPolicy{Groups: []value.SourceGroup{
				{Name: "internal", Sources: []value.Source{"n1", "n2"}, MaxTotalRatio: 0.5},
				{Name: "external", Sources: []value.Source{"e1", "e2"}, MinTotalRatio: 0.3},
			}},
			want: feedorder.Allocation{"n1": 10, "n2": 0, "e1": 6, "e2": 4},
		},
		{
			name:      "minimum capped by availability",
			available: []feedorder.Availability{{Source: "a", Count: 2}, {Source: "b", Count: 98}},
			size:      100,
			policy: value.FeedPolicy{Quotas: map[value.Source]value.SourceQuota{
				"a": {MinRatio: 0.1, MaxRatio: 0.5},
			}},
			want: feedorder.Allocation{"a": 2, "b": 98},
		},
		{
			name:      "zero size",
			available: abc,
			size:      0,
			policy:    abcPolicy,
			want:      feedorder.Allocation{},
		},
		{
			name: "nothing available",
			size: 10,
			want: feedorder.Allocation{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			rq.Equal(tc.want, feedorder.AllocateN(tc.available, tc.size, tc.policy))
		})
	}
}

func TestAllocate_UnconfiguredSourceGetsResidual(t *testing.T) {
	rq := require.New(t)

	policy := value.FeedPolicy{Quotas: map[value.Source]value.SourceQuota{
		"a": {MinRatio: 0.1, MaxRatio: 0.2},
	}}

	got := feedorder.Allocate([]feedorder.Availability{{Source: "a", Count: 10}, {Source: "d", Count: 4}}, policy)

	rq.Equal(feedorder.Allocation{"a": 10, "d": 4}, got)
	rq.Equal(14, got.Total())
}

func TestAllocateN_Bounds(t *testing.T) {
	rq := require.New(t)

	random := rand.New(rand.NewSource(1)) //nolint:gosec // for tests
	sources := []value.Source{"a", "b", "c", "d", "e", "f"}

	for range 500 {
		var available []feedorder.Availability

		policy := value.FeedPolicy{Quotas: map[value.Source]value.SourceQuota{}}
		pool := 0

		for _, src := range sources[:1+random.Intn(len(sources))] {
			n := random.Intn(30)
			pool += n
			available = append(available, feedorder.Availability{Source: src, Count: n})

			if random.Intn(3) > 0 {
				minRatio := random.Float64() * 0.15
				policy.Quotas[src] = value.SourceQuota{MinRatio: minRatio, MaxRatio: minRatio + random.Float64()*(1-minRatio)}
			}
		}

		size := 0
		if pool > 0 {
			size = random.Intn(pool + 1)
		}

		got := feedorder.AllocateN(available, size, policy)

		guaranteed := 0

		for _, a := range available {
			rq.GreaterOrEqual(got[a.Source], 0)
			rq.LessOrEqual(got[a.Source], a.Count)

			if quota, ok := policy.Quotas[a.Source]; ok {
				floor := min(int(math.Ceil(float64(size)*quota.MinRatio-1e-9)), a.Count)
				rq.GreaterOrEqual(got[a.Source], floor)
				guaranteed += floor
			}
		}

		rq.Equal(max(size, guaranteed), got.Total())
	}
}
