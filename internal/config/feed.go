package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"dealfeed/internal/domain"
	"dealfeed/internal/domain/value"
	"dealfeed/pkg/errcodes"
)

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary         //nolint:gochecknoglobals // skip
	validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // skip
)

type Feed struct {
	MinDropRate float64       `env:"FEED_MIN_DROP_RATE" envDefault:"0"`
	LockTTL     time.Duration `env:"FEED_LOCK_TTL" envDefault:"5m"`
	// PolicyJSON целиком заменяет DefaultPolicy.
	PolicyJSON string `env:"FEED_POLICY_JSON" json:"-"`

	Policy value.FeedPolicy `env:"-"`
}

// DefaultPolicy is the production quota table.
func DefaultPolicy() value.FeedPolicy {
	return value.FeedPolicy{
		Quotas: map[value.Source]value.SourceQuota{
			"best100":      {MaxRatio: 0.20, MinRatio: 0.05},
			"todayDeal":    {MaxRatio: 0.12, MinRatio: 0.03},
			"shoppingLive": {MaxRatio: 0.08, MinRatio: 0.02},
			"naverPromo":   {MaxRatio: 0.10, MinRatio: 0.02},
			"11st":         {MaxRatio: 0.12, MinRatio: 0.06},
			"gmarket":      {MaxRatio: 0.12, MinRatio: 0.06},
			"auction":      {MaxRatio: 0.08, MinRatio: 0.03},
			"lotteon":      {MaxRatio: 0.10, MinRatio: 0.04},
			"ssg":          {MaxRatio: 0.10, MinRatio: 0.04},
		},
		Groups: []value.SourceGroup{
			{
				Name:          "naver",
				Sources:       []value.Source{"best100", "todayDeal", "shoppingLive", "naverPromo"},
				MaxTotalRatio: 0.50,
			},
			{
				Name:          "external",
				Sources:       []value.Source{"11st", "gmarket", "auction", "lotteon", "ssg"},
				MinTotalRatio: 0.30,
			},
		},
	}
}

// ParsePolicy returns DefaultPolicy for an empty raw value.
func ParsePolicy(raw string) (value.FeedPolicy, error) {
	if strings.TrimSpace(raw) == "" {
		return DefaultPolicy(), nil
	}

	var policy value.FeedPolicy

	if err := json.Unmarshal([]byte(raw), &policy); err != nil {
		return value.FeedPolicy{}, domain.WrapError(err, errcodes.InvalidFeedPolicy, "invalid feed policy json")
	}

	if err := ValidatePolicy(policy); err != nil {
		return value.FeedPolicy{}, err
	}

	return policy, nil
}

func ValidatePolicy(policy value.FeedPolicy) error {
	if err := validate.Struct(policy); err != nil {
		return domain.WrapError(err, errcodes.InvalidFeedPolicy, "feed policy failed validation")
	}

	for src, quota := range policy.Quotas {
		if quota.MaxRatio > 0 && quota.MinRatio > quota.MaxRatio {
			return domain.NewError(errcodes.InvalidFeedPolicy,
				fmt.Sprintf("source %q: min ratio %.2f exceeds max ratio %.2f", src, quota.MinRatio, quota.MaxRatio))
		}
	}

	for _, group := range policy.Groups {
		if group.MaxTotalRatio > 0 && group.MinTotalRatio > group.MaxTotalRatio {
			return domain.NewError(errcodes.InvalidFeedPolicy,
				fmt.Sprintf("group %q: min total ratio %.2f exceeds max total ratio %.2f",
					group.Name, group.MinTotalRatio, group.MaxTotalRatio))
		}
	}

	return nil
}
