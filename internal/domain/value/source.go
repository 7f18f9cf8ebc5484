package value

type Source string

const (
	SourceOther           Source = "other"
	CategoryUncategorized        = "uncategorized"
)

func (s Source) String() string {
	return string(s)
}

// SourceQuota bounds the share of the feed one source may take.
// MaxRatio == 0 leaves the source without a ceiling.
type SourceQuota struct {
	MinRatio float64 `json:"min_ratio" validate:"gte=0,lte=1"`
	MaxRatio float64 `json:"max_ratio" validate:"gte=0,lte=1"`
}

// SourceGroup constrains the combined allocation of several sources.
// MinTotalRatio is a floor, MaxTotalRatio a ceiling (zero: uncapped).
type SourceGroup struct {
	Name          string   `json:"name" validate:"required"`
	Sources       []Source `json:"sources" validate:"required,min=1,dive,required"`
	MinTotalRatio float64  `json:"min_total_ratio" validate:"gte=0,lte=1"`
	MaxTotalRatio float64  `json:"max_total_ratio" validate:"gte=0,lte=1"`
}

func (g SourceGroup) Has(src Source) bool {
	for _, s := range g.Sources {
		if s == src {
			return true
		}
	}

	return false
}

// FeedPolicy is the static quota configuration of the feed.
type FeedPolicy struct {
	Quotas map[Source]SourceQuota `json:"quotas" validate:"dive"`
	Groups []SourceGroup          `json:"groups" validate:"dive"`
}
