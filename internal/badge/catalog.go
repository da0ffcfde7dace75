// Package badge awards milestone badges to groups.
//
// Badges are granted at most once per group. Live triggers fire after posts
// and likes are committed, and a scheduled sweep catches time-based badges
// nobody triggers. Both paths funnel into Engine.Award, whose idempotent
// insert is the only coordination between them.
package badge

import "memoria/internal/models"

// Kind identifies one badge in the catalog.
type Kind int

const (
	ConsecutiveDays Kind = iota + 1
	PostCount
	GroupAge
	GroupLikes
	PostLikes
)

// Award thresholds.
const (
	StreakDays         = 7
	PostCountThreshold = 20
	GroupAgeYears      = 1
	LikeThreshold      = 10000
)

var definitions = map[Kind]struct {
	id   uint
	name string
	slug string
}{
	ConsecutiveDays: {1, "7일 연속 추억 등록", "consecutive_days"},
	PostCount:       {2, "추억 수 20개 이상 등록", "post_count"},
	GroupAge:        {3, "그룹 생성 후 1년 달성", "group_age"},
	GroupLikes:      {4, "그룹 공감 1만 개 이상 받기", "group_likes"},
	PostLikes:       {5, "추억 공감 1만 개 이상 받기", "post_likes"},
}

// All lists every kind in catalog order.
func All() []Kind {
	return []Kind{ConsecutiveDays, PostCount, GroupAge, GroupLikes, PostLikes}
}

// ID is the stable primary key of the badge row.
func (k Kind) ID() uint { return definitions[k].id }

// Name is the display name stored in the catalog.
func (k Kind) Name() string { return definitions[k].name }

// String returns a short identifier used in logs and metric labels.
func (k Kind) String() string {
	if d, ok := definitions[k]; ok {
		return d.slug
	}
	return "unknown"
}

func (k Kind) Valid() bool {
	_, ok := definitions[k]
	return ok
}

// KindFromID resolves a catalog id.
func KindFromID(id uint) (Kind, bool) {
	for _, k := range All() {
		if k.ID() == id {
			return k, true
		}
	}
	return 0, false
}

// Catalog returns the badge rows to seed.
func Catalog() []models.Badge {
	out := make([]models.Badge, 0, len(definitions))
	for _, k := range All() {
		out = append(out, models.Badge{ID: k.ID(), Name: k.Name()})
	}
	return out
}
