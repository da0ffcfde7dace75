package badge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogIsStable(t *testing.T) {
	rows := Catalog()
	assert.Len(t, rows, 5)

	seen := map[string]bool{}
	for i, row := range rows {
		assert.Equal(t, uint(i+1), row.ID)
		assert.NotEmpty(t, row.Name)
		assert.False(t, seen[row.Name], "duplicate badge name %q", row.Name)
		seen[row.Name] = true
	}
	assert.Equal(t, "7일 연속 추억 등록", ConsecutiveDays.Name())
	assert.Equal(t, "추억 공감 1만 개 이상 받기", PostLikes.Name())
}

func TestKindFromID(t *testing.T) {
	for _, k := range All() {
		got, ok := KindFromID(k.ID())
		assert.True(t, ok)
		assert.Equal(t, k, got)
	}

	_, ok := KindFromID(99)
	assert.False(t, ok)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "group_age", GroupAge.String())
	assert.Equal(t, "unknown", Kind(42).String())
	assert.False(t, Kind(0).Valid())
}
