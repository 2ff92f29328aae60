package matcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifound/lostfound/internal/domain/entity"
	"github.com/unifound/lostfound/internal/matcher"
)

func lostItem(title, category string, tags ...string) *entity.Item {
	return &entity.Item{
		ID:       "item-lost",
		Type:     entity.ItemTypeLost,
		Title:    title,
		Category: category,
		Tags:     tags,
	}
}

func foundItem(title, category string, tags ...string) *entity.Item {
	return &entity.Item{
		ID:       "item-found",
		Type:     entity.ItemTypeFound,
		Title:    title,
		Category: category,
		Tags:     tags,
	}
}

func TestKeywordMatcher_Score(t *testing.T) {
	m := matcher.NewKeywordMatcher()

	t.Run("full overlap scores near one", func(t *testing.T) {
		lost := lostItem("Navy blue backpack", "bag", "navy", "nike")
		found := foundItem("navy blue backpack", "bag", "nike", "navy")

		score, reasons := m.Score(lost, found)

		assert.InDelta(t, 1.0, score, 0.001)
		require.Len(t, reasons, 3)
		assert.Contains(t, reasons, "category match: bag")
		assert.Contains(t, reasons, "shared tags")
		assert.Contains(t, reasons, "title keywords overlap")
	})

	t.Run("category only", func(t *testing.T) {
		lost := lostItem("Umbrella", "accessory")
		found := foundItem("Scarf", "accessory")

		score, reasons := m.Score(lost, found)

		assert.InDelta(t, 0.4, score, 0.001)
		require.Len(t, reasons, 1)
		assert.Equal(t, "category match: accessory", reasons[0])
	})

	t.Run("category comparison is case insensitive", func(t *testing.T) {
		lost := lostItem("Wallet", "Electronics")
		found := foundItem("Phone", "electronics")

		score, reasons := m.Score(lost, found)

		assert.InDelta(t, 0.4, score, 0.001)
		assert.Equal(t, []string{"category match: electronics"}, reasons)
	})

	t.Run("empty categories never match", func(t *testing.T) {
		lost := lostItem("Umbrella", "")
		found := foundItem("Scarf", "")

		score, reasons := m.Score(lost, found)

		assert.Zero(t, score)
		assert.Empty(t, reasons)
	})

	t.Run("partial tag overlap scales the tag weight", func(t *testing.T) {
		lost := lostItem("", "", "navy", "leather")
		found := foundItem("", "", "navy", "strap")

		score, reasons := m.Score(lost, found)

		// One of two distinct tags shared.
		assert.InDelta(t, 0.175, score, 0.001)
		assert.Equal(t, []string{"shared tags"}, reasons)
	})

	t.Run("tags compare case insensitively", func(t *testing.T) {
		lost := lostItem("", "", "Nike")
		found := foundItem("", "", "nike")

		score, _ := m.Score(lost, found)

		assert.InDelta(t, 0.35, score, 0.001)
	})

	t.Run("short title words are ignored", func(t *testing.T) {
		lost := lostItem("an id on a go bag", "")
		found := foundItem("my id in a red bag", "")

		score, reasons := m.Score(lost, found)

		// Only "bag" survives tokenization on the lost side.
		assert.InDelta(t, 0.25, score, 0.001)
		assert.Equal(t, []string{"title keywords overlap"}, reasons)
	})

	t.Run("disjoint items score zero", func(t *testing.T) {
		lost := lostItem("Black umbrella", "accessory", "black")
		found := foundItem("Silver laptop", "electronics", "silver")

		score, reasons := m.Score(lost, found)

		assert.Zero(t, score)
		assert.Nil(t, reasons)
	})
}
