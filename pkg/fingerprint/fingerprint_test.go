package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupKey(t *testing.T) {
	t.Run("order independent", func(t *testing.T) {
		assert.Equal(t, GroupKey([]string{"a", "b", "c"}), GroupKey([]string{"c", "a", "b"}))
	})

	t.Run("different members differ", func(t *testing.T) {
		assert.NotEqual(t, GroupKey([]string{"a", "b"}), GroupKey([]string{"a", "c"}))
	})

	t.Run("ids are not concatenated ambiguously", func(t *testing.T) {
		assert.NotEqual(t, GroupKey([]string{"ab", "c"}), GroupKey([]string{"a", "bc"}))
	})

	t.Run("does not reorder input", func(t *testing.T) {
		ids := []string{"z", "y"}
		GroupKey(ids)
		assert.Equal(t, []string{"z", "y"}, ids)
	})

	t.Run("hex sha256", func(t *testing.T) {
		assert.Len(t, GroupKey([]string{"a"}), 64)
	})
}
