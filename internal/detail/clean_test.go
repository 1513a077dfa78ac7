package detail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanDescription(t *testing.T) {
	t.Run("AppliesAllRulesInOrder", func(t *testing.T) {
		in := []string{
			"The museum rises from the harbor edge.",
			"too short",
			"Check the gallery for construction photographs.",
			"Visitors enter beneath a Save this picture! suspended whale skeleton.",
			"The museum rises from the harbor edge.",
			"Galleries wrap around a central atrium.",
		}
		out := CleanDescription(in)
		assert.Equal(t, []string{
			"The museum rises from the harbor edge.",
			"Galleries wrap around a central atrium.",
		}, out)
	})

	t.Run("ThreeWordLinesDropped", func(t *testing.T) {
		assert.Empty(t, CleanDescription([]string{"one two three"}))
		assert.Len(t, CleanDescription([]string{"one two three four"}), 1)
	})

	t.Run("FollowBoilerplateDropped", func(t *testing.T) {
		out := CleanDescription([]string{
			"You'll now receive updates based on what you follow!",
		})
		assert.Empty(t, out)
	})

	t.Run("EmptyInputYieldsEmptyOutput", func(t *testing.T) {
		assert.Empty(t, CleanDescription(nil))
	})
}
