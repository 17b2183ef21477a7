package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hearthlight/quiver/core"
)

func TestFilterMatches(t *testing.T) {
	meta := core.AccessMeta{
		OwnerId:    "alice",
		OwnerLabel: "alice@example.com",
		SharedWith: []string{"bob", "carol@example.com"},
		GroupIds:   []string{"eng"},
	}

	t.Run("owner matches", func(t *testing.T) {
		filter := BuildFilter(core.Caller{Id: "alice"})
		assert.True(t, filter.Matches(meta))
	})

	t.Run("stranger does not match", func(t *testing.T) {
		filter := BuildFilter(core.Caller{Id: "mallory"})
		assert.False(t, filter.Matches(meta))
	})

	t.Run("admin matches everything", func(t *testing.T) {
		filter := BuildFilter(core.Caller{Id: "mallory", IsAdmin: true})
		assert.True(t, filter.MatchAll())
		assert.True(t, filter.Matches(meta))
	})

	t.Run("public record matches any caller", func(t *testing.T) {
		public := meta
		public.IsPublic = true
		filter := BuildFilter(core.Caller{Id: "mallory"})
		assert.True(t, filter.Matches(public))
	})

	t.Run("shared by id", func(t *testing.T) {
		filter := BuildFilter(core.Caller{Id: "bob"})
		assert.True(t, filter.Matches(meta))
	})

	t.Run("shared by label", func(t *testing.T) {
		filter := BuildFilter(core.Caller{Id: "carol", Label: "carol@example.com"})
		assert.True(t, filter.Matches(meta))
	})

	t.Run("group intersection", func(t *testing.T) {
		filter := BuildFilter(core.Caller{Id: "dave", Groups: []string{"sales", "eng"}})
		assert.True(t, filter.Matches(meta))
	})

	t.Run("disjoint groups do not match", func(t *testing.T) {
		filter := BuildFilter(core.Caller{Id: "dave", Groups: []string{"sales"}})
		assert.False(t, filter.Matches(meta))
	})

	t.Run("empty caller id never matches by ownership", func(t *testing.T) {
		anon := core.AccessMeta{OwnerId: ""}
		filter := BuildFilter(core.Caller{Id: ""})
		assert.False(t, filter.Matches(anon))
	})
}

func TestCanAccess(t *testing.T) {
	meta := core.AccessMeta{OwnerId: "alice"}

	assert.True(t, CanAccess(meta, core.Caller{Id: "alice"}))
	assert.True(t, CanAccess(meta, core.Caller{Id: "x", IsAdmin: true}))
	assert.False(t, CanAccess(meta, core.Caller{Id: "bob"}))
}

func TestApplySharing(t *testing.T) {
	base := core.AccessMeta{
		OwnerId:    "alice",
		SharedWith: []string{"bob"},
		GroupIds:   []string{"eng"},
	}

	t.Run("grants are unioned, not replaced", func(t *testing.T) {
		updated := ApplySharing(base, nil, []string{"carol", "bob"}, []string{"ops"})
		assert.ElementsMatch(t, []string{"bob", "carol"}, updated.SharedWith)
		assert.ElementsMatch(t, []string{"eng", "ops"}, updated.GroupIds)
	})

	t.Run("nil isPublic leaves flag untouched", func(t *testing.T) {
		updated := ApplySharing(base, nil, nil, nil)
		assert.False(t, updated.IsPublic)
	})

	t.Run("isPublic toggles", func(t *testing.T) {
		public := true
		updated := ApplySharing(base, &public, nil, nil)
		assert.True(t, updated.IsPublic)

		private := false
		updated = ApplySharing(updated, &private, nil, nil)
		assert.False(t, updated.IsPublic)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		_ = ApplySharing(base, nil, []string{"zed"}, []string{"zgroup"})
		assert.Equal(t, []string{"bob"}, base.SharedWith)
		assert.Equal(t, []string{"eng"}, base.GroupIds)
	})

	t.Run("empty strings are ignored", func(t *testing.T) {
		updated := ApplySharing(base, nil, []string{""}, []string{""})
		assert.Equal(t, []string{"bob"}, updated.SharedWith)
		assert.Equal(t, []string{"eng"}, updated.GroupIds)
	})
}
