package link

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayezeilo/shortlinks/internal/errx"
)

// testRepositoryContract runs the behaviour every Repository must share.
// newRepo returns an empty, migrated store.
func testRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("insert assigns id and defaults", func(t *testing.T) {
		repo := newRepo(t)

		l, err := repo.Insert(ctx, NewLink{Name: "abc", Link: "https://example.com"})
		require.NoError(t, err)
		assert.Positive(t, l.ID)
		assert.Equal(t, "abc", l.Name)
		assert.Equal(t, "https://example.com", l.Link)
		assert.True(t, l.Enabled)
		assert.Zero(t, l.TimesUsed)

		found, err := repo.FindByName(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, l, found)
	})

	t.Run("duplicate name is a conflict", func(t *testing.T) {
		repo := newRepo(t)

		first, err := repo.Insert(ctx, NewLink{Name: "dup", Link: "https://one.example"})
		require.NoError(t, err)

		_, err = repo.Insert(ctx, NewLink{Name: "dup", Link: "https://two.example"})
		assert.Equal(t, errx.Conflict, errx.KindOf(err))

		found, err := repo.FindByName(ctx, "dup")
		require.NoError(t, err)
		assert.Equal(t, first, found)
	})

	t.Run("find missing name", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.FindByName(ctx, "nope")
		assert.Equal(t, errx.NotFound, errx.KindOf(err))
	})

	t.Run("list is ordered by id and empty when no rows", func(t *testing.T) {
		repo := newRepo(t)

		links, err := repo.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, links)
		assert.Empty(t, links)

		for _, name := range []string{"b", "a", "c"} {
			_, err := repo.Insert(ctx, NewLink{Name: name, Link: "https://example.com/" + name})
			require.NoError(t, err)
		}

		links, err = repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, links, 3)
		assert.Equal(t, []string{"b", "a", "c"}, []string{links[0].Name, links[1].Name, links[2].Name})
	})

	t.Run("update applies only present fields", func(t *testing.T) {
		repo := newRepo(t)

		l, err := repo.Insert(ctx, NewLink{Name: "abc", Link: "https://example.com"})
		require.NoError(t, err)

		disabled := false
		require.NoError(t, repo.Update(ctx, l.ID, UpdatableLink{Enabled: &disabled}))

		found, err := repo.FindByName(ctx, "abc")
		require.NoError(t, err)
		assert.False(t, found.Enabled)
		assert.Equal(t, "https://example.com", found.Link)

		name, dest := "xyz", "https://example.org"
		require.NoError(t, repo.Update(ctx, l.ID, UpdatableLink{Name: &name, Link: &dest}))

		found, err = repo.FindByName(ctx, "xyz")
		require.NoError(t, err)
		assert.Equal(t, "https://example.org", found.Link)
		assert.False(t, found.Enabled)
	})

	t.Run("update missing id and rename conflict", func(t *testing.T) {
		repo := newRepo(t)

		enabled := true
		err := repo.Update(ctx, 9999, UpdatableLink{Enabled: &enabled})
		assert.Equal(t, errx.NotFound, errx.KindOf(err))

		_, err = repo.Insert(ctx, NewLink{Name: "one", Link: "https://one.example"})
		require.NoError(t, err)
		two, err := repo.Insert(ctx, NewLink{Name: "two", Link: "https://two.example"})
		require.NoError(t, err)

		taken := "one"
		err = repo.Update(ctx, two.ID, UpdatableLink{Name: &taken})
		assert.Equal(t, errx.Conflict, errx.KindOf(err))
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)

		l, err := repo.Insert(ctx, NewLink{Name: "gone", Link: "https://example.com"})
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, l.ID))

		_, err = repo.FindByName(ctx, "gone")
		assert.Equal(t, errx.NotFound, errx.KindOf(err))

		err = repo.Delete(ctx, l.ID)
		assert.Equal(t, errx.NotFound, errx.KindOf(err))
	})

	t.Run("increment usage", func(t *testing.T) {
		repo := newRepo(t)

		l, err := repo.Insert(ctx, NewLink{Name: "hits", Link: "https://example.com"})
		require.NoError(t, err)

		require.NoError(t, repo.IncrementUsage(ctx, l.ID))
		require.NoError(t, repo.IncrementUsage(ctx, l.ID))

		found, err := repo.FindByName(ctx, "hits")
		require.NoError(t, err)
		assert.EqualValues(t, 2, found.TimesUsed)

		err = repo.IncrementUsage(ctx, 9999)
		assert.Equal(t, errx.NotFound, errx.KindOf(err))
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		repo := newRepo(t)

		l, err := repo.Insert(ctx, NewLink{Name: "busy", Link: "https://example.com"})
		require.NoError(t, err)

		const n = 50
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- repo.IncrementUsage(ctx, l.ID)
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		found, err := repo.FindByName(ctx, "busy")
		require.NoError(t, err)
		assert.EqualValues(t, n, found.TimesUsed)
	})

	t.Run("cancelled caller does not abort an issued write", func(t *testing.T) {
		repo := newRepo(t)

		l, err := repo.Insert(ctx, NewLink{Name: "gone-client", Link: "https://example.com"})
		require.NoError(t, err)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		require.NoError(t, repo.IncrementUsage(cancelled, l.ID))

		found, err := repo.FindByName(ctx, "gone-client")
		require.NoError(t, err)
		assert.EqualValues(t, 1, found.TimesUsed)
	})
}
