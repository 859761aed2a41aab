package storage_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/readlater/pkg/storage"
)

func TestPreferencesRoundTrip(t *testing.T) {
	for _, backend := range []string{"file", "redis"} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			store := storage.New(newKV(t, backend))

			prefs, err := store.Preferences(ctx)
			require.NoError(t, err)
			assert.Equal(t, storage.Preferences{}, prefs)

			want := storage.Preferences{Theme: storage.ThemeDark, FontSize: storage.FontSize(22), Sans: true}
			require.NoError(t, store.SavePreferences(ctx, want))

			got, err := store.Preferences(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestPreferencesIndependentOfArticles(t *testing.T) {
	ctx := context.Background()
	store := storage.New(newKV(t, "file"))

	_, err := store.Insert(ctx, storage.Article{ID: 1, URL: "https://a.test/"})
	require.NoError(t, err)
	require.NoError(t, store.SavePreferences(ctx, storage.Preferences{Theme: storage.ThemeSepia}))
	require.NoError(t, store.DeleteByID(ctx, 1))

	prefs, err := store.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.ThemeSepia, prefs.Theme)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFileKVPersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	kv, err := storage.NewFileKV(dir)
	require.NoError(t, err)
	_, err = storage.New(kv).Insert(ctx, storage.Article{ID: 7, URL: "https://a.test/", Title: "A"})
	require.NoError(t, err)

	reopened, err := storage.NewFileKV(dir)
	require.NoError(t, err)
	a, err := storage.New(reopened).Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "A", a.Title)
	assert.Equal(t, storage.StatusUnread, a.Status)

	_, err = os.Stat(reopened.Path())
	require.NoError(t, err)
}

func TestFileKVRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	kv, err := storage.NewFileKV(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(kv.Path(), []byte("{not json"), 0644))

	_, err = storage.New(kv).List(context.Background())
	require.Error(t, err)
}

func TestInsertErrArticleExists(t *testing.T) {
	ctx := context.Background()
	store := storage.New(newKV(t, "file"))

	_, err := store.Insert(ctx, storage.Article{ID: 1, URL: "https://a.test/"})
	require.NoError(t, err)
	_, err = store.Insert(ctx, storage.Article{ID: 2, URL: "https://a.test/"})

	var exists *storage.ErrArticleExists
	require.True(t, errors.As(err, &exists))
	assert.Equal(t, "https://a.test/", exists.URL)
}

// TestInsertUnique checks that after N successful inserts the store holds N
// articles with distinct IDs and URLs, even when every insert proposes the
// same ID.
func TestInsertUnique(t *testing.T) {
	ctx := context.Background()
	store := storage.New(newKV(t, "file"))

	const n = 25
	for i := 0; i < n; i++ {
		_, err := store.Insert(ctx, storage.Article{ID: 1000, URL: fmt.Sprintf("https://a.test/%d", i)})
		require.NoError(t, err)
	}

	articles, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, articles, n)

	ids := map[int64]bool{}
	urls := map[string]bool{}
	for _, a := range articles {
		ids[a.ID] = true
		urls[a.URL] = true
	}
	assert.Len(t, ids, n)
	assert.Len(t, urls, n)
}

func TestStatusOpposite(t *testing.T) {
	assert.Equal(t, storage.StatusArchived, storage.StatusUnread.Opposite())
	assert.Equal(t, storage.StatusUnread, storage.StatusArchived.Opposite())

	_, err := storage.ParseStatus("read")
	require.Error(t, err)
	_, err = storage.ParseTheme("blue")
	require.Error(t, err)
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2026, time.March, 5, 14, 3, 9, 0, time.UTC)
	assert.Equal(t, "5.03.2026, 14:03:09", storage.FormatDate(ts))
}
