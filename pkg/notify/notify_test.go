package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCenter(banner Banner) *Center {
	return NewCenter(slog.New(slog.NewTextHandler(io.Discard, nil)), banner)
}

type recordingBanner struct {
	posted []Notification
	err    error
}

func (b *recordingBanner) Post(_ context.Context, n Notification) error {
	b.posted = append(b.posted, n)
	return b.err
}

func TestShowAndClear(t *testing.T) {
	ctx := context.Background()
	banner := &recordingBanner{}
	c := testCenter(banner)
	sub := c.Subscribe(4)

	require.NoError(t, c.Show(ctx, Notification{ID: "1700000000000", Message: "Saved!", Interactive: true}))
	require.NoError(t, c.Show(ctx, Notification{Message: "Already saved!"}))

	active := c.shown()
	require.Len(t, active, 2)
	assert.Equal(t, "1700000000000", active[0].ID)
	assert.Equal(t, Title, active[0].Title)
	assert.True(t, strings.HasPrefix(active[1].ID, "msg-"))

	first := <-sub
	assert.Equal(t, "Saved!", first.Message)
	second := <-sub
	assert.Equal(t, "Already saved!", second.Message)
	assert.Len(t, banner.posted, 2)

	c.Clear("1700000000000")
	c.Clear("missing")
	assert.Len(t, c.shown(), 1)
}

func TestShowBannerError(t *testing.T) {
	c := testCenter(&recordingBanner{err: errors.New("boom")})
	err := c.Show(context.Background(), Notification{Message: "x"})
	require.Error(t, err)
	assert.Len(t, c.shown(), 1)
}

func TestSubscribeNeverBlocks(t *testing.T) {
	c := testCenter(nil)
	sub := c.Subscribe(1)
	for i := 0; i < 3; i++ {
		require.NoError(t, c.Show(context.Background(), Notification{Message: "x"}))
	}
	assert.Len(t, sub, 1)
}

func TestClick(t *testing.T) {
	c := testCenter(nil)
	var got []string
	c.OnClicked(func(_ context.Context, id string) error {
		got = append(got, "a:"+id)
		return errors.New("first")
	})
	c.OnClicked(func(_ context.Context, id string) error {
		got = append(got, "b:"+id)
		return errors.New("second")
	})

	err := c.Click(context.Background(), "42")
	assert.EqualError(t, err, "first")
	assert.Equal(t, []string{"a:42", "b:42"}, got)
}

func TestPlainIDIsNotNumeric(t *testing.T) {
	a, b := PlainID(), PlainID()
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "msg-"))
}
