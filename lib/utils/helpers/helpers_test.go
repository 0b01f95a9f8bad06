package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHelpers(t *testing.T) {
	t.Run(`placeholder name`, func(t *testing.T) {
		require.Equal(t, "User 0f1e2d3c", PlaceholderName("0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0"))
		require.Equal(t, "User abc", PlaceholderName("abc"))
	})
	t.Run(`unique strings keep order and drop empty`, func(t *testing.T) {
		require.Equal(t, []string{"a", "b"}, UniqueStrings("a", "", "b", "a"))
	})
	t.Run(`timeout`, func(t *testing.T) {
		ctx, cancel := WithTimeout(context.Background(), time.Millisecond)
		defer cancel()
		<-ctx.Done()
		require.True(t, IsContextDone(ctx))
		require.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
	})
	t.Run(`round money`, func(t *testing.T) {
		require.Equal(t, 444.24, RoundMoney(444.2388))
	})
}
