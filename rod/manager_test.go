//go:build integration

package rod_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/fwojciec/reelscrape/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserManager_Rotation(t *testing.T) {
	t.Parallel()

	t.Run("rotates chrome after max pages", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		manager, err := rod.NewBrowserManager(
			rod.WithMaxPages(2),
			rod.WithManagerLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		)
		require.NoError(t, err)
		defer manager.Close()

		first := manager.Browser()
		require.NotNil(t, first)
		manager.PageServed()
		manager.PageServed()

		second := manager.Browser()
		require.NotNil(t, second)
		assert.NotSame(t, first, second)
		assert.Contains(t, buf.String(), "chrome rotated")
		assert.Contains(t, buf.String(), "served=2")
	})

	t.Run("keeps chrome below max pages", func(t *testing.T) {
		t.Parallel()

		manager, err := rod.NewBrowserManager(rod.WithMaxPages(5))
		require.NoError(t, err)
		defer manager.Close()

		first := manager.Browser()
		manager.PageServed()

		assert.Same(t, first, manager.Browser())
	})
}

func TestBrowserManager_Close(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager()
	require.NoError(t, err)
	require.NotZero(t, manager.LauncherPID())

	require.NoError(t, manager.Close())
	require.NoError(t, manager.Close())
	assert.Zero(t, manager.LauncherPID())
	assert.Nil(t, manager.Browser())
}
