package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Bind(t *testing.T) {
	t.Run("Binds a connection to a room", func(t *testing.T) {
		reg := NewRegistry()

		require.NoError(t, reg.Bind("c1", "r1"))

		roomID, ok := reg.Lookup("c1")
		require.True(t, ok)
		assert.Equal(t, "r1", roomID)
		assert.Equal(t, 1, reg.CountIn("r1"))
	})

	t.Run("Refuses a second room for the same connection", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Bind("c1", "r1"))

		err := reg.Bind("c1", "r2")

		require.ErrorIs(t, err, apperror.ErrAlreadyInRoom)
		roomID, _ := reg.Lookup("c1")
		assert.Equal(t, "r1", roomID)
		assert.Equal(t, 0, reg.CountIn("r2"))
	})

	t.Run("Concurrent binds of one connection admit exactly one", func(t *testing.T) {
		reg := NewRegistry()

		var wg sync.WaitGroup
		errs := make(chan error, 10)
		for i := range 10 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- reg.Bind("c1", fmt.Sprintf("r%d", i))
			}(i)
		}
		wg.Wait()
		close(errs)

		succeeded := 0
		for err := range errs {
			if err == nil {
				succeeded++
			}
		}
		assert.Equal(t, 1, succeeded)
	})
}

func TestRegistry_Unbind(t *testing.T) {
	t.Run("Removes the entry", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Bind("c1", "r1"))
		require.NoError(t, reg.Bind("c2", "r1"))

		roomID, ok := reg.Unbind("c1")

		require.True(t, ok)
		assert.Equal(t, "r1", roomID)
		_, ok = reg.Lookup("c1")
		assert.False(t, ok)
		assert.Equal(t, 1, reg.CountIn("r1"))
	})

	t.Run("Unknown connection is a no-op", func(t *testing.T) {
		reg := NewRegistry()

		_, ok := reg.Unbind("ghost")

		assert.False(t, ok)
	})

	t.Run("Connection can join again after leaving", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Bind("c1", "r1"))
		reg.Unbind("c1")

		require.NoError(t, reg.Bind("c1", "r2"))
		assert.Equal(t, 0, reg.CountIn("r1"))
	})
}
