package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/deskflow/core"
	"github.com/hupe1980/deskflow/internal/testutil"
	"github.com/hupe1980/deskflow/model"
)

func TestScriptedClient(t *testing.T) {
	client := NewScriptedClient("hello", "my code is 123456")

	u, err := client.NextUtterance(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", u)

	u, err = client.NextUtterance(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "my code is 123456", u)

	u, err = client.NextUtterance(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, ExitSentinel, u)

	u, err = client.NextUtterance(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, ExitSentinel, u)
}

func TestSimulatedClient(t *testing.T) {
	t.Run("generates persona replies", func(t *testing.T) {
		m := model.NewMockModel("mock", "mock")
		m.EnqueueText("I want to update my address.")

		client := NewSimulatedClient(m, "I want to update my address.")

		u, err := client.NextUtterance(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "I want to update my address.", u)
	})

	t.Run("empty reply becomes exit", func(t *testing.T) {
		m := model.NewMockModel("mock", "mock")
		m.EnqueueText("   ")

		client := NewSimulatedClient(m, "hello")

		u, err := client.NextUtterance(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, ExitSentinel, u)
	})
}

func TestInvertRoles(t *testing.T) {
	history := []core.Content{
		core.NewTextContent("user", "hi there"),
		core.NewTextContent("assistant", "how can I help?"),
		core.NewTextContent("system", "ignored"),
	}

	inverted := invertRoles(history)

	require.Len(t, inverted, 3)
	assert.Equal(t, "assistant", inverted[0].Role)
	assert.Equal(t, "user", inverted[1].Role)
	assert.Equal(t, "system", inverted[2].Role)
	assert.Equal(t, "hi there", inverted[0].Text())

	// The input is untouched.
	assert.Equal(t, "user", history[0].Role)
}

func TestInvertRolesKeepsParts(t *testing.T) {
	history := []core.Content{
		testutil.NewContentBuilder("assistant").
			Text("checking that for you").
			Call("c-1", "get_account_type", "{}").
			Build(),
		testutil.NewContentBuilder("tool").
			Response("c-1", "get_account_type", map[string]any{"account_type": "CHECKING"}).
			Build(),
	}

	inverted := invertRoles(history)

	require.Len(t, inverted, 2)
	assert.Equal(t, "user", inverted[0].Role)
	assert.Equal(t, "tool", inverted[1].Role)
	assert.Len(t, inverted[0].Parts, 2)
	assert.Equal(t, "checking that for you", inverted[0].Text())
}
