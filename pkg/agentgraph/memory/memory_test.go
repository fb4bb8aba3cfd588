package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/agentgraph/agentgraph/pkg/agentgraph/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInMemoryStore_AppendAndMessages tests basic store operations.
func TestInMemoryStore_AppendAndMessages(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.Append(Message{Role: RoleUser, Content: "hi"}))
	require.NoError(t, store.Append(Message{Role: RoleAssistant, Content: "hello"}))

	msgs, err := store.Messages()
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, Message{Role: RoleUser, Content: "hi"}, msgs[0])
	assert.Equal(t, Message{Role: RoleAssistant, Content: "hello"}, msgs[1])
}

// TestInMemoryStore_Clear tests conversation reset.
func TestInMemoryStore_Clear(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Append(Message{Role: RoleUser, Content: "hi"}))

	require.NoError(t, store.Clear())

	msgs, err := store.Messages()
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Zero(t, store.Len())
}

// TestInMemoryStore_MessagesCopied tests that callers cannot mutate the
// store through the returned slice.
func TestInMemoryStore_MessagesCopied(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Append(Message{Role: RoleUser, Content: "original"}))

	msgs, err := store.Messages()
	require.NoError(t, err)
	msgs[0].Content = "tampered"

	again, err := store.Messages()
	require.NoError(t, err)
	assert.Equal(t, "original", again[0].Content)
}

// TestFactory_CreateOrGet_StableIdentity tests that repeated lookups
// return the same store.
func TestFactory_CreateOrGet_StableIdentity(t *testing.T) {
	factory := NewFactory()

	first, err := factory.CreateOrGet("u1")
	require.NoError(t, err)
	second, err := factory.CreateOrGet("u1")
	require.NoError(t, err)

	assert.Same(t, first, second)
}

// TestFactory_Isolation tests that users never share a store.
func TestFactory_Isolation(t *testing.T) {
	factory := NewFactory()

	u1, err := factory.CreateOrGet("u1")
	require.NoError(t, err)
	u2, err := factory.CreateOrGet("u2")
	require.NoError(t, err)

	require.NoError(t, u1.Append(Message{Role: RoleUser, Content: "private"}))

	msgs, err := u2.Messages()
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

// TestFactory_InvalidKey tests key validation.
func TestFactory_InvalidKey(t *testing.T) {
	factory := NewFactory()

	for _, key := range []string{"", " ", "\t", "  \n"} {
		_, err := factory.CreateOrGet(key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

// TestFactory_Evict tests store removal and silent re-eviction.
func TestFactory_Evict(t *testing.T) {
	factory := NewFactory()

	before, err := factory.CreateOrGet("u1")
	require.NoError(t, err)
	require.NoError(t, before.Append(Message{Role: RoleUser, Content: "old"}))

	factory.Evict("u1")
	factory.Evict("u1") // absent user, no-op
	factory.Evict("never-existed")

	after, err := factory.CreateOrGet("u1")
	require.NoError(t, err)
	assert.NotSame(t, before, after)

	msgs, err := after.Messages()
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

// TestFactory_Stats tests user and store counting.
func TestFactory_Stats(t *testing.T) {
	factory := NewFactory()

	assert.Equal(t, Stats{}, factory.Stats())

	_, err := factory.CreateOrGet("u1")
	require.NoError(t, err)
	_, err = factory.CreateOrGet("u2")
	require.NoError(t, err)
	_, err = factory.CreateOrGet("u1")
	require.NoError(t, err)

	assert.Equal(t, Stats{Users: 2, Stores: 2}, factory.Stats())

	factory.Evict("u1")
	assert.Equal(t, Stats{Users: 1, Stores: 1}, factory.Stats())
}

// TestFactory_SharedBackendStore tests Stats when a backend hands the
// same store to several users.
func TestFactory_SharedBackendStore(t *testing.T) {
	shared := NewInMemoryStore()
	factory := NewFactory(WithBackend(func(userID string) (ConversationStore, error) {
		return shared, nil
	}))

	_, err := factory.CreateOrGet("u1")
	require.NoError(t, err)
	_, err = factory.CreateOrGet("u2")
	require.NoError(t, err)

	assert.Equal(t, Stats{Users: 2, Stores: 1}, factory.Stats())
}

// TestFactory_BackendFailure tests backend error propagation.
func TestFactory_BackendFailure(t *testing.T) {
	backendErr := fmt.Errorf("backend down")
	factory := NewFactory(WithBackend(func(userID string) (ConversationStore, error) {
		return nil, backendErr
	}))

	_, err := factory.CreateOrGet("u1")

	require.Error(t, err)
	assert.ErrorIs(t, err, backendErr)
	assert.Equal(t, Stats{}, factory.Stats())
}

// TestFactory_ConcurrentCreateOrGet tests that concurrent first lookups
// produce a single winner.
func TestFactory_ConcurrentCreateOrGet(t *testing.T) {
	created := 0
	factory := NewFactory(WithBackend(func(userID string) (ConversationStore, error) {
		created++
		return NewInMemoryStore(), nil
	}))

	const workers = 32
	stores := make([]ConversationStore, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stores[i], errs[i] = factory.CreateOrGet("u1")
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
	}
	assert.Equal(t, 1, created)
	for i := 1; i < workers; i++ {
		assert.Same(t, stores[0], stores[i])
	}
}

// TestFromConfig tests factory construction from configuration.
func TestFromConfig(t *testing.T) {
	factory, err := FromConfig(config.New(map[string]any{"backend": "memory"}))
	require.NoError(t, err)

	store, err := factory.CreateOrGet("u1")
	require.NoError(t, err)
	assert.IsType(t, &InMemoryStore{}, store)
}

// TestFromConfig_UnknownBackend tests rejection of unsupported
// backends.
func TestFromConfig_UnknownBackend(t *testing.T) {
	_, err := FromConfig(config.New(map[string]any{"backend": "redis"}))
	require.Error(t, err)
}
