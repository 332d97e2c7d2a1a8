package sink

import (
	"context"
	"testing"

	"github.com/chtzvt/certtab/internal/secrets"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndForName(t *testing.T) {
	// Dummy factory for testing
	dummyFactory := func(opts map[string]interface{}, s *secrets.Store) (Sink, error) {
		return nil, nil
	}
	Register("dummy", dummyFactory)
	defer delete(registry, "dummy")

	got, ok := ForName("dummy")
	if !ok {
		t.Fatal("Expected to find registered sink, got none")
	}
	if got == nil {
		t.Fatal("Expected non-nil factory")
	}

	_, ok = ForName("not-exist")
	if ok {
		t.Fatal("Did not expect to find unregistered sink")
	}
}

func TestBuiltinSinks(t *testing.T) {
	require.Equal(t, []string{"azureblob", "disk", "http", "null", "s3", "stdout"}, Names())
}

func TestNullSink(t *testing.T) {
	s, err := NewNullSink(nil, nil)
	require.NoError(t, err)
	w, err := s.Open(context.Background(), "x")
	require.NoError(t, err)
	n, err := w.Write([]byte("discard"))
	require.NoError(t, err)
	require.Equal(t, 7, n)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	ns := s.(*NullSink)
	require.Equal(t, int64(1), ns.Objects())
	require.Equal(t, int64(7), ns.Bytes())
}

func TestToBool(t *testing.T) {
	require.True(t, toBool(true))
	require.True(t, toBool("on"))
	require.True(t, toBool(1.0))
	require.False(t, toBool("no"))
	require.False(t, toBool(nil))
}
