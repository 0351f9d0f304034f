package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// testConfig mimics the shape of the real pipeline configs: a mix of
// validated and infallible setters.
type testConfig struct {
	Capacity int
	Label    string
	Enabled  bool
}

func (tc *testConfig) setCapacity(n int) error {
	if n <= 0 {
		return errors.New("capacity must be positive")
	}
	tc.Capacity = n

	return nil
}

func TestOption_New(t *testing.T) {
	cfg := &testConfig{}

	opt := New(func(c *testConfig) error { return c.setCapacity(512) })
	require.NoError(t, opt.apply(cfg))
	require.Equal(t, 512, cfg.Capacity)

	bad := New(func(c *testConfig) error { return c.setCapacity(0) })
	err := bad.apply(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "capacity must be positive")
}

func TestOption_NoError(t *testing.T) {
	cfg := &testConfig{}

	opt := NoError(func(c *testConfig) { c.Label = "trail" })
	require.NoError(t, opt.apply(cfg))
	require.Equal(t, "trail", cfg.Label)
}

func TestOption_Apply(t *testing.T) {
	t.Run("applies options in order", func(t *testing.T) {
		cfg := &testConfig{}
		err := Apply(cfg,
			New(func(c *testConfig) error { return c.setCapacity(10) }),
			NoError(func(c *testConfig) { c.Enabled = true }),
		)
		require.NoError(t, err)
		require.Equal(t, 10, cfg.Capacity)
		require.True(t, cfg.Enabled)
	})

	t.Run("stops at first error", func(t *testing.T) {
		cfg := &testConfig{}
		err := Apply(cfg,
			New(func(c *testConfig) error { return c.setCapacity(5) }),
			New(func(c *testConfig) error { return c.setCapacity(-1) }),
			NoError(func(c *testConfig) { c.Label = "unreached" }),
		)
		require.Error(t, err)
		require.Equal(t, 5, cfg.Capacity)
		require.Empty(t, cfg.Label, "options after the failing one must not apply")
	})

	t.Run("empty options slice is a no-op", func(t *testing.T) {
		cfg := &testConfig{}
		require.NoError(t, Apply(cfg))
		require.Equal(t, testConfig{}, *cfg)
	})
}

func TestOption_GenericsWithPrimitiveTarget(t *testing.T) {
	var n int
	opt := NoError(func(p *int) { *p = 42 })
	require.NoError(t, opt.apply(&n))
	require.Equal(t, 42, n)
}
