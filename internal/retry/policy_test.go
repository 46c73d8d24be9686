package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	require.Equal(t, Linear, p.Mode)
	require.Equal(t, time.Second, p.Initial)
	require.Equal(t, 30*time.Second, p.Max)
	require.Equal(t, 2, p.MaxRetries)
}

func TestNewPolicy_OverridesAndClamps(t *testing.T) {
	p := NewPolicy(Fixed, 5*time.Second, 2*time.Second, 5)
	require.Equal(t, Fixed, p.Mode)
	require.Equal(t, 2*time.Second, p.Initial, "initial above the cap is clamped")
	require.Equal(t, 2*time.Second, p.Max)
	require.Equal(t, 5, p.MaxRetries)
}

func TestNewPolicy_UnknownModeFallsBack(t *testing.T) {
	p := NewPolicy("weird", 250*time.Millisecond, 500*time.Millisecond, 1)
	require.Equal(t, Linear, p.Mode)
}

func TestDelay_Modes(t *testing.T) {
	fixed := NewPolicy(Fixed, 100*time.Millisecond, 500*time.Millisecond, 3)
	for i := 1; i <= 3; i++ {
		require.Equal(t, 100*time.Millisecond, fixed.Delay(i))
	}

	linear := NewPolicy(Linear, 100*time.Millisecond, 250*time.Millisecond, 5)
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 250 * time.Millisecond},
		{4, 250 * time.Millisecond},
	}
	for _, c := range cases {
		require.Equal(t, c.want, linear.Delay(c.attempt), "linear attempt %d", c.attempt)
	}

	exp := NewPolicy(Exponential, 50*time.Millisecond, 160*time.Millisecond, 5)
	expCases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 50 * time.Millisecond},
		{2, 100 * time.Millisecond},
		{3, 160 * time.Millisecond},
		{4, 160 * time.Millisecond},
	}
	for _, c := range expCases {
		require.Equal(t, c.want, exp.Delay(c.attempt), "exponential attempt %d", c.attempt)
	}
}

func TestDelay_NonPositiveAttempts(t *testing.T) {
	p := NewPolicy(Linear, 10*time.Millisecond, 20*time.Millisecond, 1)
	require.Zero(t, p.Delay(0))
	require.Zero(t, p.Delay(-1))
}

func TestValidate(t *testing.T) {
	require.Error(t, Policy{Mode: Linear, Initial: 0, Max: time.Second, MaxRetries: 1}.Validate())
	require.Error(t, Policy{Mode: Linear, Initial: time.Second, Max: 0, MaxRetries: 1}.Validate())
	require.Error(t, Policy{Mode: Linear, Initial: time.Second, Max: 2 * time.Second, MaxRetries: -1}.Validate())
	require.NoError(t, Policy{Mode: Linear, Initial: time.Second, Max: 2 * time.Second, MaxRetries: 0}.Validate())
}
