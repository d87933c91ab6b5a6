package profile_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Nishanth456/FinAdvisor/profile"
)

func TestNormalizeRiskAppetite(t *testing.T) {
	t.Run("canonical labels pass through", func(t *testing.T) {
		for _, label := range []string{"Low", "Medium", "High"} {
			got, err := profile.NormalizeRiskAppetite(label)
			require.NoError(t, err)
			require.Equal(t, label, got)
		}
	})

	t.Run("case and whitespace are normalized", func(t *testing.T) {
		got, err := profile.NormalizeRiskAppetite("  high ")
		require.NoError(t, err)
		require.Equal(t, "High", got)

		got, err = profile.NormalizeRiskAppetite("LOW")
		require.NoError(t, err)
		require.Equal(t, "Low", got)

		got, err = profile.NormalizeRiskAppetite("mEdIuM")
		require.NoError(t, err)
		require.Equal(t, "Medium", got)
	})

	t.Run("blank falls back to the default", func(t *testing.T) {
		got, err := profile.NormalizeRiskAppetite("")
		require.NoError(t, err)
		require.Equal(t, profile.DefaultRiskAppetite, got)

		got, err = profile.NormalizeRiskAppetite("   ")
		require.NoError(t, err)
		require.Equal(t, profile.DefaultRiskAppetite, got)
	})

	t.Run("unknown labels are rejected", func(t *testing.T) {
		_, err := profile.NormalizeRiskAppetite("aggressive")
		require.Error(t, err)
		require.Contains(t, err.Error(), "aggressive")
	})
}
