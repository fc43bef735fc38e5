package lib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/require"
)

func TestQuickbaseConfigCheckAndSetDefaults(t *testing.T) {
	secretFile := filepath.Join(t.TempDir(), "app_token")
	require.NoError(t, os.WriteFile(secretFile, []byte("b2fr_secret\n"), 0600))

	cfg := QuickbaseConfig{Realm: "acme.quickbase.com", AppToken: secretFile}
	require.NoError(t, cfg.CheckAndSetDefaults())
	require.Equal(t, "b2fr_secret", cfg.AppToken)

	cfg = QuickbaseConfig{AppToken: "token"}
	err := cfg.CheckAndSetDefaults()
	require.True(t, trace.IsBadParameter(err))

	cfg = QuickbaseConfig{Realm: "acme.quickbase.com"}
	err = cfg.CheckAndSetDefaults()
	require.True(t, trace.IsBadParameter(err))

	cfg = QuickbaseConfig{Realm: "acme.quickbase.com", UserToken: filepath.Join(t.TempDir(), "missing")}
	err = cfg.CheckAndSetDefaults()
	require.True(t, trace.IsNotFound(err))
}
