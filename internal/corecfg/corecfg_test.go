package corecfg

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	boot := Load(v)
	require.Equal(t, "./filemonitor.db", boot.DBPath)
	require.Equal(t, "info", boot.LogLevel)
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	t.Setenv("FILEMONITOR_LOG_LEVEL", "debug")
	v := viper.New()
	boot := Load(v)
	require.Equal(t, "debug", boot.LogLevel)
}
