package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsToInfoOnUnparseableLevel(t *testing.T) {
	log := New("not-a-level")
	require.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNew_HonorsExplicitLevel(t *testing.T) {
	log := New("debug")
	require.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestWithCode_AttachesField(t *testing.T) {
	log := New("info")
	entry := WithCode(log, "store_error")
	require.Equal(t, "store_error", entry.Data["code"])
}

func TestApplyLevel_ChangesRunningLoggerLevel(t *testing.T) {
	log := New("info")
	ApplyLevel(log, "debug")
	require.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestApplyLevel_IgnoresUnparseableLevel(t *testing.T) {
	log := New("info")
	ApplyLevel(log, "not-a-level")
	require.Equal(t, logrus.InfoLevel, log.GetLevel(), "an unparseable live edit must not change the running level")
}
