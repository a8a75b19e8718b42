package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEffectivePattern_DefaultsToMatchAll(t *testing.T) {
	require.Equal(t, "*", FileDataSource{}.EffectivePattern())
	require.Equal(t, "*.csv", FileDataSource{FilePattern: "*.csv"}.EffectivePattern())
}
