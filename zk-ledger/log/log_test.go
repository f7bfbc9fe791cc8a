package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("info", &buf)
	require.NoError(t, err)

	zl := Component(l, "zone")
	zl.Debug().Msg("dropped")
	require.Zero(t, buf.Len())

	zl.Info().Msg("kept")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "zone", line["component"])
	require.Equal(t, "kept", line["message"])
	require.Contains(t, line, "time")

	_, err = New("chatty", &buf)
	require.Error(t, err)
}
