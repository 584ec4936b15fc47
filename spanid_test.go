// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpanID(t *testing.T) {
	first, err := uuid.Parse(NewSpanID())
	require.NoError(t, err)
	second, err := uuid.Parse(NewSpanID())
	require.NoError(t, err)

	assert.Equal(t, uuid.Version(7), first.Version())
	assert.NotEqual(t, first, second)
}

func TestSpanIDSharedBySocketEvents(t *testing.T) {
	var buf bytes.Buffer
	spanID := NewSpanID()
	logger := slog.New(slog.NewJSONHandler(&buf, nil)).With("spanID", spanID)

	s, err := NewTCPStream(NewConfig(), logger)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	var messages []string
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var event map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		messages = append(messages, event["msg"].(string))
		assert.Equal(t, spanID, event["spanID"])
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"openStart", "openDone", "closeStart", "closeDone"}, messages)
}
