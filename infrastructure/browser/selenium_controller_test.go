package browser

import (
	"errors"
	"fmt"
	"testing"

	"ui_autoid/application/watcher"
	"ui_autoid/domain/entities"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveButtonPayload(ref string) string {
	return fmt.Sprintf(`{
	"url": "https://example.test/",
	"nodes": [
		{"key": 2, "parent": 1, "tag": "BUTTON", "index": 0, "text": "Save", "attrs": {}, "ref": %q},
		{"key": 1, "parent": 0, "tag": "BODY", "index": 1, "text": "Save", "attrs": {}, "boundary": true}
	],
	"added": [2]
}`, ref)
}

// pollResults replays one script result per poll
func pollResults(results ...interface{}) scriptExecutor {
	return func(script string, args []interface{}) (interface{}, error) {
		if script != pollScript {
			return nil, errors.New("unexpected script")
		}
		if len(results) == 0 {
			return nil, nil
		}
		next := results[0]
		results = results[1:]
		if err, ok := next.(error); ok {
			return nil, err
		}
		return next, nil
	}
}

func TestCollectBatchRetriesAfterFailedWrite(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	w := watcher.New(logger)

	writer := &recordingWriter{failures: 1}
	exec := pollResults(saveButtonPayload("1"), nil, saveButtonPayload("4"))

	var assigned []entities.Assignment
	for i := 0; i < 3; i++ {
		batch, ok, err := collectBatch(exec, writer)
		require.NoError(t, err)
		if ok {
			assigned = append(assigned, w.Process(batch)...)
		}
	}

	require.Len(t, assigned, 1)
	assert.Equal(t, "auto-save-0", assigned[0].Identifier)
	assert.Equal(t, [][3]string{{"4", entities.IdentifierAttribute, "auto-save-0"}}, writer.writes)

	var failed bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.DebugLevel && entry.Message == "Failed to write auto-save-0 on <BUTTON>: stale element reference" {
			failed = true
		}
	}
	assert.True(t, failed)
}

func TestCollectBatchErrors(t *testing.T) {
	_, ok, err := collectBatch(pollResults(errors.New("no such window")), &recordingWriter{})
	assert.EqualError(t, err, "no such window")
	assert.False(t, ok)

	_, ok, err = collectBatch(pollResults(`{"nodes": [`), &recordingWriter{})
	assert.ErrorContains(t, err, "failed to decode batch")
	assert.False(t, ok)

	_, ok, err = collectBatch(pollResults(""), &recordingWriter{})
	assert.NoError(t, err)
	assert.False(t, ok)
}
