package event

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTopicDuplicate(t *testing.T) {
	p := NewPublisher()
	require.NoError(t, p.NewTopic(StreamStats, time.Second))
	assert.Error(t, p.NewTopic(StreamStats, time.Second))
}

func TestRegisterSubscriberUnknownTopic(t *testing.T) {
	p := NewPublisher()
	assert.Error(t, p.RegisterSubscriber("missing", func(param any) {}))
}

func TestPublishFanout(t *testing.T) {
	p := NewPublisher()
	require.NoError(t, p.NewTopic(ReloadConfig, time.Second))

	var calls int64
	var mu sync.Mutex
	var got []any

	for i := 0; i < 3; i++ {
		require.NoError(t, p.RegisterSubscriber(ReloadConfig, func(param any) {
			atomic.AddInt64(&calls, 1)
			mu.Lock()
			got = append(got, param)
			mu.Unlock()
		}))
	}

	require.NoError(t, p.Publish(ReloadConfig, "payload"))

	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
	for _, v := range got {
		assert.Equal(t, "payload", v)
	}
}

func TestPublishUnknownTopic(t *testing.T) {
	p := NewPublisher()
	assert.Error(t, p.Publish("missing", nil))
}
