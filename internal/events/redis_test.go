package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	channel string
	payload []byte
	err     error
}

func (f *fakeRedis) Publish(_ context.Context, channel string, message interface{}) *goredis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	return goredis.NewIntResult(1, f.err)
}

func TestRedisPublisher_Publish(t *testing.T) {
	fake := &fakeRedis{}
	publisher := NewRedisPublisher(fake, "scm:style-events")

	event := model.StyleEvent{ID: 7, Type: model.EventAssignmentCreated, AggregateID: "a-1", ShopID: "shop-a"}
	require.NoError(t, publisher.Publish(context.Background(), event))
	assert.Equal(t, "scm:style-events", fake.channel)

	var decoded model.StyleEvent
	require.NoError(t, json.Unmarshal(fake.payload, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, event.Type, decoded.Type)
	assert.Equal(t, "shop-a", decoded.ShopID)
}

func TestRedisPublisher_PropagatesError(t *testing.T) {
	down := errors.New("connection refused")
	publisher := NewRedisPublisher(&fakeRedis{err: down}, "scm:style-events")

	err := publisher.Publish(context.Background(), model.StyleEvent{ID: 1})
	assert.ErrorIs(t, err, down)
}
