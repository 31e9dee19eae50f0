package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_PublishInvokesSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []Event
	d.Subscribe(EventLoginSucceeded, func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})
	d.Subscribe(EventLoginFailed, func(context.Context, Event) error {
		t.Fatal("unexpected handler call")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventLoginSucceeded, Subject: "doc@hospital.test"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "doc@hospital.test", got[0].Subject)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestDispatcher_HandlerErrorsDoNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	calls := 0
	d.Subscribe(EventRequestRejected, func(context.Context, Event) error {
		calls++
		return boom
	})
	d.Subscribe(EventRequestRejected, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventRequestRejected})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestDispatcher_NoSubscribers(t *testing.T) {
	assert.NoError(t, NewInMemoryDispatcher().Publish(context.Background(), Event{Type: EventPrincipalRegistered}))
}
