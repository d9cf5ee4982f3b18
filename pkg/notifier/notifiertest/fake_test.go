package notifiertest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/batmon/pkg/notifier"
)

func TestFakeSubscribeEmit(t *testing.T) {
	f := NewFake()

	var got []*notifier.Event
	sub, err := f.Subscribe(t.Context(), func(ev *notifier.Event) { got = append(got, ev) })
	require.NoError(t, err)

	f.Emit(notifier.BatteryChanged(50, 100))
	f.Emit(nil)
	require.Len(t, got, 2)
	assert.Equal(t, &notifier.Event{Kind: notifier.KindBatteryChanged, Level: 50, Scale: 100}, got[0])
	assert.Nil(t, got[1])

	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, sub.Unsubscribe())
	assert.Equal(t, 1, f.Subscribes())
	assert.Equal(t, 1, f.Unsubscribes())
	assert.Equal(t, 0, f.Active())

	f.Emit(notifier.BatteryChanged(10, 100))
	assert.Len(t, got, 2)
}

func TestFakeSubscribeError(t *testing.T) {
	f := NewFake()
	f.SubscribeErr = errors.New("no bus")

	_, err := f.Subscribe(t.Context(), func(*notifier.Event) {})
	assert.ErrorIs(t, err, f.SubscribeErr)
	assert.Equal(t, 0, f.Subscribes())
}
