package eventbus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribers(t *testing.T) {
	b := New()
	var a, c int
	b.Subscribe(func() { a++ })
	b.Subscribe(func() { c++ })

	b.Publish()
	b.Publish()

	require.Equal(t, 2, a)
	require.Equal(t, 2, c)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	var n int
	unsub := b.Subscribe(func() { n++ })

	b.Publish()
	unsub()
	b.Publish()
	unsub() // second call is a no-op

	require.Equal(t, 1, n)
}

func TestPublishWithNoSubscribers(t *testing.T) {
	b := New()
	require.NotPanics(t, func() { b.Publish() })
}

func TestSubscribeDuringDispatch(t *testing.T) {
	b := New()
	var late int
	b.Subscribe(func() {
		b.Subscribe(func() { late++ })
	})

	b.Publish()
	require.Equal(t, 0, late)
	b.Publish()
	require.Equal(t, 1, late)
}
