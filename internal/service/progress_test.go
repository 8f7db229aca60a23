package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressHubFansOutPerHotel(t *testing.T) {
	hub := NewProgressHub()

	a := hub.Subscribe("hotel-a")
	b := hub.Subscribe("hotel-b")
	defer hub.Unsubscribe("hotel-a", a)
	defer hub.Unsubscribe("hotel-b", b)

	hub.Publish(ProgressEvent{HotelID: "hotel-a", PagesFetched: 1})

	select {
	case event := <-a:
		assert.Equal(t, 1, event.PagesFetched)
	default:
		t.Fatal("subscriber for hotel-a should have received the event")
	}

	select {
	case <-b:
		t.Fatal("subscriber for hotel-b must not see hotel-a events")
	default:
	}
}

func TestProgressHubMultipleSubscribers(t *testing.T) {
	hub := NewProgressHub()

	first := hub.Subscribe("hotel-a")
	second := hub.Subscribe("hotel-a")
	defer hub.Unsubscribe("hotel-a", first)
	defer hub.Unsubscribe("hotel-a", second)

	hub.Publish(ProgressEvent{HotelID: "hotel-a", PagesFetched: 2})

	require.Len(t, first, 1)
	require.Len(t, second, 1)
}

func TestProgressHubDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewProgressHub()

	ch := hub.Subscribe("hotel-a")
	defer hub.Unsubscribe("hotel-a", ch)

	// overflow the buffer; Publish must never block
	for i := 0; i < 100; i++ {
		hub.Publish(ProgressEvent{HotelID: "hotel-a", PagesFetched: i})
	}

	assert.Equal(t, cap(ch), len(ch))
}

func TestProgressHubUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewProgressHub()

	ch := hub.Subscribe("hotel-a")
	hub.Unsubscribe("hotel-a", ch)

	hub.Publish(ProgressEvent{HotelID: "hotel-a"})
	assert.Empty(t, ch)
}

func TestProgressHubPublishWithoutSubscribers(t *testing.T) {
	hub := NewProgressHub()
	// must not panic or block
	hub.Publish(ProgressEvent{HotelID: "nobody", Done: true})
}
