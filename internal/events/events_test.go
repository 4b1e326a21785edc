package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeedDeliversInOrder(t *testing.T) {
	var f Feed[int]
	var got []int
	f.Subscribe(func(v int) { got = append(got, v) })
	f.Subscribe(func(v int) { got = append(got, v*10) })

	f.Publish(1)
	f.Publish(2)

	assert.Equal(t, []int{1, 10, 2, 20}, got)
}

func TestUnsubscribe(t *testing.T) {
	var f Feed[string]
	var got []string
	unsub := f.Subscribe(func(v string) { got = append(got, v) })

	f.Publish("a")
	unsub()
	f.Publish("b")
	unsub() // double unsubscribe is harmless

	assert.Equal(t, []string{"a"}, got)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	var f Feed[struct{}]
	assert.NotPanics(t, func() { f.Publish(struct{}{}) })
}
