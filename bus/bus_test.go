package bus

import (
	"testing"
	"time"
)

func recvOne(t *testing.T, sub *Subscription) *Message {
	t.Helper()
	select {
	case msg := <-sub.Channel():
		return msg
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
		return nil
	}
}

func expectNoMessage(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case msg := <-sub.Channel():
		t.Fatalf("unexpected message on %s: %v", sub.Topic(), msg.Payload)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T(S("copro"), S("input"), I(3)))

	conn.Publish(conn.NewMessage(T(S("copro"), S("input"), I(3)), true, false))

	got := recvOne(t, sub)
	if got.Payload.(bool) != true {
		t.Errorf("expected payload true, got %v", got.Payload)
	}
}

func TestExactMatchOnly(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	other := conn.Subscribe(T(S("copro"), S("input"), I(4)))
	short := conn.Subscribe(T(S("copro"), S("input")))

	conn.Publish(conn.NewMessage(T(S("copro"), S("input"), I(3)), true, false))

	expectNoMessage(t, other)
	expectNoMessage(t, short)
}

func TestRetainedMessage(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(T(S("copro"), S("vbat")), float32(3.9), true))

	sub := conn.Subscribe(T(S("copro"), S("vbat")))

	got := recvOne(t, sub)
	if got.Payload.(float32) != 3.9 {
		t.Errorf("expected retained payload 3.9, got %v", got.Payload)
	}
}

func TestRetainedCleared(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	topic := T(S("copro"), S("vbat"))
	conn.Publish(conn.NewMessage(topic, float32(3.9), true))
	conn.Publish(&Message{Topic: topic, Payload: nil, Retained: true})

	sub := conn.Subscribe(topic)
	expectNoMessage(t, sub)
}

func TestDropOldestWhenFull(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	topic := T(S("copro"), S("input"), I(0))
	sub := conn.Subscribe(topic)

	for i := 0; i < 5; i++ {
		conn.Publish(conn.NewMessage(topic, i, false))
	}

	// Queue depth is 2: only the two newest survive.
	first := recvOne(t, sub)
	second := recvOne(t, sub)
	if first.Payload.(int) != 3 || second.Payload.(int) != 4 {
		t.Errorf("expected payloads 3,4 got %v,%v", first.Payload, second.Payload)
	}
	expectNoMessage(t, sub)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	topic := T(S("copro"), S("charging"))
	sub := conn.Subscribe(topic)
	sub.Unsubscribe()

	// Channel is closed and no further delivery happens.
	conn.Publish(conn.NewMessage(topic, true, false))
	if _, ok := <-sub.Channel(); ok {
		t.Fatal("expected closed channel after unsubscribe")
	}
}

func TestDisconnectClosesAll(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	s1 := conn.Subscribe(T(S("a")))
	s2 := conn.Subscribe(T(S("b"), I(1)))
	conn.Disconnect()

	if _, ok := <-s1.Channel(); ok {
		t.Fatal("expected s1 closed")
	}
	if _, ok := <-s2.Channel(); ok {
		t.Fatal("expected s2 closed")
	}
}

func TestIntAndStringTokensDistinct(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	asInt := conn.Subscribe(T(S("copro"), I(1)))
	asStr := conn.Subscribe(T(S("copro"), S("1")))

	conn.Publish(conn.NewMessage(T(S("copro"), I(1)), "x", false))

	got := recvOne(t, asInt)
	if got.Payload.(string) != "x" {
		t.Errorf("expected payload x, got %v", got.Payload)
	}
	expectNoMessage(t, asStr)
}

func TestTopicString(t *testing.T) {
	topic := T(S("copro"), S("input"), I(12))
	if topic.String() != "copro/input/12" {
		t.Errorf("unexpected topic string %q", topic.String())
	}
}
