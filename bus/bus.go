// Package bus is the in-process message fabric between the companion
// service and its consumers. Topics are token paths, for example
// T(S("copro"), S("input"), I(3)); a retained message is stored at its
// topic node and replayed to late subscribers so state topics always
// hand a new consumer the latest value.
package bus

import (
	"strconv"
	"sync"
)

// Token is a single element in a topic path, either a string or an
// integer. Integer tokens carry input line numbers and LED positions
// without formatting round-trips.
type Token struct {
	kind byte // 0 = string, 1 = int
	sval string
	ival int
}

// S makes a string token.
func S(s string) Token { return Token{kind: 0, sval: s} }

// I makes an integer token.
func I(i int) Token { return Token{kind: 1, ival: i} }

func (t Token) String() string {
	if t.kind == 1 {
		return strconv.Itoa(t.ival)
	}
	return t.sval
}

// Topic is a sequence of tokens.
type Topic []Token

// T builds a topic from tokens.
func T(tokens ...Token) Topic { return Topic(tokens) }

func (t Topic) String() string {
	s := ""
	for i, tok := range t {
		if i > 0 {
			s += "/"
		}
		s += tok.String()
	}
	return s
}

// Message is one bus datagram. Publishing a retained message with a nil
// payload clears the stored value. ReplyTo, when set, names the topic a
// verb handler should answer on.
type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

// Subscription delivers messages for one exact topic.
type Subscription struct {
	topic Topic
	ch    chan *Message
	conn  *Connection
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

type node struct {
	children map[Token]*node
	subs     []*Subscription
	retained *Message
}

// Bus routes messages through a token trie. Delivery is exact-match:
// a publish reaches the subscribers of its full topic path only.
type Bus struct {
	mu   sync.RWMutex
	root *node
	qLen int
}

// NewBus creates a bus; queueLen is the per-subscription buffer depth.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Bus{root: &node{}, qLen: queueLen}
}

// Publish delivers msg to every subscriber of its topic. When a
// subscriber's queue is full the oldest entry is dropped in favour of
// the new one, so a slow consumer of a state topic still ends up with
// the newest value.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, tok := range msg.Topic {
		if n.children == nil {
			if !msg.Retained {
				return
			}
			n.children = make(map[Token]*node)
		}
		child, ok := n.children[tok]
		if !ok {
			if !msg.Retained {
				return
			}
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}

	for _, sub := range n.subs {
		select {
		case sub.ch <- msg:
		default:
			<-sub.ch
			sub.ch <- msg
		}
	}

	if msg.Retained {
		if msg.Payload == nil {
			n.retained = nil
		} else {
			n.retained = msg
		}
	}
}

func (b *Bus) addSubscription(topic Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, tok := range topic {
		if n.children == nil {
			n.children = make(map[Token]*node)
		}
		child, ok := n.children[tok]
		if !ok {
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}
	n.subs = append(n.subs, sub)

	if n.retained != nil {
		select {
		case sub.ch <- n.retained:
		default:
		}
	}
}

func (b *Bus) unsubscribe(topic Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	var stack []*node
	for _, tok := range topic {
		if n.children == nil {
			return
		}
		child, ok := n.children[tok]
		if !ok {
			return
		}
		stack = append(stack, n)
		n = child
	}

	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}

	// Prune branches left empty by the removal.
	for i := len(topic) - 1; i >= 0; i-- {
		parent := stack[i]
		child := parent.children[topic[i]]
		if len(child.subs) == 0 && len(child.children) == 0 && child.retained == nil {
			delete(parent.children, topic[i])
		} else {
			break
		}
	}
}

// Connection groups the subscriptions of one service so they can be
// torn down together.
type Connection struct {
	bus  *Bus
	mu   sync.Mutex
	subs []*Subscription
	id   string
}

// NewConnection creates a connection bound to this bus. The id names
// the owning service in logs.
func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

// NewMessage builds a message ready to publish on this connection.
func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

// Publish sends a message via the bus.
func (c *Connection) Publish(msg *Message) { c.bus.Publish(msg) }

// Subscribe registers a subscription owned by this connection.
func (c *Connection) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{
		topic: topic,
		ch:    make(chan *Message, c.bus.qLen),
		conn:  c,
	}
	c.bus.addSubscription(topic, sub)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscription owned by this connection.
func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.unsubscribe(sub.topic, sub)
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	close(sub.ch)
}

// Disconnect closes all subscriptions of this connection.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		c.bus.unsubscribe(sub.topic, sub)
		close(sub.ch)
	}
}
