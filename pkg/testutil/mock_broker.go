package testutil

import (
	"context"
	"errors"
	"sync"
)

// PublishedMessage is one payload a MockBroker accepted.
type PublishedMessage struct {
	Topic   string
	Payload []byte
}

// MockBroker is a reusable mock that implements broker.Broker for tests.
// It records every publish and lets tests script connect failures and
// connection drops.
type MockBroker struct {
	mu sync.Mutex

	ConnectErr error // returned by Connect while set
	PublishErr error // returned by Publish while set

	connected    bool
	ConnectCalls int
	CloseCalled  bool
	Published    []PublishedMessage
}

func NewMockBroker() *MockBroker { return &MockBroker{} }

func (b *MockBroker) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ConnectCalls++
	if b.ConnectErr != nil {
		return b.ConnectErr
	}
	b.connected = true
	return nil
}

func (b *MockBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return errors.New("mock broker: not connected")
	}
	if b.PublishErr != nil {
		return b.PublishErr
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	b.Published = append(b.Published, PublishedMessage{Topic: topic, Payload: cp})
	return nil
}

func (b *MockBroker) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *MockBroker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
	b.CloseCalled = true
}

// SetConnectErr scripts the outcome of future Connect calls.
func (b *MockBroker) SetConnectErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ConnectErr = err
}

// DropConnection simulates the broker going away.
func (b *MockBroker) DropConnection() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
}

// Messages returns a copy of everything published so far.
func (b *MockBroker) Messages() []PublishedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]PublishedMessage, len(b.Published))
	copy(out, b.Published)
	return out
}

// MessagesTo returns everything published to one topic.
func (b *MockBroker) MessagesTo(topic string) []PublishedMessage {
	var out []PublishedMessage
	for _, m := range b.Messages() {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

func (b *MockBroker) ConnectCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ConnectCalls
}
