// Package events is the in-process publish/subscribe bus the services publish
// domain events to. Listeners react synchronously after a mutation commits;
// subscriptions receive events on a buffered channel and never block publishers.
package events

import (
	"immigration_crm_go/metrics"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Type classifies an event
type Type string

const (
	TypeClientCreated       Type = "client.created"
	TypeServiceAssigned     Type = "case.service_assigned"
	TypeMilestoneCompleted  Type = "milestone.completed"
	TypePaymentCollected    Type = "milestone.payment_collected"
	TypeNotificationCreated Type = "notification.created"
)

// TopicDomain carries every domain event published by the services
const TopicDomain = "domain"

// DefaultBuffer is the channel size of a subscription
const DefaultBuffer = 32

// UserTopic is the per-user topic notifications are pushed on
func UserTopic(userID string) string {
	return "user:" + userID
}

// Event is one published message
type Event struct {
	Type       Type        `json:"type"`
	Topic      string      `json:"topic"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// ClientCreated is published after a client row is inserted
type ClientCreated struct {
	ClientID        string `json:"clientId"`
	FullName        string `json:"fullName"`
	ExpedientNumber int    `json:"expedientNumber"`
}

// ServiceAssigned is published after a case and its milestones are committed
type ServiceAssigned struct {
	CaseID           string  `json:"caseId"`
	ClientID         string  `json:"clientId"`
	ClientName       string  `json:"clientName"`
	ServiceName      string  `json:"serviceName"`
	AssignedLawyerID *string `json:"assignedLawyerId,omitempty"`
	TotalPrice       float64 `json:"totalPrice"`
}

// MilestoneCompleted is published when a case milestone is marked complete
type MilestoneCompleted struct {
	MilestoneID      string  `json:"milestoneId"`
	CaseID           string  `json:"caseId"`
	Name             string  `json:"name"`
	AssignedLawyerID *string `json:"assignedLawyerId,omitempty"`
}

// PaymentCollected is published when a milestone payment is collected
type PaymentCollected struct {
	MilestoneID string  `json:"milestoneId"`
	CaseID      string  `json:"caseId"`
	Name        string  `json:"name"`
	Amount      float64 `json:"amount"`
}

// Publisher is what services depend on
type Publisher interface {
	Publish(topic string, eventType Type, payload interface{})
}

// Listener handles an event synchronously
type Listener func(Event)

// Subscription is a live channel subscription on one topic
type Subscription struct {
	id        uint64
	topic     string
	sessionID string
	ch        chan Event
	bus       *Bus
	once      sync.Once
}

// Events returns the receive side of the subscription.
// The channel is closed when the subscription is closed or replaced.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Topic returns the subscribed topic
func (s *Subscription) Topic() string {
	return s.topic
}

// Close removes the subscription from the bus. Safe to call more than once.
func (s *Subscription) Close() {
	s.bus.remove(s)
}

// Bus is an in-memory pub/sub keyed by topic
type Bus struct {
	mu        sync.RWMutex
	subs      map[string]map[uint64]*Subscription
	bySession map[string]*Subscription
	listeners map[string][]listenerEntry
	nextID    uint64
	buffer    int
	log       logrus.FieldLogger
}

type listenerEntry struct {
	id uint64
	fn Listener
}

// NewBus creates a bus. buffer <= 0 uses DefaultBuffer.
func NewBus(log logrus.FieldLogger, buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{
		subs:      make(map[string]map[uint64]*Subscription),
		bySession: make(map[string]*Subscription),
		listeners: make(map[string][]listenerEntry),
		buffer:    buffer,
		log:       log,
	}
}

// Subscribe opens a channel subscription on topic. When sessionID is not empty,
// any previous subscription held by the same session is closed first.
func (b *Bus) Subscribe(topic, sessionID string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sessionID != "" {
		if old, ok := b.bySession[sessionID]; ok {
			b.removeLocked(old)
		}
	}

	b.nextID++
	sub := &Subscription{
		id:        b.nextID,
		topic:     topic,
		sessionID: sessionID,
		ch:        make(chan Event, b.buffer),
		bus:       b,
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]*Subscription)
	}
	b.subs[topic][sub.id] = sub
	if sessionID != "" {
		b.bySession[sessionID] = sub
	}
	return sub
}

// Listen registers a synchronous listener on topic and returns its cancel func
func (b *Bus) Listen(topic string, fn Listener) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners[topic] = append(b.listeners[topic], listenerEntry{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		entries := b.listeners[topic]
		for i, e := range entries {
			if e.id == id {
				b.listeners[topic] = append(entries[:i:i], entries[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers an event to the listeners and subscriptions of topic.
// Subscriptions whose buffer is full miss the event.
func (b *Bus) Publish(topic string, eventType Type, payload interface{}) {
	evt := Event{Type: eventType, Topic: topic, Payload: payload, OccurredAt: time.Now().UTC()}

	b.mu.RLock()
	listeners := make([]Listener, 0, len(b.listeners[topic]))
	for _, e := range b.listeners[topic] {
		listeners = append(listeners, e.fn)
	}
	for _, sub := range b.subs[topic] {
		select {
		case sub.ch <- evt:
		default:
			metrics.EventDropped(string(eventType))
			b.log.WithFields(logrus.Fields{"topic": topic, "type": eventType}).Warn("Subscriber buffer full, event dropped")
		}
	}
	b.mu.RUnlock()

	for _, fn := range listeners {
		b.dispatch(fn, evt)
	}
}

func (b *Bus) dispatch(fn Listener, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(logrus.Fields{"topic": evt.Topic, "type": evt.Type, "panic": r}).Error("Event listener panicked")
		}
	}()
	fn(evt)
}

// SubscriberCount returns the number of live subscriptions on topic
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(s)
}

func (b *Bus) removeLocked(s *Subscription) {
	if topicSubs, ok := b.subs[s.topic]; ok {
		delete(topicSubs, s.id)
		if len(topicSubs) == 0 {
			delete(b.subs, s.topic)
		}
	}
	if s.sessionID != "" && b.bySession[s.sessionID] == s {
		delete(b.bySession, s.sessionID)
	}
	s.once.Do(func() { close(s.ch) })
}

