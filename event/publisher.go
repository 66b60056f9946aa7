// Package event implements a small in-process pub-sub used for lifecycle
// notifications such as config reloads and stream statistics snapshots.
package event

import (
	"fmt"
	"sync"
	"time"

	"github.com/solwatch/shredscan/log"
)

// Publisher routes published payloads to the subscribers of each topic.
type Publisher struct {
	lock   sync.RWMutex
	topics map[string]*Topic
}

// NewPublisher creates an empty publisher.
func NewPublisher() *Publisher {
	return &Publisher{
		topics: map[string]*Topic{},
	}
}

// NewTopic creates a topic. A topic must exist before subscriptions or
// publishes against it.
func (p *Publisher) NewTopic(topicName string, timeout time.Duration) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	_, ok := p.topics[topicName]
	if ok {
		return fmt.Errorf("topic %s already created", topicName)
	}
	topic := &Topic{
		timeout:     timeout,
		subscribers: []Subscriber{},
	}

	p.topics[topicName] = topic
	return nil
}

// RegisterSubscriber registers a subscriber on an existing topic.
func (p *Publisher) RegisterSubscriber(topicName string, fn Subscriber) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	topic, ok := p.topics[topicName]
	if !ok {
		return fmt.Errorf("topic %s not created", topicName)
	}

	topic.subscribers = append(topic.subscribers, fn)
	log.Info().Str("topic", topicName).
		Int("num", len(topic.subscribers)).Msg("add subscriber")
	return nil
}

// Publish delivers the payload to every subscriber of the topic,
// waiting for all of them to finish.
func (p *Publisher) Publish(topicName string, i any) error {
	p.lock.RLock()
	defer p.lock.RUnlock()

	topic, ok := p.topics[topicName]
	if !ok {
		return fmt.Errorf("topic %s not created", topicName)
	}

	log.Debug().Str("topic", topicName).Int("subscribers", len(topic.subscribers)).Msg("publish event")

	var wg sync.WaitGroup

	for _, sub := range topic.subscribers {
		wg.Add(1)
		go func(s Subscriber) {
			defer wg.Done()
			s(i)
		}(sub)
	}

	wg.Wait()

	return nil
}
