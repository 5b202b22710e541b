// ghostfed is the ActivityPub federation core for a single-tenant publishing platform.
// Copyright (C) 2026 Ghost Foundation
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package queue is the push-based delivery queue spec.md §4.6
// describes: one message per inbox on a primary topic, retried on a
// separate topic up to MAX_DELIVERY_ATTEMPTS, grounded on
// trustbloc-orb's outbox.go (router.AddHandler over a pub/sub,
// per-message metadata carrying the destination and a correlation
// id). Reimplemented over watermill's in-process gochannel pub/sub
// rather than the teacher's DB-polling retrier (internal/delivery's
// retry loop lives here instead of framework/conn/retrier.go's
// attempt-bookkeeping table), since spec.md §4.6 explicitly calls for
// queue semantics ("the queue is push-based (HTTP)").
//
// QueueConfig's PubSubHost/ProjectID fields are carried through
// config for a future real Pub/Sub backend; no googlecloud-backed
// watermill driver is wired here because none of the pack's example
// repos import one, and fabricating an unverified third-party API
// would violate the "never fabricate dependencies" rule. gochannel is
// the grounded choice: it is part of the same `ThreeDotsLabs/watermill`
// module the teacher's outbox.go already pulls in.
package queue

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tryghost/activitypub/internal/config"
)

const (
	metaTo      = "to"
	metaAttempt = "attempt"
)

// Verdict is the retry decision Run needs from a delivery failure,
// narrow enough that this package does not need to import
// internal/delivery's classifier (which in turn depends on nothing
// here, avoiding a cycle).
type Verdict struct {
	Retryable bool
}

// Handler delivers one message's payload to the inbox named by to,
// the attempt-th time this inbox has been tried for this activity.
type Handler func(ctx context.Context, to string, attempt int, body []byte) error

// Classifier turns a delivery error into a retry Verdict, satisfied by
// a thin adapter over internal/delivery.Classify at the call site.
type Classifier func(error) Verdict

// Queue wraps a primary delivery topic and, optionally, a retry
// topic, grounded on outbox.go's Config (ServiceIRI/Topic/
// RedeliveryConfig) generalized to this spec's two-topic shape.
type Queue struct {
	pubsub      *gochannel.GoChannel
	router      *message.Router
	topic       string
	retryTopic  string
	useRetry    bool
	maxAttempts int

	h         Handler
	classify  Classifier
	onAbandon func(to string, attempt int, err error)
}

// New builds a Queue from spec.md §6's queue configuration block.
func New(cfg config.QueueConfig) (*Queue, error) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 1024}, wmLogger{})
	router, err := message.NewRouter(message.RouterConfig{}, wmLogger{})
	if err != nil {
		return nil, err
	}

	retryTopic := cfg.RetryTopicName
	if !cfg.UseRetryTopic || retryTopic == "" {
		retryTopic = cfg.TopicName
	}
	maxAttempts := cfg.MaxDeliveryAttempts
	if maxAttempts <= 0 {
		maxAttempts = 16
	}

	return &Queue{
		pubsub:      pubsub,
		router:      router,
		topic:       cfg.TopicName,
		retryTopic:  retryTopic,
		useRetry:    cfg.UseRetryTopic,
		maxAttempts: maxAttempts,
	}, nil
}

// Enqueue publishes one per-inbox delivery attempt on the primary
// topic, spec.md §4.6's "enqueued on the primary topic as one message
// per inbox."
func (q *Queue) Enqueue(to string, body []byte) error {
	return q.publish(q.topic, to, 0, body)
}

func (q *Queue) publish(topic, to string, attempt int, body []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set(metaTo, to)
	msg.Metadata.Set(metaAttempt, fmt.Sprintf("%d", attempt))
	return q.pubsub.Publish(topic, msg)
}

// SetConsumer wires the delivery handler and retry policy both Run's
// in-process loop and HandlePush's HTTP push path dispatch into,
// called once during startup before either is used.
func (q *Queue) SetConsumer(h Handler, classify Classifier, onAbandon func(to string, attempt int, err error)) {
	q.h, q.classify, q.onAbandon = h, classify, onAbandon
}

// Deliver runs the consumer set by SetConsumer for one message,
// republishing to the retry topic on a retryable failure (up to
// MaxDeliveryAttempts) or abandoning (acking and logging) otherwise.
// Shared by Run's in-process gochannel consumer and HandlePush's
// Pub/Sub-push-subscription entry point, since both are the same
// "subscriber is the HTTP push endpoint" role spec.md §5 describes —
// gochannel for single-process deployments, HandlePush for a real
// push-subscription backend once one is wired to MQ_PUBSUB_*.
func (q *Queue) Deliver(ctx context.Context, to string, attempt int, body []byte) error {
	err := q.h(ctx, to, attempt, body)
	if err == nil {
		return nil
	}

	v := q.classify(err)
	if !v.Retryable || attempt+1 >= q.maxAttempts {
		if q.onAbandon != nil {
			q.onAbandon(to, attempt, err)
		}
		return nil
	}
	return q.publish(q.retryTopic, to, attempt+1, body)
}

// Run blocks consuming the primary (and, if configured, retry) topic
// in-process until ctx is canceled, the single-process stand-in for a
// real push-subscription backend (spec.md §4.6's "unretryable errors
// are acked and logged").
func (q *Queue) Run(ctx context.Context) error {
	consume := func(msg *message.Message) error {
		to := msg.Metadata.Get(metaTo)
		var attempt int
		fmt.Sscanf(msg.Metadata.Get(metaAttempt), "%d", &attempt)
		return q.Deliver(ctx, to, attempt, msg.Payload)
	}

	q.router.AddNoPublisherHandler("ghostfed-delivery-primary", q.topic, q.pubsub, consume)
	if q.useRetry && q.retryTopic != q.topic {
		q.router.AddNoPublisherHandler("ghostfed-delivery-retry", q.retryTopic, q.pubsub, consume)
	}
	return q.router.Run(ctx)
}

// Close shuts down the router and pub/sub.
func (q *Queue) Close() error {
	if err := q.router.Close(); err != nil {
		return err
	}
	return q.pubsub.Close()
}
