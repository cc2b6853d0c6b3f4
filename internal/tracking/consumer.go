package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/podsight/attribution-engine/internal/domain"
)

// EventStore persists validated touchpoint events.
type EventStore interface {
	InsertRawEvent(ctx context.Context, ev domain.RawEvent) error
}

// Consumer drains the touchpoint queue into the raw events table. Malformed
// messages are deleted so they cannot poison the queue; storage errors leave
// the message in flight for redelivery.
type Consumer struct {
	sqsClient *sqs.Client
	queueURL  string
	store     EventStore
	done      chan struct{}
}

func NewConsumer(sqsClient *sqs.Client, queueURL string, store EventStore) *Consumer {
	return &Consumer{
		sqsClient: sqsClient,
		queueURL:  queueURL,
		store:     store,
		done:      make(chan struct{}),
	}
}

func (c *Consumer) Start(ctx context.Context) {
	log.Printf("SQS touchpoint consumer started (queue=%s)", c.queueURL)
	go c.poll(ctx)
}

func (c *Consumer) Stop() {
	close(c.done)
}

func (c *Consumer) poll(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		out, err := c.sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("SQS receive error: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		for _, msg := range out.Messages {
			var evt TouchpointEvent
			if err := json.Unmarshal([]byte(*msg.Body), &evt); err != nil {
				log.Printf("SQS bad message: %v", err)
				c.deleteMessage(ctx, msg.ReceiptHandle)
				continue
			}

			if err := c.processEvent(ctx, evt); err != nil {
				if _, bad := err.(*badEventError); bad {
					log.Printf("SQS dropping invalid event %s: %v", evt.EventID, err)
					c.deleteMessage(ctx, msg.ReceiptHandle)
					continue
				}
				log.Printf("SQS process error (%s): %v", evt.EventID, err)
				continue
			}

			c.deleteMessage(ctx, msg.ReceiptHandle)
		}
	}
}

func (c *Consumer) deleteMessage(ctx context.Context, handle *string) {
	c.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: handle,
	})
}

type badEventError struct {
	reason string
}

func (e *badEventError) Error() string { return e.reason }

func (c *Consumer) processEvent(ctx context.Context, evt TouchpointEvent) error {
	if evt.EventID == "" || evt.CampaignID == "" {
		return &badEventError{reason: "missing event_id or campaign_id"}
	}
	if !evt.Channel.IsValid() {
		return &badEventError{reason: fmt.Sprintf("unknown channel %q", evt.Channel)}
	}
	if evt.OccurredAt.IsZero() {
		return &badEventError{reason: "missing occurred_at"}
	}

	payload, err := json.Marshal(eventPayload{
		PromoCode:  evt.PromoCode,
		UTMSource:  evt.UTMSource,
		UTMMedium:  evt.UTMMedium,
		UTMContent: evt.UTMContent,
		IPAddress:  evt.IPAddress,
		UserAgent:  evt.UserAgent,
	})
	if err != nil {
		return &badEventError{reason: fmt.Sprintf("marshal payload: %v", err)}
	}

	ev := domain.RawEvent{
		ID:         evt.EventID,
		CampaignID: evt.CampaignID,
		Channel:    evt.Channel,
		OccurredAt: evt.OccurredAt.UTC(),
		Payload:    payload,
	}
	if err := c.store.InsertRawEvent(ctx, ev); err != nil {
		return fmt.Errorf("store raw event: %w", err)
	}

	log.Printf("PROCESSED TOUCHPOINT: campaign=%s channel=%s", ev.CampaignID, ev.Channel)
	return nil
}

// eventPayload is the stored shape of the channel-specific fields. The
// dedup hash runs over these bytes, so field order must stay stable.
type eventPayload struct {
	PromoCode  string `json:"promo_code,omitempty"`
	UTMSource  string `json:"utm_source,omitempty"`
	UTMMedium  string `json:"utm_medium,omitempty"`
	UTMContent string `json:"utm_content,omitempty"`
	IPAddress  string `json:"ip_address,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
}
