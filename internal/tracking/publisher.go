package tracking

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/podsight/attribution-engine/internal/domain"
)

// TouchpointEvent is the wire format for one listener touchpoint on its way
// from the edge handlers to the ingestion consumer.
type TouchpointEvent struct {
	EventID    string         `json:"event_id"`
	CampaignID string         `json:"campaign_id"`
	Channel    domain.Channel `json:"channel"`
	OccurredAt time.Time      `json:"occurred_at"`
	PromoCode  string         `json:"promo_code,omitempty"`
	UTMSource  string         `json:"utm_source,omitempty"`
	UTMMedium  string         `json:"utm_medium,omitempty"`
	UTMContent string         `json:"utm_content,omitempty"`
	IPAddress  string         `json:"ip_address"`
	UserAgent  string         `json:"user_agent"`
}

type Publisher struct {
	client   *sqs.Client
	queueURL string
}

func NewPublisher(client *sqs.Client, queueURL string) *Publisher {
	return &Publisher{client: client, queueURL: queueURL}
}

// Publish sends the event without blocking the caller. Pixel and redirect
// handlers must respond fast; a lost touchpoint costs one credit, a slow
// pixel costs the listener experience.
func (p *Publisher) Publish(ctx context.Context, evt TouchpointEvent) {
	body, err := json.Marshal(evt)
	if err != nil {
		log.Printf("ERROR marshal touchpoint event: %v", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
			QueueUrl:    aws.String(p.queueURL),
			MessageBody: aws.String(string(body)),
		})
		if err != nil {
			log.Printf("ERROR publishing to SQS: %v", err)
		}
	}()
}
