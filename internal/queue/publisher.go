// README: Outbound event publisher with FIFO ordering and deduplication keys.
package queue

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
)

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	sqs      SQSAPI
	queueURL string
}

func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{sqs: sqsClient, queueURL: queueURL}
}

// Publish sends one message. groupID is the ordering key: the queue delivers
// messages sharing it in publish order, to one consumer at a time. dedupID
// collapses identical retried publishes within the queue's dedup window.
// All attributes are sent as string-typed message attributes, plus a
// generated correlationId for tracing a message through the consumer logs.
func (p *Publisher) Publish(ctx context.Context, body string, attrs map[string]string, groupID, dedupID string) error {
	msgAttrs := make(map[string]sqstypes.MessageAttributeValue, len(attrs)+1)
	for k, v := range attrs {
		msgAttrs[k] = stringAttr(v)
	}
	msgAttrs["correlationId"] = stringAttr(uuid.NewString())

	input := &sqs.SendMessageInput{
		QueueUrl:               &p.queueURL,
		MessageBody:            &body,
		MessageGroupId:         &groupID,
		MessageDeduplicationId: &dedupID,
		MessageAttributes:      msgAttrs,
	}
	if _, err := p.sqs.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func stringAttr(v string) sqstypes.MessageAttributeValue {
	return sqstypes.MessageAttributeValue{
		DataType:    awsString("String"),
		StringValue: &v,
	}
}

func awsString(s string) *string { return &s }
