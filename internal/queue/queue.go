// README: Queue message shape and the narrow SQS capability surface the engine consumes.
package queue

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSAPI is the subset of the SQS client used by the publisher and consumer.
// Concrete *sqs.Client satisfies it; tests substitute fakes.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Message is a received queue message reduced to what handlers need.
type Message struct {
	Body          string
	Attributes    map[string]string
	ReceiptHandle string
}

// Attr returns the named message attribute, or def when it is absent or
// empty. A malformed event degrades to defaults instead of failing.
func (m Message) Attr(key, def string) string {
	if v, ok := m.Attributes[key]; ok && v != "" {
		return v
	}
	return def
}
