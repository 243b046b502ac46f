// README: Worker-pool consumer; long-polls SQS and acknowledges only after the handler succeeds.
package queue

import (
	"context"
	"log"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Handler processes one received message. A nil return acknowledges the
// message; any error leaves it on the queue for redelivery.
type Handler func(ctx context.Context, msg Message) error

type Consumer struct {
	sqs         SQSAPI
	queueURL    string
	workers     int
	waitSeconds int32
	batchSize   int32
	handler     Handler
}

func NewConsumer(sqsClient SQSAPI, queueURL string, workers, waitSeconds, batchSize int, handler Handler) *Consumer {
	if workers < 1 {
		workers = 1
	}
	return &Consumer{
		sqs:         sqsClient,
		queueURL:    queueURL,
		workers:     workers,
		waitSeconds: int32(waitSeconds),
		batchSize:   int32(batchSize),
		handler:     handler,
	}
}

// Run drains the queue with a small pool of workers until ctx is cancelled.
// Each worker processes one message fully before taking the next; ordering
// among messages sharing a group id is the queue's FIFO guarantee, not
// something re-established here.
func (c *Consumer) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.runWorker(ctx)
		}()
	}
	wg.Wait()
}

func (c *Consumer) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		out, err := c.sqs.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:              &c.queueURL,
			MaxNumberOfMessages:   c.batchSize,
			WaitTimeSeconds:       c.waitSeconds,
			MessageAttributeNames: []string{"All"},
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("receive queue=%s error=%v", c.queueURL, err)
			continue
		}

		for _, raw := range out.Messages {
			msg := Message{
				Attributes: make(map[string]string, len(raw.MessageAttributes)),
			}
			if raw.Body != nil {
				msg.Body = *raw.Body
			}
			if raw.ReceiptHandle != nil {
				msg.ReceiptHandle = *raw.ReceiptHandle
			}
			for k, v := range raw.MessageAttributes {
				if v.StringValue != nil {
					msg.Attributes[k] = *v.StringValue
				}
			}

			if err := c.handler(ctx, msg); err != nil {
				// Not acknowledged: the queue redelivers after the
				// visibility timeout. The rest of the batch is dropped with
				// it: a later entry may share the failed message's group,
				// and acking it would apply that group's events out of
				// publish order. The remainder redelivers in order.
				log.Printf("handle queue=%s corr=%s error=%v", c.queueURL, msg.Attr("correlationId", "-"), err)
				break
			}
			if err := c.ack(ctx, msg.ReceiptHandle); err != nil {
				log.Printf("ack queue=%s error=%v", c.queueURL, err)
			}
		}
	}
}

func (c *Consumer) ack(ctx context.Context, receiptHandle string) error {
	_, err := c.sqs.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &c.queueURL,
		ReceiptHandle: &receiptHandle,
	})
	return err
}
