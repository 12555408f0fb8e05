package queue

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog"
)

// sqsAPI is the part of *sqs.Client the queue uses.
type sqsAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// newSQSClient uses the default AWS credential chain.
func newSQSClient(ctx context.Context, region string) (*sqs.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return sqs.NewFromConfig(cfg), nil
}

type SQSEnqueuer struct {
	client   sqsAPI
	queueURL string
	log      zerolog.Logger
}

func NewSQSEnqueuer(client sqsAPI, queueURL string, log zerolog.Logger) *SQSEnqueuer {
	return &SQSEnqueuer{client: client, queueURL: queueURL, log: log}
}

// Enqueue returns the SQS message ID.
func (e *SQSEnqueuer) Enqueue(ctx context.Context, msg *Message) (string, error) {
	data, err := encodeMessage(msg)
	if err != nil {
		return "", err
	}
	out, err := e.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(e.queueURL),
		MessageBody: aws.String(string(data)),
	})
	if err != nil {
		return "", fmt.Errorf("sqs send: %w", err)
	}
	publishedTotal.WithLabelValues(BackendSQS).Inc()

	id := aws.ToString(out.MessageId)
	e.log.Debug().Stringer("delivery_id", msg.DeliveryID).Str("sqs_message_id", id).Msg("delivery enqueued")
	return id, nil
}

type sqsSource struct {
	client   sqsAPI
	queueURL string
	cfg      SQSConfig
}

func NewSQSDequeuer(client sqsAPI, handler MessageHandler, cfg Config, log zerolog.Logger) Dequeuer {
	return newConsumer(&sqsSource{client: client, queueURL: cfg.SQS.QueueURL, cfg: cfg.SQS}, handler, cfg, log)
}

func (s *sqsSource) backend() string { return BackendSQS }

func (s *sqsSource) prepare(context.Context) error {
	if s.queueURL == "" {
		return fmt.Errorf("sqs: queue url is required")
	}
	return nil
}

func (s *sqsSource) receive(ctx context.Context, _ string) ([]envelope, error) {
	out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(s.queueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     s.cfg.WaitSeconds,
		VisibilityTimeout:   s.cfg.VisibilitySeconds,
	})
	if err != nil {
		return nil, err
	}
	batch := make([]envelope, 0, len(out.Messages))
	for _, m := range out.Messages {
		batch = append(batch, envelope{
			ref:  aws.ToString(m.ReceiptHandle),
			id:   aws.ToString(m.MessageId),
			body: []byte(aws.ToString(m.Body)),
		})
	}
	return batch, nil
}

func (s *sqsSource) ack(ctx context.Context, env envelope) error {
	_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(s.queueURL),
		ReceiptHandle: aws.String(env.ref),
	})
	return err
}
