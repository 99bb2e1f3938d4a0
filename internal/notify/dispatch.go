package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
)

// SQSAPI is the subset of the SQS client used for dispatch.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// DispatchJob asks the external responder service to reach a user whose
// countdown expired or who pressed the panic button.
type DispatchJob struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CrisisLevel string    `json:"crisis_level"`
	Contacts    int       `json:"contacts_notified"`
	RequestedAt time.Time `json:"requested_at"`
}

// Dispatcher enqueues emergency dispatch jobs.
type Dispatcher interface {
	Dispatch(ctx context.Context, job DispatchJob) error
}

// SQSDispatcher publishes DispatchJobs to an SQS queue.
type SQSDispatcher struct {
	client   SQSAPI
	queueURL string
}

func NewSQSDispatcher(client SQSAPI, queueURL string) *SQSDispatcher {
	if client == nil {
		panic("notify: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("notify: SQS queueURL cannot be empty")
	}
	return &SQSDispatcher{client: client, queueURL: queueURL}
}

func (d *SQSDispatcher) Dispatch(ctx context.Context, job DispatchJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("notify: marshal dispatch job: %w", err)
	}
	attrs := map[string]types.MessageAttributeValue{
		"user_id": {DataType: aws.String("String"), StringValue: aws.String(job.UserID)},
	}
	if job.CrisisLevel != "" {
		attrs["crisis_level"] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(job.CrisisLevel)}
	}
	_, err = d.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(d.queueURL),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("notify: failed to send SQS message: %w", err)
	}
	return nil
}

var _ Dispatcher = (*SQSDispatcher)(nil)
