package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/your-org/imagemeta/pkg/awsconf"
)

// snsAPI is the subset of *sns.Client used here.
type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher publishes to a single topic; SNS fans out to email/SMS subscribers.
type SNSPublisher struct {
	api      snsAPI
	topicARN string
}

// NewSNS builds a publisher from the default AWS credential chain.
func NewSNS(ctx context.Context, cfg Config) (*SNSPublisher, error) {
	awsCfg, err := awsconf.Load(ctx, awsconf.Options{Region: cfg.Region})
	if err != nil {
		return nil, err
	}
	client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		o.BaseEndpoint = awsconf.BaseEndpoint(cfg.Endpoint)
	})
	return &SNSPublisher{api: client, topicARN: cfg.Channel}, nil
}

func (p *SNSPublisher) Publish(ctx context.Context, msg Message) error {
	_, err := p.api.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(msg.Subject),
		Message:  aws.String(msg.Body),
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.topicARN, err)
	}
	return nil
}

func (p *SNSPublisher) Close(ctx context.Context) error {
	return nil
}
