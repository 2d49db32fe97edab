package rounds

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectLister lists object keys in the image bucket.
type ObjectLister interface {
	Keys(ctx context.Context, prefix string) (map[string]struct{}, error)
}

// S3Lister lists keys with ListObjectsV2.
type S3Lister struct {
	client *s3.Client
	bucket string
}

// NewS3Lister loads the default AWS credential chain for region.
func NewS3Lister(ctx context.Context, region, bucket string) (*S3Lister, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Lister{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

func (l *S3Lister) Keys(ctx context.Context, prefix string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	p := s3.NewListObjectsV2Paginator(l.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(l.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", l.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			out[aws.ToString(obj.Key)] = struct{}{}
		}
	}
	return out, nil
}
