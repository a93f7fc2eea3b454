// Package store implements the Object Fetcher half of spec §4.3: it
// streams an object's body from the object store without buffering the
// whole thing in memory, exposing a plain io.ReadCloser plus whatever
// content-encoding metadata the store reports. Decompression and framing
// are internal/decode's job, not this package's.
package store

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Object is a streamed object body plus the metadata the Decoder needs
// to decide whether it's gzip-compressed (spec §4.3 "Decompression
// policy").
type Object struct {
	Body            io.ReadCloser
	ContentEncoding string
}

// Fetcher streams objects out of S3.
type Fetcher struct {
	client *s3.Client
}

func NewFetcher(client *s3.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch streams bucket/key. The caller must Close the returned Object's
// Body. Network/IO errors are wrapped (%w) with the bucket/key but get no
// error kind of their own, so the Driver treats them as "any other
// exception" (spec §4.3 "Network/IO errors reading the
// object -> the notification fails").
func (f *Fetcher) Fetch(ctx context.Context, bucket, key string) (*Object, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch s3://%s/%s: %w", bucket, key, err)
	}
	enc := ""
	if out.ContentEncoding != nil {
		enc = *out.ContentEncoding
	}
	return &Object{Body: out.Body, ContentEncoding: enc}, nil
}
