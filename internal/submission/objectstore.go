// Package submission creates Flink application and session clusters,
// submits jobs to session clusters over the Flink REST API, and manages
// the per-cluster local workspace. It carries the launcher contract
// (launcher.go) and the S3 object-store client (this file) the engine
// stages and verifies resources through.
package submission

import (
	"context"
	"errors"
	"io"

	"github.com/Al-assad/potamoi-experiment/internal/clusterdef"
	"github.com/Al-assad/potamoi-experiment/internal/pathutil"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectStore is the narrow interface the Submission Engine's pre-flight
// existence check and jar staging consume.
type ObjectStore interface {
	Head(ctx context.Context, key string) (exists bool, size int64, err error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
}

// S3ObjectStore implements ObjectStore over a single bucket, addressed
// path-style or virtual-hosted per S3PotaConf.PathStyleAccess. Every call
// addresses the configured Bucket with a bucket-relative key, as
// ResolveObjectKey produces; it does not go through S3PotaConf.RevisePath,
// which the pod template's init-container commands use.
type S3ObjectStore struct {
	client *s3.Client
	pota   clusterdef.S3PotaConf
}

// NewS3ObjectStore builds an S3ObjectStore, configuring the SDK client's
// endpoint and path-style addressing from pota. Static credentials come
// straight from the resolved S3AccessConf rather than the SDK's default
// provider chain, since the endpoint is almost always a self-hosted
// MinIO, not AWS.
func NewS3ObjectStore(pota clusterdef.S3PotaConf) *S3ObjectStore {
	usePathStyle := pota.PathStyleAccess != nil && *pota.PathStyleAccess
	client := s3.New(s3.Options{
		UsePathStyle: usePathStyle,
		Region:       "us-east-1",
		BaseEndpoint: aws.String(pota.Endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(pota.AccessKey, pota.SecretKey, ""),
	})
	return &S3ObjectStore{client: client, pota: pota}
}

func (o *S3ObjectStore) Head(ctx context.Context, key string) (bool, int64, error) {
	out, err := o.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(o.pota.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	size := int64(0)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return true, size, nil
}

func (o *S3ObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.pota.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

func (o *S3ObjectStore) Put(ctx context.Context, key string, body io.Reader, size int64) error {
	_, err := o.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(o.pota.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	})
	return err
}

func (o *S3ObjectStore) Delete(ctx context.Context, key string) error {
	_, err := o.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(o.pota.Bucket),
		Key:    aws.String(key),
	})
	return err
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	return errors.As(err, &nf)
}

// ResolveObjectKey strips the bucket-and-scheme prefix from an S3 path,
// returning the bucket-relative key an ObjectStore call expects.
func ResolveObjectKey(s3Path string) string {
	_, key := pathutil.SplitBucketAndKey(pathutil.PurePath(s3Path))
	return key
}
