package assets

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func stubClient(t *testing.T, fp *fakePutter) *s3.Options {
	t.Helper()
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	var opts s3.Options
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		for _, fn := range optFns {
			fn(&opts)
		}
		return fp
	}
	return &opts
}

func TestUploadPutsObjectAndReturnsPublicURL(t *testing.T) {
	fp := &fakePutter{}
	opts := stubClient(t, fp)

	u, err := NewS3Uploader(context.Background(), Config{
		Endpoint: "http://127.0.0.1:9000/", Region: "us-east-1", Bucket: "talks",
		AccessKey: "minio", SecretKey: "minio123",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)

	url, err := u.Upload(context.Background(), "avatars/u1/a.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/talks/avatars/u1/a.png", url)
	assert.Equal(t, "talks", aws.ToString(fp.in.Bucket))
	assert.Equal(t, "image/png", aws.ToString(fp.in.ContentType))
	assert.Equal(t, []byte("png-bytes"), fp.body)
}

func TestUploadUsesConfiguredPublicURL(t *testing.T) {
	fp := &fakePutter{}
	stubClient(t, fp)

	u, err := NewS3Uploader(context.Background(), Config{Region: "eu-west-1", Bucket: "b", PublicURL: "https://cdn.example.com/"})
	require.NoError(t, err)
	url, err := u.Upload(context.Background(), "k", "image/gif", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/k", url)
}

func TestUploadError(t *testing.T) {
	fp := &fakePutter{err: errors.New("denied")}
	stubClient(t, fp)

	u, err := NewS3Uploader(context.Background(), Config{Region: "eu-west-1", Bucket: "b"})
	require.NoError(t, err)
	_, err = u.Upload(context.Background(), "k", "image/gif", []byte{1})
	assert.ErrorContains(t, err, "denied")
}

func TestBucketRequired(t *testing.T) {
	_, err := NewS3Uploader(context.Background(), Config{Region: "eu-west-1"})
	assert.Error(t, err)
}
