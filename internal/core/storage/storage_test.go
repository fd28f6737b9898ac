package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePut struct {
	got  *s3.PutObjectInput
	body string
	err  error
}

func (f *fakePut) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.got = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Put(t *testing.T) {
	fp := &fakePut{}
	s := &S3{client: fp, bucket: "luxora-img", publicBase: "https://cdn.example"}

	url, err := s.Put(context.Background(), "products/p1/a.png", strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/products/p1/a.png", url)
	assert.Equal(t, "luxora-img", aws.ToString(fp.got.Bucket))
	assert.Equal(t, "image/png", aws.ToString(fp.got.ContentType))
	assert.Equal(t, "png", fp.body)

	fp.err = errors.New("denied")
	_, err = s.Put(context.Background(), "k", strings.NewReader(""), "image/png")
	assert.ErrorContains(t, err, "denied")
}

func TestMemoryPut(t *testing.T) {
	m := NewMemory()
	url, err := m.Put(context.Background(), "k", strings.NewReader("x"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "memory://k", url)
	assert.Equal(t, []byte("x"), m.Objects["k"])
}
