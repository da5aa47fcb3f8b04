package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	headErr error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]; ok {
		return &s3.HeadObjectOutput{}, nil
	}
	return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "not found"}
}

func TestS3Sink_Put(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{}}
	sink := NewS3SinkWithClient(client, "media", "stems/run1")

	location, err := sink.Put(context.Background(), "vocals.wav", strings.NewReader("vocals"))
	require.NoError(t, err)

	assert.Equal(t, "s3://media/stems/run1/vocals.wav", location)
	assert.Equal(t, []byte("vocals"), client.objects["media/stems/run1/vocals.wav"])
}

func TestS3Sink_Exists(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{"media/abc.mp4": []byte("x")}}
	sink := NewS3SinkWithClient(client, "media", "")

	exists, err := sink.Exists(context.Background(), "abc.mp4")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = sink.Exists(context.Background(), "missing.mp4")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestS3Sink_ExistsPropagatesOtherErrors(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{}, headErr: errors.New("access denied")}
	sink := NewS3SinkWithClient(client, "media", "")

	_, err := sink.Exists(context.Background(), "abc.mp4")
	assert.ErrorContains(t, err, "access denied")
}
