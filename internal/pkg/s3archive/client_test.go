package s3archive

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/Marketfox/app/models"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestClient_Archive(t *testing.T) {
	put := &fakePutter{}
	c := &Client{
		s3:     put,
		config: &Config{BucketName: "archive", Prefix: "dead"},
		now:    func() time.Time { return time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) },
	}

	payload := []byte(`{"id":"evt_1"}`)
	require.NoError(t, c.Archive(context.Background(), models.DeadLetterKindWebhook, 17, payload, "Zeitüberschreitung\nretry"))

	assert.Equal(t, "archive", *put.input.Bucket)
	assert.True(t, strings.HasPrefix(*put.input.Key, "dead/webhook/2026/03/17-"), *put.input.Key)
	assert.True(t, strings.HasSuffix(*put.input.Key, ".bin"))
	assert.Equal(t, payload, put.body)
	assert.Equal(t, int64(len(payload)), *put.input.ContentLength)
	assert.Equal(t, "17", put.input.Metadata["dlq-item-id"])
	assert.Equal(t, "webhook", put.input.Metadata["dlq-kind"])
	assert.Equal(t, "Zeit?berschreitung?retry", put.input.Metadata["dlq-reason"])
}

func TestClient_ArchiveError(t *testing.T) {
	c := &Client{s3: &fakePutter{err: errors.New("403")}, config: &Config{BucketName: "b"}, now: time.Now}
	assert.Error(t, c.Archive(context.Background(), models.DeadLetterKindSms, 1, []byte("x"), "r"))
}

func TestMetadataValue_Truncates(t *testing.T) {
	assert.Len(t, metadataValue(strings.Repeat("a", 2000)), maxReasonMetadata)
}

func TestConfig_ObjectKeyDefaultsPrefix(t *testing.T) {
	c := &Config{}
	key := c.ObjectKey(models.DeadLetterKindSms, 3, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), "abc")
	assert.Equal(t, "dlq/sms/2026/11/3-abc.bin", key)
}
