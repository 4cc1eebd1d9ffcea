package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/physiolens/internal/config"
)

type fakeReader struct {
	msgs      []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, io.ErrUnexpectedEOF
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func TestKafkaSourceForwardsAndCommits(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{{Value: []byte("a"), Offset: 1}, {Value: []byte("b"), Offset: 2}}}
	out := make(chan []byte, 2)
	src := &KafkaSource{reader: reader, output: out, logger: zap.NewNop()}

	err := src.Run(context.Background())
	assert.ErrorIs(t, err, ErrKafkaFetchFailed)

	// both offsets are committed while the segments still sit unprocessed on the channel
	require.Len(t, out, 2)
	require.Len(t, reader.committed, 2)
	assert.Equal(t, []byte("a"), <-out)
	assert.Equal(t, []byte("b"), <-out)
	assert.Equal(t, int64(2), reader.committed[1].Offset)
	assert.True(t, reader.closed)
}

func TestKafkaSourceStopsOnCancel(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{{Value: []byte("a")}}}
	out := make(chan []byte) // nobody reads
	src := &KafkaSource{reader: reader, output: out, logger: zap.NewNop()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, src.Run(ctx), context.Canceled)
	assert.Empty(t, reader.committed)
}

func TestNewKafkaSourceValidates(t *testing.T) {
	_, err := NewKafkaSource(config.KafkaConfig{Topic: "t", GroupID: "g"}, nil, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidKafkaConfig)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segments.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"a\":1}\n\n  \n{\"b\":2}\n"), 0o600))

	out := make(chan []byte, 4)
	require.NoError(t, NewFileSource(path, out, zap.NewNop()).Run(context.Background()))
	close(out)

	var got []string
	for line := range out {
		got = append(got, string(line))
	}
	assert.Equal(t, []string{`{"a":1}`, `{"b":2}`}, got)
}

func TestFileSourceMissingFile(t *testing.T) {
	err := NewFileSource(filepath.Join(t.TempDir(), "absent"), make(chan []byte), zap.NewNop()).Run(context.Background())
	assert.ErrorIs(t, err, ErrFileSourceFailed)
}

func TestNewSource(t *testing.T) {
	cfg := &config.Config{Source: config.SourceConfig{Type: config.SourceFile, Path: "x"}}
	src, err := NewSource(cfg, make(chan []byte), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &FileSource{}, src)

	cfg.Source.Type = "ftp"
	_, err = NewSource(cfg, make(chan []byte), zap.NewNop())
	assert.ErrorIs(t, err, ErrUnknownSourceType)
}
