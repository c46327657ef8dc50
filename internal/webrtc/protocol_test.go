package webrtc

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	text bool
	data []byte
}

// loopConn records frames in send order.
type loopConn struct {
	frames []frame
	err    error
}

func (c *loopConn) SendText(s string) error {
	if c.err != nil {
		return c.err
	}
	c.frames = append(c.frames, frame{text: true, data: []byte(s)})
	return nil
}

func (c *loopConn) Send(data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.frames = append(c.frames, frame{data: append([]byte(nil), data...)})
	return nil
}

func deliver(t *testing.T, r *Receiver, frames []frame) []*Received {
	t.Helper()
	var out []*Received
	for _, f := range frames {
		got, err := r.Receive(f.text, f.data)
		require.NoError(t, err)
		if got.Text != nil || got.File != nil {
			out = append(out, got)
		}
	}
	return out
}

func TestTextRoundTrip(t *testing.T) {
	conn := &loopConn{}
	require.NoError(t, SendText(conn, "héllo, world"))

	require.Len(t, conn.frames, 1)
	assert.True(t, conn.frames[0].text)
	assert.JSONEq(t, `{"type":"text","content":"héllo, world"}`, string(conn.frames[0].data))

	got := deliver(t, NewReceiver(0), conn.frames)
	require.Len(t, got, 1)
	assert.Equal(t, MessageTypeText, got[0].Text.Type)
	assert.Equal(t, "héllo, world", got[0].Text.Content)
}

func TestFileRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB, 0x00, 0x7F}, 1000)
	meta := NewFileMetadata("notes.bin", "application/octet-stream", int64(len(payload)))

	conn := &loopConn{}
	require.NoError(t, SendText(conn, "before"))
	require.NoError(t, SendFile(conn, meta, payload))
	require.NoError(t, SendText(conn, "after"))

	require.Len(t, conn.frames, 4)
	assert.True(t, conn.frames[1].text)
	assert.False(t, conn.frames[2].text)

	r := NewReceiver(1 << 20)
	got := deliver(t, r, conn.frames)
	require.Len(t, got, 3)

	assert.Equal(t, "before", got[0].Text.Content)
	require.NotNil(t, got[1].File)
	assert.Equal(t, meta, got[1].File.Metadata)
	assert.Len(t, got[1].File.Data, len(payload))
	assert.Equal(t, payload, got[1].File.Data)
	assert.Equal(t, "after", got[2].Text.Content)

	_, pending := r.Pending()
	assert.False(t, pending)
}

func TestEmptyFileRoundTrip(t *testing.T) {
	conn := &loopConn{}
	require.NoError(t, SendFile(conn, NewFileMetadata("empty.txt", "text/plain", 0), []byte{}))
	assert.JSONEq(t, `{"type":"file","fileName":"empty.txt","fileType":"text/plain","fileSize":0}`, string(conn.frames[0].data))

	got := deliver(t, NewReceiver(0), conn.frames)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].File.Data)
}

func TestSecondMetadataBeforePayloadIsRejected(t *testing.T) {
	r := NewReceiver(0)

	_, err := r.Receive(true, []byte(`{"type":"file","fileName":"a.txt","fileType":"text/plain","fileSize":3}`))
	require.NoError(t, err)

	_, err = r.Receive(true, []byte(`{"type":"file","fileName":"b.txt","fileType":"text/plain","fileSize":5}`))
	require.ErrorIs(t, err, ErrMetadataOutstanding)
	var perr *ProtocolError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "metadata", perr.Op)

	// The first announcement was kept, not overwritten.
	pending, ok := r.Pending()
	require.True(t, ok)
	assert.Equal(t, "a.txt", pending.FileName)

	got, err := r.Receive(false, []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "a.txt", got.File.Metadata.FileName)
}

func TestProtocolViolations(t *testing.T) {
	t.Run("payload without metadata", func(t *testing.T) {
		_, err := NewReceiver(0).Receive(false, []byte("stray"))
		assert.ErrorIs(t, err, ErrUnexpectedPayload)
	})

	t.Run("size mismatch clears pending", func(t *testing.T) {
		r := NewReceiver(0)
		_, err := r.Receive(true, []byte(`{"type":"file","fileName":"a","fileType":"","fileSize":10}`))
		require.NoError(t, err)
		_, err = r.Receive(false, []byte("short"))
		assert.ErrorIs(t, err, ErrSizeMismatch)
		_, ok := r.Pending()
		assert.False(t, ok)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewReceiver(0).Receive(true, []byte(`{"type":"emoji"}`))
		assert.ErrorIs(t, err, ErrUnknownMessage)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := NewReceiver(0).Receive(true, []byte(`{"type":`))
		assert.ErrorIs(t, err, ErrMalformedMessage)
	})

	t.Run("negative size", func(t *testing.T) {
		_, err := NewReceiver(0).Receive(true, []byte(`{"type":"file","fileName":"a","fileSize":-1}`))
		assert.ErrorIs(t, err, ErrMalformedMessage)
	})

	t.Run("too large", func(t *testing.T) {
		r := NewReceiver(4)
		_, err := r.Receive(true, []byte(`{"type":"file","fileName":"a","fileSize":5}`))
		assert.ErrorIs(t, err, ErrPayloadTooLarge)
		_, ok := r.Pending()
		assert.False(t, ok)
	})
}

func TestSendFileChecksDeclaredSize(t *testing.T) {
	conn := &loopConn{}
	err := SendFile(conn, NewFileMetadata("a", "", 4), []byte("abc"))
	assert.ErrorIs(t, err, ErrSizeMismatch)
	assert.Empty(t, conn.frames)
}

func TestSendErrorsAreWrapped(t *testing.T) {
	boom := errors.New("channel closed")
	conn := &loopConn{err: boom}

	err := SendText(conn, "hi")
	assert.ErrorIs(t, err, boom)

	err = SendFile(conn, NewFileMetadata("a", "", 1), []byte("x"))
	var perr *ProtocolError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "send metadata", perr.Op)
}
