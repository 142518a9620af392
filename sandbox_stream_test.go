package modal

import (
	"errors"
	"io"
	"testing"

	"github.com/djherbis/buffer"
	nio "github.com/djherbis/nio/v3"

	"github.com/modal-labs/libmodal-sub001/internal/pb"
)

type fakeLogStream struct {
	batches []*pb.LogBatch
	idx     int
	err     error
}

func (f *fakeLogStream) Recv() (*pb.LogBatch, error) {
	if f.idx >= len(f.batches) {
		if f.err != nil {
			return nil, f.err
		}
		return nil, io.EOF
	}
	b := f.batches[f.idx]
	f.idx++
	return b, nil
}

func TestDrainLogStream_ConcatenatesItemsAndTracksLastEntryID(t *testing.T) {
	stream := &fakeLogStream{batches: []*pb.LogBatch{
		{EntryId: "e1", Items: []*pb.LogItem{{Data: []byte("hello ")}}},
		{EntryId: "e2", Items: []*pb.LogItem{{Data: []byte("world")}}, Eof: true},
	}}

	pr, pw := nio.Pipe(buffer.New(4096))
	var lastEntryID string

	eof, err := drainLogStream(stream, pw, &lastEntryID)
	pw.Close()
	if err != nil {
		t.Fatalf("drainLogStream: %v", err)
	}
	if !eof {
		t.Fatalf("expected eof=true when the final batch carries Eof")
	}
	if lastEntryID != "e2" {
		t.Fatalf("expected lastEntryID to track the most recent batch, got %q", lastEntryID)
	}

	out, err := io.ReadAll(pr)
	if err != nil {
		t.Fatalf("reading piped output: %v", err)
	}
	if string(out) != "hello world" {
		t.Fatalf("expected concatenated output, got %q", out)
	}
}

func TestDrainLogStream_ReturnsFalseOnPollTimeout(t *testing.T) {
	stream := &fakeLogStream{} // no batches, plain io.EOF: server-side poll window elapsed.
	pr, pw := nio.Pipe(buffer.New(4096))
	defer pr.Close()

	var lastEntryID string
	eof, err := drainLogStream(stream, pw, &lastEntryID)
	if err != nil {
		t.Fatalf("expected no error on a clean poll timeout, got %v", err)
	}
	if eof {
		t.Fatalf("expected eof=false so the caller reconnects")
	}
}

func TestDrainLogStream_PropagatesStreamError(t *testing.T) {
	wantErr := errors.New("boom")
	stream := &fakeLogStream{err: wantErr}
	pr, pw := nio.Pipe(buffer.New(4096))
	defer pr.Close()

	var lastEntryID string
	_, err := drainLogStream(stream, pw, &lastEntryID)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the stream's error to propagate, got %v", err)
	}
}
