package log

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/meshpair/meshpair-go/pkg/wire"
)

func TestFileLoggerCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.mplog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("log file was not created")
	}
}

func TestFileLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.mplog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	status := wire.StatusNotFound
	logger.Log(Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-1",
		Direction:    DirectionIn,
		Layer:        LayerWire,
		Category:     CategoryMessage,
		FlowID:       "f1",
		Message: &MessageEvent{
			Kind:      wire.KindResponse,
			MessageID: 9,
			Status:    &status,
		},
	})
	logger.Log(Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-1",
		Layer:        LayerTransport,
		Category:     CategoryMessage,
		Frame:        &FrameEvent{Size: 12, Data: []byte{1, 2, 3}},
	})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer reader.Close()

	first, err := reader.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if first.Message == nil || first.Message.MessageID != 9 {
		t.Fatalf("first event message = %+v, want message id 9", first.Message)
	}
	if first.Message.Status == nil || *first.Message.Status != wire.StatusNotFound {
		t.Errorf("Status = %v, want NOT_FOUND", first.Message.Status)
	}

	second, err := reader.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if second.Frame == nil || second.Frame.Size != 12 {
		t.Errorf("Frame = %+v, want size 12", second.Frame)
	}

	if _, err := reader.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() at end error = %v, want io.EOF", err)
	}
}

func TestFileLoggerLogAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.mplog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.Close()
	logger.Log(Event{ConnectionID: "late"})

	if err := logger.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("file size = %d, want 0", info.Size())
	}
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.mplog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				logger.Log(Event{Timestamp: time.Now(), ConnectionID: "c"})
			}
		}()
	}
	wg.Wait()
	logger.Close()

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		if _, err := reader.Next(); err != nil {
			break
		}
		count++
	}
	if count != 200 {
		t.Errorf("read %d events, want 200", count)
	}
}

func TestReaderFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.mplog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.Log(NewStateEvent(StateEntityInclusion, "LOADING", "STARTED", ""))
	logger.Log(Event{Timestamp: time.Now(), Layer: LayerWire, EntryID: "entry-a"})
	logger.Log(Event{Timestamp: time.Now(), Layer: LayerWire, EntryID: "entry-b"})
	logger.Close()

	layer := LayerWire
	reader, err := NewFilteredReader(path, Filter{Layer: &layer, EntryID: "entry-b"})
	if err != nil {
		t.Fatalf("NewFilteredReader() error = %v", err)
	}
	defer reader.Close()

	ev, err := reader.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if ev.EntryID != "entry-b" {
		t.Errorf("EntryID = %q, want %q", ev.EntryID, "entry-b")
	}
	if _, err := reader.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() error = %v, want io.EOF", err)
	}
}
