package discovery

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gopatchy/avdecc/protocol"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []protocol.Adpdu
	fail  bool
}

func (f *fakeSender) SendAdp(pdu protocol.Adpdu) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("send failed")
	}
	f.sent = append(f.sent, pdu)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestLoopBroadcastsImmediatelyOnStart(t *testing.T) {
	sender := &fakeSender{}
	loop := New(sender, time.Hour, nil)
	loop.Start()
	defer loop.Stop()

	deadline := time.Now().Add(time.Second)
	for sender.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if sender.count() != 1 {
		t.Fatalf("expected 1 broadcast immediately after Start, got %d", sender.count())
	}

	got := sender.sent[0]
	if got.MessageType != protocol.AdpEntityDiscover {
		t.Fatalf("expected AdpEntityDiscover, got %v", got.MessageType)
	}
}

func TestLoopStopIsResponsive(t *testing.T) {
	sender := &fakeSender{}
	loop := New(sender, time.Hour, nil)
	loop.Start()

	start := time.Now()
	loop.Stop()
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("Stop took too long: %v", elapsed)
	}
}

func TestLoopReportsSendErrors(t *testing.T) {
	sender := &fakeSender{fail: true}
	var mu sync.Mutex
	var errCount int

	loop := New(sender, time.Hour, func(err error) {
		mu.Lock()
		errCount++
		mu.Unlock()
	})
	loop.Start()
	defer loop.Stop()

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := errCount
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if errCount == 0 {
		t.Fatalf("expected onError to be invoked")
	}
}
