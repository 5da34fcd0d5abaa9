package mpris

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDispatcher_SendDoesNotWaitForHandler(t *testing.T) {
	release := make(chan struct{})
	got := make(chan Request, queueSize+2)
	d := newDispatcher(zap.NewNop(), func(r Request) {
		<-release
		got <- r
	})
	defer d.close()

	sent := make(chan struct{})
	go func() {
		d.send(Request{Action: Next})
		d.send(Request{Action: SetVolume, Volume: 40})
		d.send(Request{Action: Stop})
		close(sent)
	}()

	select {
	case <-sent:
	case <-time.After(2 * time.Second):
		t.Fatal("send() blocked on a busy handler")
	}

	close(release)
	want := []Action{Next, SetVolume, Stop}
	for i, a := range want {
		select {
		case r := <-got:
			if r.Action != a {
				t.Errorf("request %d = %v, want %v", i, r.Action, a)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("request %d never reached the handler", i)
		}
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	d := newDispatcher(zap.NewNop(), func(Request) { <-release })
	defer d.close()
	defer close(release)

	done := make(chan struct{})
	go func() {
		for i := 0; i < queueSize*2; i++ {
			d.send(Request{Action: Next})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("send() blocked on a full queue")
	}
}

func TestDispatcher_SendAfterClose(t *testing.T) {
	d := newDispatcher(zap.NewNop(), func(Request) {})
	d.close()
	d.send(Request{Action: Play})
}
