package netmon_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/habitek/inspectd/internal/netmon"
)

func TestMain(m *testing.M) {
	// verify no goroutine leaks across tests in this package
	goleak.VerifyTestMain(m)
}

type fakeProber struct {
	mu  sync.Mutex
	err error
}

func (p *fakeProber) Health(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *fakeProber) set(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func TestReconnectCallbackFiresOncePerEdge(t *testing.T) {
	m := netmon.New(nil, time.Hour, nil)

	var mu sync.Mutex
	fired := 0
	m.OnOnline(func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})

	m.SetOnline(true)
	m.SetOnline(true) // no edge, no callback
	m.SetOnline(false)
	m.SetOnline(true)
	m.Stop() // waits for in-flight callbacks

	mu.Lock()
	defer mu.Unlock()
	if fired != 2 {
		t.Fatalf("callback fired %d times, want 2", fired)
	}
}

func TestStartProbesImmediately(t *testing.T) {
	p := &fakeProber{}
	m := netmon.New(p, time.Hour, nil)

	m.Start(context.Background())
	defer m.Stop()

	if !m.Online() {
		t.Fatal("healthy probe did not mark monitor online")
	}
}

func TestProbeFailureGoesOffline(t *testing.T) {
	p := &fakeProber{}
	m := netmon.New(p, 10*time.Millisecond, nil)

	m.Start(context.Background())
	defer m.Stop()
	if !m.Online() {
		t.Fatal("expected online after first probe")
	}

	p.set(fmt.Errorf("no route to host"))
	deadline := time.Now().Add(2 * time.Second)
	for m.Online() {
		if time.Now().After(deadline) {
			t.Fatal("monitor never went offline after probe failures")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
