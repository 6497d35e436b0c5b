package ws

import (
	"testing"
	"time"

	"github.com/paperoll/backend/internal/config"
	"github.com/paperoll/backend/internal/sim"
)

// Teardown must not race the frame loop: the hub signals done and leaves the
// send channel alone, so a frame send in flight during a disconnect can never
// hit a closed channel.
func TestTeardownDoesNotKillLiveFrameLoop(t *testing.T) {
	sim.Manager = sim.NewSessionManager(nil, nil, &config.Config{SessionExpiryMinutes: 30})
	s := sim.NewSession("sim_teardown", "", sim.DefaultRollConfig(), sim.DefaultClothConfig())

	for i := 0; i < 300; i++ {
		c := &Client{
			sessionID: "sim_teardown",
			send:      make(chan []byte, 1),
			done:      make(chan struct{}),
		}

		stopped := make(chan struct{})
		go func() {
			c.frameLoop(s, 1000)
			close(stopped)
		}()

		// Wait for the loop to be mid-stream, then tear down the way the
		// hub does on unregister and on reconnect-replace.
		select {
		case <-c.send:
		case <-time.After(time.Second):
			t.Fatal("frame loop produced no frames")
		}
		close(c.done)

		// Input handlers can still fire while teardown is in flight
		c.sendError("disconnected")

		select {
		case <-stopped:
		case <-time.After(time.Second):
			t.Fatal("frame loop did not stop after teardown")
		}
	}
}

// A frame queued but never drained must not block teardown.
func TestTeardownWithFullSendBuffer(t *testing.T) {
	sim.Manager = sim.NewSessionManager(nil, nil, &config.Config{SessionExpiryMinutes: 30})
	s := sim.NewSession("sim_full", "", sim.DefaultRollConfig(), sim.DefaultClothConfig())

	c := &Client{
		sessionID: "sim_full",
		send:      make(chan []byte, 1),
		done:      make(chan struct{}),
	}

	stopped := make(chan struct{})
	go func() {
		c.frameLoop(s, 1000)
		close(stopped)
	}()

	// Let the buffer fill; frames past the first are dropped, not queued
	time.Sleep(20 * time.Millisecond)
	close(c.done)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("frame loop did not stop with a full send buffer")
	}
}
