package controller_test

import (
	"context"
	"testing"
	"time"

	"github.com/micro-nova/piconfig-go/internal/controller"
	"github.com/micro-nova/piconfig-go/internal/gateway"
)

func TestRebootDeclined(t *testing.T) {
	ctrl, gw := newMountedController(t)
	var asked string
	no := controller.ConfirmFunc(func(_ context.Context, prompt string) bool {
		asked = prompt
		return false
	})

	if ctrl.RequestReboot(context.Background(), no) {
		t.Fatal("RequestReboot returned true after decline")
	}
	if asked != controller.RebootPrompt {
		t.Errorf("prompt = %q", asked)
	}
	time.Sleep(20 * time.Millisecond)
	if gw.Calls(gateway.OpReboot) != 0 {
		t.Error("reboot issued without confirmation")
	}
	if ctrl.RequestReboot(context.Background(), nil) {
		t.Error("RequestReboot with nil confirmer returned true")
	}
}

// TestRebootIsFireAndForget checks the optimistic notification appears even
// though the reboot call never returns.
func TestRebootIsFireAndForget(t *testing.T) {
	ctrl, gw := newMountedController(t)
	release := gw.Block(gateway.OpReboot)
	t.Cleanup(release)

	done := make(chan bool, 1)
	go func() { done <- ctrl.RequestReboot(context.Background(), controller.Confirmed) }()

	select {
	case ok := <-done:
		if !ok {
			t.Fatal("RequestReboot returned false")
		}
	case <-time.After(time.Second):
		t.Fatal("RequestReboot blocked on the reboot call")
	}

	n := ctrl.State().Notification
	if n == nil || n.Message != "Rebooting..." {
		t.Errorf("notification = %+v, want Rebooting...", n)
	}
	waitFor(t, "reboot call", func() bool { return gw.Calls(gateway.OpReboot) == 1 })
}

func TestRebootFailureIsIgnored(t *testing.T) {
	ctrl, gw := newMountedController(t)
	gw.SetFailure(gateway.OpReboot, &gateway.TransportError{Op: gateway.OpReboot, Err: context.Canceled})

	if !ctrl.RequestReboot(context.Background(), controller.Confirmed) {
		t.Fatal("RequestReboot returned false")
	}
	waitFor(t, "reboot call", func() bool { return gw.Calls(gateway.OpReboot) == 1 })
	time.Sleep(10 * time.Millisecond)
	if n := ctrl.State().Notification; n == nil || n.Message != "Rebooting..." {
		t.Errorf("notification = %+v, want Rebooting... to stand", n)
	}
}
