package controller_test

import (
	"context"
	"testing"

	"github.com/micro-nova/piconfig-go/internal/gateway"
	"github.com/micro-nova/piconfig-go/internal/models"
)

func TestEditAlwaysMarksDirty(t *testing.T) {
	ctrl, _ := newMountedController(t)

	// Re-entering the text that is already loaded still counts as an edit.
	state, appErr := ctrl.EditConfigText(testConfigTxt)
	if appErr != nil {
		t.Fatalf("EditConfigText: %v", appErr)
	}
	if !state.ConfigText.Dirty {
		t.Error("identical edit did not mark dirty")
	}
}

func TestLoadResetsDirty(t *testing.T) {
	ctrl, gw := newMountedController(t)
	_, _ = ctrl.EditConfigText("scratch")
	gw.SetStoredConfigText("dtoverlay=vc4-kms-v3d\n")

	state, appErr := ctrl.LoadConfigText(context.Background())
	if appErr != nil {
		t.Fatalf("LoadConfigText: %v", appErr)
	}
	if state.ConfigText.Dirty || state.ConfigText.Text != "dtoverlay=vc4-kms-v3d\n" {
		t.Errorf("config text = %+v, want clean backend text", state.ConfigText)
	}
}

func TestSaveDoesNotRefetch(t *testing.T) {
	ctrl, gw := newMountedController(t)
	loads := gw.Calls(gateway.OpGetConfigText)

	_, _ = ctrl.EditConfigText("dtparam=i2c_arm=on\n")
	state, appErr := ctrl.SaveConfigText(context.Background())
	if appErr != nil {
		t.Fatalf("SaveConfigText: %v", appErr)
	}
	if gw.Calls(gateway.OpGetConfigText) != loads {
		t.Error("save re-fetched config.txt")
	}
	if state.ConfigText.Text != "dtparam=i2c_arm=on\n" || state.ConfigText.Dirty {
		t.Errorf("config text = %+v", state.ConfigText)
	}
	if state.Notification == nil || state.Notification.Message != "config.txt saved" {
		t.Errorf("notification = %+v", state.Notification)
	}
}

func TestSaveFailureKeepsDirty(t *testing.T) {
	ctrl, gw := newMountedController(t)
	_, _ = ctrl.EditConfigText("new text")
	gw.SetFailure(gateway.OpSetConfigText, &gateway.TransportError{Op: gateway.OpSetConfigText, Err: context.DeadlineExceeded})

	if _, appErr := ctrl.SaveConfigText(context.Background()); appErr == nil {
		t.Fatal("save succeeded against failing backend")
	}
	ct := ctrl.State().ConfigText
	if !ct.Dirty || ct.Text != "new text" || ct.Loading {
		t.Errorf("config text = %+v, want dirty edit kept and idle", ct)
	}

	// Retrying after the backend recovers succeeds.
	gw.SetFailure(gateway.OpSetConfigText, nil)
	if _, appErr := ctrl.SaveConfigText(context.Background()); appErr != nil {
		t.Fatalf("retry: %v", appErr)
	}
	if gw.StoredConfigText() != "new text" {
		t.Errorf("backend text = %q", gw.StoredConfigText())
	}
}

func TestEditRejectedDuringSave(t *testing.T) {
	ctrl, gw := newMountedController(t)
	_, _ = ctrl.EditConfigText("first")
	release := gw.Block(gateway.OpSetConfigText)

	done := make(chan *models.AppError, 1)
	go func() {
		_, appErr := ctrl.SaveConfigText(context.Background())
		done <- appErr
	}()
	waitFor(t, "config text loading", func() bool { return ctrl.State().ConfigText.Loading })

	if _, appErr := ctrl.EditConfigText("second"); appErr == nil || appErr.Code != models.CodeBusy {
		t.Errorf("edit during save: err = %v, want BUSY", appErr)
	}
	release()
	if appErr := <-done; appErr != nil {
		t.Fatalf("save: %v", appErr)
	}
	if gw.StoredConfigText() != "first" {
		t.Errorf("backend text = %q, want first", gw.StoredConfigText())
	}
}

func TestDiscardRestoresLastSaved(t *testing.T) {
	ctrl, _ := newMountedController(t)
	_, _ = ctrl.EditConfigText("saved")
	_, _ = ctrl.SaveConfigText(context.Background())
	_, _ = ctrl.EditConfigText("unsaved")

	state, appErr := ctrl.DiscardConfigText()
	if appErr != nil {
		t.Fatalf("DiscardConfigText: %v", appErr)
	}
	if state.ConfigText.Text != "saved" || state.ConfigText.Dirty {
		t.Errorf("config text = %+v, want last saved text, clean", state.ConfigText)
	}
}
