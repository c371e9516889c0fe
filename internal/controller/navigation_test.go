package controller_test

import (
	"context"
	"testing"

	"github.com/micro-nova/piconfig-go/internal/gateway"
	"github.com/micro-nova/piconfig-go/internal/models"
)

func TestShowEditConfigTextLoads(t *testing.T) {
	ctrl, gw := newMountedController(t)
	gw.SetStoredConfigText("fresh")

	state, appErr := ctrl.Navigate(context.Background(), models.PageEditConfigTxt)
	if appErr != nil {
		t.Fatalf("Navigate: %v", appErr)
	}
	if state.Page != models.PageEditConfigTxt || state.ConfigText.Text != "fresh" {
		t.Errorf("page=%q text=%q, want editor with fresh text", state.Page, state.ConfigText.Text)
	}
}

func TestShowEditConfigTextLoadFailureStaysOnMenu(t *testing.T) {
	ctrl, gw := newMountedController(t)
	gw.SetFailure(gateway.OpGetConfigText, &gateway.RemoteError{Op: gateway.OpGetConfigText, Code: "READ_FAILED"})

	if _, appErr := ctrl.ShowEditConfigText(context.Background()); appErr == nil {
		t.Fatal("ShowEditConfigText succeeded with failing backend")
	}
	if p := ctrl.State().Page; p != models.PageMenu {
		t.Errorf("page = %q, want menu", p)
	}
}

func TestLeavingEditorDiscardsEdits(t *testing.T) {
	ctrl, _ := newMountedController(t)
	ctx := context.Background()

	if _, appErr := ctrl.ShowEditConfigText(ctx); appErr != nil {
		t.Fatalf("ShowEditConfigText: %v", appErr)
	}
	_, _ = ctrl.EditConfigText("abandoned")

	state, appErr := ctrl.Navigate(ctx, models.PageMenu)
	if appErr != nil {
		t.Fatalf("Navigate: %v", appErr)
	}
	if state.Page != models.PageMenu || state.ConfigText.Dirty || state.ConfigText.Text != testConfigTxt {
		t.Errorf("state = page %q, config %+v; want menu with edits discarded", state.Page, state.ConfigText)
	}
}

func TestNavigateUnknownPage(t *testing.T) {
	ctrl, _ := newMountedController(t)
	if _, appErr := ctrl.Navigate(context.Background(), models.Page("settings")); appErr == nil {
		t.Error("Navigate(settings) succeeded")
	}
}
