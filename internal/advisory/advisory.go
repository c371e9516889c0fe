// Package advisory derives the "reboot required" signal and per-item hints
// from the panel state. Everything here is pure; results are recomputed on
// every query and never stored.
package advisory

import "github.com/micro-nova/piconfig-go/internal/models"

// Kind classifies one item of the advisory.
type Kind string

const (
	Normal                  Kind = "normal"
	MismatchOnNotEnabled    Kind = "mismatch_on_not_enabled"
	MismatchOffStillEnabled Kind = "mismatch_off_still_enabled"
	UnsavedChanges          Kind = "unsaved_changes"
)

// Item identifies what a hint is about.
type Item string

const (
	ItemI2C        Item = Item(models.I2C)
	ItemSPI        Item = Item(models.SPI)
	ItemConfigText Item = "configTxt"
)

// Hint is the display text for one item.
type Hint struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message,omitempty"`
}

// Advisory is the derived reboot verdict.
type Advisory struct {
	RebootRequired bool          `json:"reboot_required"`
	Items          map[Item]Hint `json:"items"`
}

// Classify compares an interface's configured and live values. An unknown
// enabled value (nil) never counts as a mismatch.
func Classify(configured bool, enabled *bool) Kind {
	if enabled == nil || configured == *enabled {
		return Normal
	}
	if configured {
		return MismatchOnNotEnabled
	}
	return MismatchOffStillEnabled
}

// Compute derives the advisory from the whole session state.
func Compute(s models.State) Advisory {
	return ComputeFrom(s.Interface(models.I2C), s.Interface(models.SPI), s.ConfigText)
}

// ComputeFrom derives the advisory from the three tracked entities.
func ComputeFrom(i2c, spi models.InterfaceState, text models.ConfigText) Advisory {
	adv := Advisory{Items: make(map[Item]Hint, 3)}

	for _, e := range []struct {
		id    models.InterfaceID
		state models.InterfaceState
	}{{models.I2C, i2c}, {models.SPI, spi}} {
		kind := Classify(e.state.Configured, e.state.Enabled)
		if kind != Normal {
			adv.RebootRequired = true
		}
		adv.Items[Item(e.id)] = Hint{Kind: kind, Message: interfaceMessage(e.id, kind)}
	}

	if text.Dirty {
		adv.RebootRequired = true
		adv.Items[ItemConfigText] = Hint{
			Kind:    UnsavedChanges,
			Message: "config.txt has unsaved changes. Save before rebooting or they will be lost",
		}
	} else {
		adv.Items[ItemConfigText] = Hint{Kind: Normal}
	}
	return adv
}

func interfaceMessage(id models.InterfaceID, kind Kind) string {
	switch kind {
	case MismatchOnNotEnabled:
		msg := id.Label() + " is configured on but not yet enabled. Reboot required"
		if id == models.I2C {
			msg += " (enabling I2C for the first time needs two reboots)"
		}
		return msg
	case MismatchOffStillEnabled:
		return id.Label() + " is configured off but still enabled. Reboot required"
	}
	return ""
}

// View is the state plus its advisory, as handed to the presentation layer.
type View struct {
	State    models.State `json:"state"`
	Advisory Advisory     `json:"advisory"`
}

// NewView pairs s with a freshly computed advisory.
func NewView(s models.State) View {
	return View{State: s, Advisory: Compute(s)}
}
