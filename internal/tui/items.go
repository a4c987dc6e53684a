package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/barysiuk/crs/internal/core"
)

// profileItem wraps a ProfileSummary for the bubbles list.
// Implements list.DefaultItem.
type profileItem struct {
	profile core.ProfileSummary
}

func (i profileItem) Title() string {
	if i.profile.IsCurrent {
		return i.profile.Name + " " + currentStyle.Render("(current)")
	}
	return i.profile.Name
}

func (i profileItem) Description() string {
	desc := i.profile.Description
	if desc == "" {
		desc = "No description"
	}
	noun := "files"
	if i.profile.FileCount == 1 {
		noun = "file"
	}
	return fmt.Sprintf("%s · %d %s", desc, i.profile.FileCount, noun)
}

func (i profileItem) FilterValue() string { return i.profile.Name }

func profilesToItems(profiles []core.ProfileSummary) []list.Item {
	items := make([]list.Item, len(profiles))
	for i, p := range profiles {
		items[i] = profileItem{profile: p}
	}
	return items
}
