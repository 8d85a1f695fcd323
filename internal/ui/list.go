package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/incommon/internal/formatter"
	"github.com/desertthunder/incommon/internal/models"
)

var _ list.Item = pairItem{}

// pairItem wraps [models.PairedRecord] to implement [list.Item].
type pairItem struct {
	pair   models.PairedRecord
	ownerA string
	ownerB string
}

func (i pairItem) FilterValue() string { return i.pair.Title() }
func (i pairItem) Title() string       { return i.pair.Title() }
func (i pairItem) Description() string {
	return fmt.Sprintf("%s: %s • %s: %s",
		i.ownerA, formatter.Side(i.pair.OwnerA), i.ownerB, formatter.Side(i.pair.OwnerB))
}

func pairItems(result *models.ComparisonResult) []list.Item {
	items := make([]list.Item, len(result.Pairs))
	for i, p := range result.Pairs {
		items[i] = pairItem{pair: p, ownerA: result.IdentityA.Handle, ownerB: result.IdentityB.Handle}
	}
	return items
}
