package extract

import (
	"github.com/desertthunder/incommon/internal/models"
)

// Identity reads a member's display name and avatar from their profile page.
//
// Missing pieces fall back to the handle and an empty avatar.
func Identity(doc *Document, handle string) models.Identity {
	id := models.FallbackIdentity(handle)

	if name := trimmedText(doc, ".profile-name h1, .person-summary h1"); name != "" {
		id.DisplayName = name
	}
	id.AvatarRef = doc.Resolve(attr(doc.Find(".profile-avatar img, .person-summary img").First(), "src"))
	return id
}

func trimmedText(doc *Document, selector string) string {
	return collapseSpace(doc.Find(selector).First().Text())
}
