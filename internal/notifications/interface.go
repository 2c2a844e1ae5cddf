package notifications

import "github.com/azure/mention-tracker/internal/models"

// Notifier delivers watchlist digests
type Notifier interface {
	SendDigest(digest *models.Digest) error
}
