package activities

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const downloadConcurrency = 4

// DownloadItem names one PDF in a batch. Bucket is optional.
type DownloadItem struct {
	Key    string `json:"key"`
	Bucket string `json:"bucket,omitempty"`
}

// DownloadResult is the outcome for one DownloadItem.
type DownloadResult struct {
	DownloadItem
	Success bool          `json:"success"`
	Link    *DownloadLink `json:"link,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// DownloadAll fetches a link for every item, a few at a time. Results keep
// the order of items and a failed item does not stop the others.
func (c *Client) DownloadAll(ctx context.Context, token, userID string, items []DownloadItem) []DownloadResult {
	results := make([]DownloadResult, len(items))

	g := new(errgroup.Group)
	g.SetLimit(downloadConcurrency)
	for i, item := range items {
		g.Go(func() error {
			link, err := c.DownloadURL(ctx, token, item.Key, userID, item.Bucket)
			if err != nil {
				log.Warn().Err(err).Str("key", item.Key).Msg("Download link failed")
				results[i] = DownloadResult{DownloadItem: item, Error: err.Error()}
				return nil
			}
			results[i] = DownloadResult{DownloadItem: item, Success: true, Link: &link}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
