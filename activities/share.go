package activities

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shareConcurrency = 4

// ShareResult counts the outcome of a batch share.
type ShareResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// ShareAll shares every item, a few at a time. One failure does not stop the
// others; the caller reports the counts.
func (c *Client) ShareAll(ctx context.Context, token string, items []ShareRequest) ShareResult {
	var succeeded, failed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(shareConcurrency)
	for _, item := range items {
		g.Go(func() error {
			if err := c.Share(ctx, token, item); err != nil {
				log.Warn().Err(err).Str("itemId", item.ItemID).Msg("Share failed")
				failed.Add(1)
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return ShareResult{Succeeded: int(succeeded.Load()), Failed: int(failed.Load())}
}
