package watchlist

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/pkg/httputil"
	"github.com/wonny/screener/backend/pkg/logger"
)

// Client reads watchlists from the watchlist service
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new watchlist service client
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("watchlist"),
		baseURL:    strings.TrimRight(baseURL, "/") + "/api/watchlists",
	}
}

// GetUserWatchlists returns the user's watchlists with their items
func (c *Client) GetUserWatchlists(ctx context.Context, userID int) ([]contracts.Watchlist, error) {
	var lists []contracts.Watchlist
	if err := c.httpClient.GetJSON(ctx, fmt.Sprintf("%s/user/%d", c.baseURL, userID), &lists); err != nil {
		return nil, fmt.Errorf("failed to fetch watchlists of user %d: %w", userID, err)
	}

	for i := range lists {
		items, err := c.GetItems(ctx, lists[i].ID)
		if err != nil {
			return nil, err
		}
		lists[i].Items = items
	}

	c.logger.WithFields(map[string]interface{}{
		"user_id":    userID,
		"watchlists": len(lists),
	}).Debug("Fetched watchlists")
	return lists, nil
}

// GetItems returns the items of one watchlist
func (c *Client) GetItems(ctx context.Context, watchlistID int) ([]contracts.WatchlistItem, error) {
	var items []contracts.WatchlistItem
	if err := c.httpClient.GetJSON(ctx, fmt.Sprintf("%s/%d/items", c.baseURL, watchlistID), &items); err != nil {
		return nil, fmt.Errorf("failed to fetch items of watchlist %d: %w", watchlistID, err)
	}
	for i := range items {
		items[i].Symbol = strings.ToUpper(items[i].Symbol)
	}
	return items, nil
}
