package backend

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/roles"
)

// Reference is the lookup data a view needs besides the transactions.
type Reference struct {
	User         models.User
	Cooperatives []models.Cooperative
	Shops        []models.Shop
	Woredas      []models.Woreda
	CurrentShop  *models.Shop
}

// LoadReference fetches the current user and whatever reference lists the
// role's capabilities ask for, concurrently.
func (c *Client) LoadReference(ctx context.Context, token string, caps roles.Capabilities) (*Reference, error) {
	ref := &Reference{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		user, err := c.CurrentUser(gctx, token)
		if err != nil {
			return fmt.Errorf("current user: %w", err)
		}
		ref.User = user
		return nil
	})
	if caps.NeedsCooperatives {
		g.Go(func() error {
			coops, err := c.ListCooperatives(gctx, token)
			if err != nil {
				return fmt.Errorf("cooperatives: %w", err)
			}
			ref.Cooperatives = coops
			return nil
		})
	}
	if caps.NeedsShops {
		g.Go(func() error {
			shops, err := c.ListShops(gctx, token)
			if err != nil {
				return fmt.Errorf("shops: %w", err)
			}
			ref.Shops = shops
			return nil
		})
	}
	if caps.NeedsWoredas {
		g.Go(func() error {
			woredas, err := c.ListWoredas(gctx, token)
			if err != nil {
				return fmt.Errorf("woredas: %w", err)
			}
			ref.Woredas = woredas
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if caps.NeedsCurrentShop && ref.User.WorksAt != "" {
		shop, err := c.Shop(ctx, token, ref.User.WorksAt)
		if err != nil {
			return nil, fmt.Errorf("current shop: %w", err)
		}
		ref.CurrentShop = &shop
	}

	return ref, nil
}
