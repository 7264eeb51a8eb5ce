package supabase

import (
	"github.com/supabase-community/supabase-go"

	"storybook-backend/internal/config"
)

// Client holds the supabase-go connection used for realtime broadcasts.
type Client struct {
	Supabase *supabase.Client
	Config   *config.Config
}

func NewClient(cfg *config.Config) (*Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		Supabase: client,
		Config:   cfg,
	}, nil
}
