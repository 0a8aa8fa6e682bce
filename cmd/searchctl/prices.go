package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/buildy-mcbuild/storefront/internal/config"
	dbRedis "github.com/buildy-mcbuild/storefront/internal/db/redis"
	pricingrepo "github.com/buildy-mcbuild/storefront/internal/repository/pricing"
)

// PricesCmd groups pricing maintenance commands.
type PricesCmd struct {
	Load PricesLoadCmd `cmd:"" help:"Write a YAML or JSON price file to the pricing store."`
}

// PricesLoadCmd seeds the pricing store from a file.
type PricesLoadCmd struct {
	File       string        `arg:"" help:"YAML or JSON price file." type:"existingfile"`
	Driver     string        `help:"Pricing driver override (redis, memory)."`
	RedisAddr  []string      `help:"Redis address override." name:"redis-addr"`
	TTL        time.Duration `help:"Record expiry override; 0 keeps the configured pricing.ttl_sec." name:"ttl"`
	NoProgress bool          `help:"Disable progress bar" default:"false"`
}

func (c *PricesLoadCmd) Run(g *CLI, out io.Writer) error {
	records, err := pricingrepo.LoadPrices(c.File)
	if err != nil {
		return err
	}

	cfg, err := config.Load(g.Env)
	if err != nil {
		return err
	}
	pc := cfg.Pricing
	if c.Driver != "" {
		pc.Driver = c.Driver
	}
	if len(c.RedisAddr) > 0 {
		pc.Addrs = c.RedisAddr
	}
	ttl := time.Duration(pc.TTLSec) * time.Second
	if c.TTL > 0 {
		ttl = c.TTL
	}

	ctx := context.Background()
	var (
		w      pricingrepo.Writer
		target string
	)
	switch pc.Driver {
	case config.PricingRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{Addrs: pc.Addrs, Password: pc.Password, DB: pc.DB})
		if err != nil {
			return fmt.Errorf("create pricing store: %w", err)
		}
		defer store.Close()
		err = retry.Do(
			func() error {
				return store.WaitForReady(ctx, time.Duration(pc.ReadinessTimeout)*time.Second)
			},
			retry.Context(ctx),
			retry.Attempts(uint(max(pc.RetryAttempts, 1))),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			return err
		}
		w = pricingrepo.New(store).WithTTL(ttl)
		target = "redis"
	case config.PricingMemory:
		// The memory driver lives inside the server; loading here only validates the file.
		w = pricingrepo.NewMemory()
		target = "memory (validation only)"
	default:
		return fmt.Errorf("pricing driver %q cannot be loaded", pc.Driver)
	}

	var progress Progress = NewNoopProgress()
	if !c.NoProgress {
		progress = NewBarProgress(len(records), "Loading prices")
	}
	last := 0
	n, err := pricingrepo.Seed(ctx, w, records, func(done int) {
		_ = progress.Add(done - last)
		last = done
	})
	progress.Close()
	if err != nil {
		return fmt.Errorf("loaded %d of %d prices: %w", n, len(records), err)
	}

	fmt.Fprintf(out, "Loaded %d prices into %s\n", n, target)
	return nil
}
