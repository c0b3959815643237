package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultForceTwoFactorKey is where the shared force-2FA flag lives.
const DefaultForceTwoFactorKey = "authcore:settings:force_2fa"

// RedisSource keeps Flags in sync with a flag stored in Redis so a change
// made on one replica reaches the others within one poll interval.
type RedisSource struct {
	Client   *redis.Client
	Flags    *Flags
	Key      string
	Interval time.Duration
	Logger   *slog.Logger
}

// NewRedisSource connects to url (redis://...).
func NewRedisSource(url string, flags *Flags, interval time.Duration, logger *slog.Logger) (*RedisSource, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &RedisSource{
		Client:   redis.NewClient(opts),
		Flags:    flags,
		Key:      DefaultForceTwoFactorKey,
		Interval: interval,
		Logger:   logger,
	}, nil
}

// Poll reads the shared flag once. A missing key leaves the local value
// untouched so the startup default stays in effect until someone sets it.
func (s *RedisSource) Poll(ctx context.Context) error {
	raw, err := s.Client.Get(ctx, s.Key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("settings key %s: %w", s.Key, err)
	}
	if v != s.Flags.ForceTwoFactor() {
		s.Logger.Info("force 2fa setting changed", slog.Bool("enabled", v))
	}
	s.Flags.SetForceTwoFactor(v)
	return nil
}

// SetForceTwoFactor writes the shared flag and applies it locally right away.
func (s *RedisSource) SetForceTwoFactor(ctx context.Context, v bool) error {
	if err := s.Client.Set(ctx, s.Key, strconv.FormatBool(v), 0).Err(); err != nil {
		return fmt.Errorf("store force 2fa: %w", err)
	}
	s.Flags.SetForceTwoFactor(v)
	return nil
}

// Run polls until ctx is done. Poll errors are logged and the last known
// value is kept.
func (s *RedisSource) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		if err := s.Poll(ctx); err != nil && ctx.Err() == nil {
			s.Logger.Warn("failed to poll settings", slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *RedisSource) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *RedisSource) Close() error {
	return s.Client.Close()
}
