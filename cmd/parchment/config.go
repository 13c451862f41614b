// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/pdiddy/parchment/pkg/types"
)

// setDefaults registers every configuration key so environment variables
// (PARCHMENT_FEED_PAGE_SIZE, ...) are honored by Unmarshal.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("platform", string(d.Platform))

	v.SetDefault("feed.base_url", d.Feed.BaseURL)
	v.SetDefault("feed.page_size", d.Feed.PageSize)
	v.SetDefault("feed.proxy_enabled", d.Feed.ProxyEnabled)
	v.SetDefault("feed.proxy_base", d.Feed.ProxyBase)
	v.SetDefault("feed.timeout", d.Feed.Timeout)
	v.SetDefault("feed.user_agent", d.Feed.UserAgent)

	v.SetDefault("store.path", d.Store.Path)

	v.SetDefault("auth.signing_key", d.Auth.SigningKey)
	v.SetDefault("auth.session_ttl", d.Auth.SessionTTL)
	v.SetDefault("auth.recent_login_window", d.Auth.RecentLoginWindow)
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)
	v.SetDefault("auth.min_password_length", d.Auth.MinPasswordLength)

	v.SetDefault("export.dir", d.Export.Dir)
	v.SetDefault("export.format", d.Export.Format)
	v.SetDefault("export.bucket", d.Export.Bucket)
	v.SetDefault("export.region", d.Export.Region)
	v.SetDefault("export.endpoint", d.Export.Endpoint)
	v.SetDefault("export.access_key", d.Export.AccessKey)
	v.SetDefault("export.secret_key", d.Export.SecretKey)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// loadConfig unmarshals v into a Config and checks the values the rest of
// the program relies on.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("reading config: %w", err)
	}
	switch c.Platform {
	case types.PlatformNative, types.PlatformWeb:
	default:
		return types.Config{}, fmt.Errorf("platform %q: must be %q or %q", c.Platform, types.PlatformNative, types.PlatformWeb)
	}
	if c.Feed.PageSize <= 0 {
		return types.Config{}, fmt.Errorf("feed.page_size must be positive, got %d", c.Feed.PageSize)
	}
	return c, nil
}
