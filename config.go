// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/viper"

	"github.com/partnerops/npcusync/cache"
	"github.com/partnerops/npcusync/cache/db"
	"github.com/partnerops/npcusync/catalog"
	"github.com/partnerops/npcusync/groups"
	"github.com/partnerops/npcusync/northpass"
	"github.com/partnerops/npcusync/transcript"
)

// ServersConfig holds the listen addresses for the three servers.
type ServersConfig struct {
	Primary string
	Metrics string
	Health  string
}

func (c *ServersConfig) applyDefaults() {
	if c.Primary == "" {
		c.Primary = ":6600"
	}
	if c.Metrics == "" {
		c.Metrics = ":6601"
	}
	if c.Health == "" {
		c.Health = ":6602"
	}
}

func provideServersConfig(v *viper.Viper) (ServersConfig, error) {
	var config ServersConfig
	if err := v.UnmarshalKey("servers", &config); err != nil {
		return ServersConfig{}, err
	}
	config.applyDefaults()
	return config, nil
}

func provideNorthpassConfig(v *viper.Viper) (northpass.ClientConfig, error) {
	var config northpass.ClientConfig
	err := v.UnmarshalKey("northpass", &config)
	return config, err
}

func provideCacheConfig(v *viper.Viper) (cache.Config, error) {
	var config cache.Config
	err := v.UnmarshalKey("cache", &config)
	return config, err
}

func provideDBConfigs(v *viper.Viper) (db.Configs, error) {
	var configs db.Configs
	err := v.UnmarshalKey("store", &configs)
	return configs, err
}

func provideCatalogConfig(v *viper.Viper) (catalog.Config, error) {
	var config catalog.Config
	err := v.UnmarshalKey("catalog", &config)
	return config, err
}

func provideRefresherConfig(v *viper.Viper) (catalog.RefresherConfig, error) {
	var config catalog.RefresherConfig
	err := v.UnmarshalKey("catalog.refresh", &config)
	return config, err
}

func provideBatchConfig(v *viper.Viper) (transcript.BatchConfig, error) {
	var config transcript.BatchConfig
	err := v.UnmarshalKey("reconcile", &config)
	return config, err
}

func provideGroupsConfig(v *viper.Viper) (groups.Config, error) {
	var config groups.Config
	err := v.UnmarshalKey("groups", &config)
	return config, err
}
