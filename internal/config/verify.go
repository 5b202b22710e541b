// ghostfed is the ActivityPub federation core for a single-tenant publishing platform.
// Copyright (C) 2026 Ghost Foundation
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package config

import "fmt"

// Verify checks the config for boot-time errors, the way
// framework/config/verify.go does. The server exits non-zero on
// failure per spec.md §7.
func (c *Config) Verify() error {
	if c.ServerConfig.Host == "" {
		return fmt.Errorf("config: server.host is required")
	}
	if c.DatabaseConfig.DatabaseName == "" {
		return fmt.Errorf("config: database name is required (MYSQL_DATABASE)")
	}
	if c.DatabaseConfig.SocketPath == "" && c.DatabaseConfig.Host == "" {
		return fmt.Errorf("config: one of database.host or database.socket_path is required")
	}
	if c.KVConfig.StoreType != "sql" && c.KVConfig.StoreType != "redis" {
		return fmt.Errorf("config: kv.store_type must be \"sql\" or \"redis\", got %q", c.KVConfig.StoreType)
	}
	if c.KVConfig.StoreType == "redis" && c.KVConfig.RedisHost == "" {
		return fmt.Errorf("config: kv.redis_host is required when kv.store_type is \"redis\"")
	}
	if c.QueueConfig.Enabled {
		if c.QueueConfig.TopicName == "" {
			return fmt.Errorf("config: queue.topic_name is required when queue is enabled")
		}
		if c.QueueConfig.UseRetryTopic && c.QueueConfig.RetryTopicName == "" {
			return fmt.Errorf("config: queue.retry_topic_name is required when use_retry_topic is set")
		}
		if c.QueueConfig.MaxDeliveryAttempts <= 0 {
			return fmt.Errorf("config: queue.max_delivery_attempts must be positive")
		}
	}
	if c.DatabaseConfig.MaxOpenConns > 0 && c.DatabaseConfig.MinIdleConns > c.DatabaseConfig.MaxOpenConns {
		return fmt.Errorf("config: database.min_idle_conns cannot exceed max_open_conns")
	}
	return nil
}
