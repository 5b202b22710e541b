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

// Package config loads and validates the server's configuration, the
// way framework/config does in the teacher: an ini-tagged struct tree,
// loadable from a file and overridable by environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/units"
	"gopkg.in/ini.v1"
)

// Config is the root configuration object.
type Config struct {
	ServerConfig      ServerConfig      `ini:"server" comment:"HTTP server configuration"`
	DatabaseConfig    DatabaseConfig    `ini:"database" comment:"Relational store configuration"`
	KVConfig          KVConfig          `ini:"kv" comment:"Content-addressed object store configuration"`
	QueueConfig       QueueConfig       `ini:"queue" comment:"Push message queue configuration"`
	ActivityPubConfig ActivityPubConfig `ini:"activitypub" comment:"ActivityPub behavior configuration"`
	DeliveryConfig    DeliveryConfig    `ini:"delivery" comment:"Outbound delivery configuration"`
	MaintenanceConfig MaintenanceConfig `ini:"maintenance" comment:"Maintenance job rate limiting"`
}

type ServerConfig struct {
	Port                     int    `ini:"port" comment:"HTTP listen port"`
	Host                     string `ini:"host" comment:"(required) Fully qualified host for this site, used to build AP IDs"`
	HttpClientTimeoutSeconds int    `ini:"http_client_timeout_seconds" comment:"(default 30) Deadline for outbound resolver/JWKS/delivery HTTP calls"`
	SkipSignatureVerification bool  `ini:"skip_signature_verification" comment:"dev only: accept unsigned inbox POSTs"`
	AllowPrivateAddress      bool   `ini:"allow_private_address" comment:"dev only: allow resolver lookups against private IPs"`
	GhostProIPAddresses      []string `ini:"-" comment:"trusted source IPs for the publish webhook that may skip HMAC verification (spec.md §6)"`
}

// DatabaseConfig names its fields after the MYSQL_* environment
// variables in spec.md §6; the underlying driver is pgx (see
// DESIGN.md's Open Question decision on this deviation).
type DatabaseConfig struct {
	Host                   string `ini:"host"`
	Port                   int    `ini:"port"`
	User                   string `ini:"user"`
	Password               string `ini:"password"`
	DatabaseName           string `ini:"database"`
	SocketPath             string `ini:"socket_path"`
	SSLMode                string `ini:"ssl_mode"`
	MaxOpenConns           int    `ini:"max_open_conns" comment:"default 20, spec.md §5 pool max"`
	MinIdleConns           int    `ini:"min_idle_conns" comment:"default 5, spec.md §5 pool min"`
	ConnMaxLifetimeSeconds int    `ini:"conn_max_lifetime_seconds"`
	AcquireTimeoutSeconds  int    `ini:"acquire_timeout_seconds" comment:"default 60, spec.md §5"`
	IdleTimeoutSeconds     int    `ini:"idle_timeout_seconds" comment:"default 30, spec.md §5"`
}

type KVConfig struct {
	StoreType string `ini:"store_type" comment:"\"sql\" or \"redis\""`
	RedisHost string `ini:"redis_host"`
	RedisPort int    `ini:"redis_port"`
	RedisTLSCertFile string `ini:"redis_tls_cert"`
}

type QueueConfig struct {
	Enabled             bool   `ini:"use_mq"`
	PubSubHost          string `ini:"pubsub_host"`
	ProjectID           string `ini:"pubsub_project_id"`
	TopicName           string `ini:"topic_name" comment:"primary delivery topic"`
	RetryTopicName      string `ini:"retry_topic_name"`
	UseRetryTopic       bool   `ini:"use_retry_topic"`
	MaxDeliveryAttempts int    `ini:"max_delivery_attempts" comment:"spec.md §4.6 MAX_DELIVERY_ATTEMPTS"`
	PushToken           string `ini:"push_token" comment:"shared secret the pubsub/{ghost,fedify}/push routes require (spec.md §6)"`
}

type ActivityPubConfig struct {
	MaxInboxReplyResolutionDepth int `ini:"max_inbox_reply_resolution_depth" comment:"default 32, spec.md §9 reply graph depth cap"`
	FeedFanoutChunkSize          int `ini:"feed_fanout_chunk_size" comment:"default 1000, spec.md §4.4"`
	FollowingPageSize            int `ini:"following_page_size" comment:"default 20, spec.md §4.10"`
	OutboxPageSize               int `ini:"outbox_page_size" comment:"default 20, spec.md §4.10"`
	MaxAttachmentSize            units.Base2Bytes `ini:"max_attachment_size" comment:"backs the file-too-large image error"`
}

type DeliveryConfig struct {
	JWKSRetryAttempts int `ini:"jwks_retry_attempts" comment:"default 5, spec.md §4.1"`
}

// MaintenanceConfig backs spec.md §5's "maintenance job's external
// fetch uses a token-bucket limiter with configurable max concurrency
// and per-request delay; the runtime path does not rate-limit."
type MaintenanceConfig struct {
	MaxConcurrency      int `ini:"max_concurrency" comment:"default 4, concurrent in-flight refresh fetches"`
	PerRequestDelayMillis int `ini:"per_request_delay_millis" comment:"default 250, minimum spacing between fetches, as a token-bucket fill interval"`
}

// Default returns a Config populated with the defaults named throughout
// spec.md, before file/env overrides are applied.
func Default() *Config {
	return &Config{
		ServerConfig: ServerConfig{
			Port:                     8080,
			HttpClientTimeoutSeconds: 30,
		},
		DatabaseConfig: DatabaseConfig{
			MaxOpenConns:           20,
			MinIdleConns:           5,
			AcquireTimeoutSeconds:  60,
			IdleTimeoutSeconds:     30,
		},
		KVConfig: KVConfig{
			StoreType: "sql",
		},
		QueueConfig: QueueConfig{
			MaxDeliveryAttempts: 16,
		},
		ActivityPubConfig: ActivityPubConfig{
			MaxInboxReplyResolutionDepth: 32,
			FeedFanoutChunkSize:          1000,
			FollowingPageSize:            20,
			OutboxPageSize:               20,
			MaxAttachmentSize:            20 * units.Mebibyte,
		},
		DeliveryConfig: DeliveryConfig{
			JWKSRetryAttempts: 5,
		},
		MaintenanceConfig: MaintenanceConfig{
			MaxConcurrency:        4,
			PerRequestDelayMillis: 250,
		},
	}
}

// LoadFile reads an ini file on top of Default().
func LoadFile(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: loading %s: %w", path, err)
	}
	if err := f.MapTo(c); err != nil {
		return nil, fmt.Errorf("config: mapping %s: %w", path, err)
	}
	return c, nil
}

// ApplyEnv overlays the environment variables named in spec.md §6 onto
// c, in the teacher's generalize-from-file-then-env order.
func (c *Config) ApplyEnv() error {
	str := func(dst *string, name string) {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}
	boolean := func(dst *bool, name string) error {
		if v, ok := os.LookupEnv(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("config: %s: %w", name, err)
			}
			*dst = b
		}
		return nil
	}
	intval := func(dst *int, name string) error {
		if v, ok := os.LookupEnv(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("config: %s: %w", name, err)
			}
			*dst = n
		}
		return nil
	}

	str(&c.DatabaseConfig.Host, "MYSQL_HOST")
	if err := intval(&c.DatabaseConfig.Port, "MYSQL_PORT"); err != nil {
		return err
	}
	str(&c.DatabaseConfig.User, "MYSQL_USER")
	str(&c.DatabaseConfig.Password, "MYSQL_PASSWORD")
	str(&c.DatabaseConfig.DatabaseName, "MYSQL_DATABASE")
	str(&c.DatabaseConfig.SocketPath, "MYSQL_SOCKET_PATH")

	str(&c.KVConfig.RedisHost, "REDIS_HOST")
	if err := intval(&c.KVConfig.RedisPort, "REDIS_PORT"); err != nil {
		return err
	}
	str(&c.KVConfig.RedisTLSCertFile, "REDIS_TLS_CERT")
	str(&c.KVConfig.StoreType, "FEDIFY_KV_STORE_TYPE")

	if err := boolean(&c.QueueConfig.Enabled, "USE_MQ"); err != nil {
		return err
	}
	str(&c.QueueConfig.PubSubHost, "MQ_PUBSUB_HOST")
	str(&c.QueueConfig.ProjectID, "MQ_PUBSUB_PROJECT_ID")
	str(&c.QueueConfig.TopicName, "MQ_PUBSUB_TOPIC_NAME")
	str(&c.QueueConfig.RetryTopicName, "MQ_PUBSUB_RETRY_TOPIC_NAME")
	if err := boolean(&c.QueueConfig.UseRetryTopic, "MQ_PUBSUB_USE_RETRY_TOPIC"); err != nil {
		return err
	}
	if err := intval(&c.QueueConfig.MaxDeliveryAttempts, "MQ_PUBSUB_MAX_DELIVERY_ATTEMPTS"); err != nil {
		return err
	}
	str(&c.QueueConfig.PushToken, "MQ_PUBSUB_PUSH_TOKEN")

	if err := boolean(&c.ServerConfig.SkipSignatureVerification, "SKIP_SIGNATURE_VERIFICATION"); err != nil {
		return err
	}
	if err := boolean(&c.ServerConfig.AllowPrivateAddress, "ALLOW_PRIVATE_ADDRESS"); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: PORT: %w", err)
		}
		c.ServerConfig.Port = n
	}
	if v, ok := os.LookupEnv("GHOST_PRO_IP_ADDRESSES"); ok {
		c.ServerConfig.GhostProIPAddresses = splitNonEmpty(v, ",")
	}
	return nil
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
