// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package cassandra

import (
	"context"
	"errors"
	"time"

	"emperror.dev/emperror"
	"github.com/gocql/gocql"
	"github.com/partnerops/npcusync/cache"
	"github.com/partnerops/npcusync/cache/db/metric"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultOpTimeout             = 10 * time.Second
	defaultDatabase              = "npcusync"
	defaultNumRetries            = 0
	defaultWaitTimeMult          = 1
	defaultMaxNumberConnsPerHost = 2
)

type Config struct {
	// Hosts to connect to. Must have at least one.
	Hosts []string

	// Database aka keyspace.
	Database string

	OpTimeout time.Duration

	// SSLRootCert, SSLKey and SSLCert enable TLS to the cluster; all three
	// must be set together.
	SSLRootCert string
	SSLKey      string
	SSLCert     string
	// EnableHostVerification verifies the hostname and server cert. It is
	// the inverse of InsecureSkipVerify.
	EnableHostVerification bool

	Username string
	Password string

	// NumRetries for connecting to the db.
	NumRetries int

	// WaitTimeMult scales the wait before each connection retry.
	WaitTimeMult time.Duration

	MaxConnsPerHost int
}

// Cassandra decorates the executor with metrics, mirroring the DynamoDB
// tier. Row expiry is delegated to the server (USING TTL).
type Cassandra struct {
	tier     tierStore
	config   Config
	logger   *zap.Logger
	measures metric.Measures
}

var _ cache.S = (*Cassandra)(nil)

// NewCassandra builds the Cassandra/Yugabyte-backed persistent tier and ties
// its session and ping loop to the fx lifecycle.
func NewCassandra(config Config, measures metric.Measures, lc fx.Lifecycle, logger *zap.Logger) (cache.S, error) {
	client, err := createClient(config, measures, logger)
	if err != nil {
		return nil, err
	}
	ticker := doEvery(5*time.Second, func(time.Time) {
		if err := client.Ping(); err != nil {
			logger.Error("ping failed", zap.Error(err))
		}
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			ticker.Stop()
			client.Close()
			return nil
		},
	})
	return client, nil
}

func doEvery(d time.Duration, f func(time.Time)) *time.Ticker {
	ticker := time.NewTicker(d)
	go func() {
		for x := range ticker.C {
			f(x)
		}
	}()
	return ticker
}

func createClient(config Config, measures metric.Measures, logger *zap.Logger) (*Cassandra, error) {
	if len(config.Hosts) == 0 {
		return nil, errors.New("number of hosts must be > 0")
	}
	validateConfig(&config)

	clusterConfig := gocql.NewCluster(config.Hosts...)
	clusterConfig.Consistency = gocql.LocalQuorum
	clusterConfig.Keyspace = config.Database
	clusterConfig.Timeout = config.OpTimeout
	clusterConfig.NumConns = config.MaxConnsPerHost
	// let the caller-side retry policy handle it
	clusterConfig.RetryPolicy = &gocql.SimpleRetryPolicy{NumRetries: 1}
	if config.SSLRootCert != "" && config.SSLCert != "" && config.SSLKey != "" {
		clusterConfig.SslOpts = &gocql.SslOptions{
			CertPath:               config.SSLCert,
			KeyPath:                config.SSLKey,
			CaPath:                 config.SSLRootCert,
			EnableHostVerification: config.EnableHostVerification,
		}
	}
	if config.Username != "" && config.Password != "" {
		clusterConfig.Authenticator = gocql.PasswordAuthenticator{
			Username: config.Username,
			Password: config.Password,
		}
	}

	session, err := connect(clusterConfig, logger)
	waitTime := time.Second
	for attempt := 0; attempt < config.NumRetries && err != nil; attempt++ {
		time.Sleep(waitTime)
		session, err = connect(clusterConfig, logger)
		waitTime = waitTime * config.WaitTimeMult
	}
	if err != nil {
		return nil, emperror.WrapWith(err, "connecting to database failed", "hosts", config.Hosts)
	}

	return &Cassandra{
		tier:     session,
		config:   config,
		logger:   logger,
		measures: measures,
	}, nil
}

func (s *Cassandra) Push(ctx context.Context, e cache.Entry) error {
	err := s.tier.Push(ctx, e)
	s.count(cache.InsertType, err)
	return err
}

func (s *Cassandra) Get(ctx context.Context, key cache.Key) (cache.Entry, error) {
	entry, err := s.tier.Get(ctx, key)
	if errors.Is(err, errNoDataResponse) {
		s.count(cache.ReadType, nil)
		return entry, cache.KeyNotFoundError{Key: key}
	}
	s.count(cache.ReadType, err)
	return entry, err
}

func (s *Cassandra) Delete(ctx context.Context, key cache.Key) (cache.Entry, error) {
	entry, err := s.tier.Delete(ctx, key)
	if errors.Is(err, errNoDataResponse) {
		s.count(cache.DeleteType, nil)
		return entry, cache.KeyNotFoundError{Key: key}
	}
	s.count(cache.DeleteType, err)
	return entry, err
}

func (s *Cassandra) GetAll(ctx context.Context, namespace string) (map[string]cache.Entry, error) {
	entries, err := s.tier.GetAll(ctx, namespace)
	s.count(cache.ReadType, err)
	return entries, err
}

func (s *Cassandra) DropNamespace(ctx context.Context, namespace string) error {
	err := s.tier.DropNamespace(ctx, namespace)
	s.count(cache.DeleteType, err)
	return err
}

func (s *Cassandra) PurgeExpired(ctx context.Context) (int, error) {
	return s.tier.PurgeExpired(ctx)
}

// Ping verifies that the connection is still good.
func (s *Cassandra) Ping() error {
	err := s.tier.Ping()
	if err != nil {
		s.count(cache.PingType, err)
		return emperror.Wrap(err, "pinging connection failed")
	}
	s.count(cache.PingType, nil)
	return nil
}

func (s *Cassandra) Close() {
	s.tier.Close()
}

func (s *Cassandra) count(queryType string, err error) {
	if err != nil {
		s.measures.QueryFailure.With(prometheus.Labels{cache.TypeLabel: queryType}).Add(1.0)
		return
	}
	s.measures.QuerySuccess.With(prometheus.Labels{cache.TypeLabel: queryType}).Add(1.0)
}

func validateConfig(config *Config) {
	if config.OpTimeout == 0 {
		config.OpTimeout = defaultOpTimeout
	}
	if config.Database == "" {
		config.Database = defaultDatabase
	}
	if config.NumRetries < 0 {
		config.NumRetries = defaultNumRetries
	}
	if config.WaitTimeMult < 1 {
		config.WaitTimeMult = defaultWaitTimeMult
	}
	if config.MaxConnsPerHost <= 0 {
		config.MaxConnsPerHost = defaultMaxNumberConnsPerHost
	}
}
