// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/partnerops/npcusync/cache"
	"github.com/partnerops/npcusync/cache/db/metric"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultTable      = "npcucache"
	defaultMaxRetries = 3
)

type Config struct {
	// Table holding cache entries, keyed on (namespace, id).
	Table string

	// Endpoint overrides the regional endpoint (local testing).
	Endpoint string

	Region     string
	MaxRetries int
	AccessKey  string
	SecretKey  string
}

// DynamoDB decorates the executor with metrics. It is the persistent cache
// tier used in deployments where restarts must not refetch the catalog.
type DynamoDB struct {
	tier     cache.S
	config   Config
	measures metric.Measures
}

var _ cache.S = (*DynamoDB)(nil)

// NewDynamoDB builds the DynamoDB-backed persistent tier.
func NewDynamoDB(config Config, measures metric.Measures) (cache.S, error) {
	validateConfig(&config)

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
		awsconfig.WithRetryMaxAttempts(config.MaxRetries),
	}
	if config.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKey, config.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, err
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
	})

	return &DynamoDB{
		tier:     &executor{c: client, tableName: config.Table, now: time.Now},
		config:   config,
		measures: measures,
	}, nil
}

func (s *DynamoDB) Push(ctx context.Context, e cache.Entry) error {
	err := s.tier.Push(ctx, e)
	s.count(cache.InsertType, err)
	return err
}

func (s *DynamoDB) Get(ctx context.Context, key cache.Key) (cache.Entry, error) {
	entry, err := s.tier.Get(ctx, key)
	s.count(cache.ReadType, err)
	return entry, err
}

func (s *DynamoDB) Delete(ctx context.Context, key cache.Key) (cache.Entry, error) {
	entry, err := s.tier.Delete(ctx, key)
	s.count(cache.DeleteType, err)
	return entry, err
}

func (s *DynamoDB) GetAll(ctx context.Context, namespace string) (map[string]cache.Entry, error) {
	entries, err := s.tier.GetAll(ctx, namespace)
	s.count(cache.ReadType, err)
	return entries, err
}

func (s *DynamoDB) DropNamespace(ctx context.Context, namespace string) error {
	err := s.tier.DropNamespace(ctx, namespace)
	s.count(cache.DeleteType, err)
	return err
}

func (s *DynamoDB) PurgeExpired(ctx context.Context) (int, error) {
	purged, err := s.tier.PurgeExpired(ctx)
	s.count(cache.DeleteType, err)
	if purged > 0 {
		s.measures.PurgedEntries.Add(float64(purged))
	}
	return purged, err
}

// count records the query outcome. A missing key is a normal read outcome,
// not a tier failure.
func (s *DynamoDB) count(queryType string, err error) {
	if err != nil {
		if _, notFound := err.(cache.KeyNotFoundError); !notFound {
			s.measures.QueryFailure.With(prometheus.Labels{cache.TypeLabel: queryType}).Add(1.0)
			return
		}
	}
	s.measures.QuerySuccess.With(prometheus.Labels{cache.TypeLabel: queryType}).Add(1.0)
}

func validateConfig(config *Config) {
	if config.Table == "" {
		config.Table = defaultTable
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = defaultMaxRetries
	}
}
