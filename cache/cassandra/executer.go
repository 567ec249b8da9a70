// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package cassandra

import (
	"context"
	"errors"

	"github.com/gocql/gocql"
	"github.com/hailocab/go-hostpool"
	"github.com/partnerops/npcusync/cache"
	"go.uber.org/zap"
)

type tierStore interface {
	cache.S
	Close()
	Ping() error
}

var (
	errNoDataResponse = errors.New("no data from query")
	errServerClosed   = errors.New("server is closed")
)

type cassandraExecutor struct {
	session *gocql.Session
	logger  *zap.Logger
}

func connect(clusterConfig *gocql.ClusterConfig, logger *zap.Logger) (tierStore, error) {
	clusterConfig.PoolConfig.HostSelectionPolicy = gocql.HostPoolHostPolicy(hostpool.New(nil))
	session, err := clusterConfig.CreateSession()
	if err != nil {
		return nil, err
	}
	return &cassandraExecutor{session: session, logger: logger}, nil
}

func (s *cassandraExecutor) Push(ctx context.Context, e cache.Entry) error {
	return s.session.Query("INSERT INTO npcucache (namespace, id, data) VALUES (?,?,?) USING TTL ?",
		e.Key.Namespace, e.Key.ID, e.Data, e.TTL).WithContext(ctx).Exec()
}

func (s *cassandraExecutor) Get(ctx context.Context, key cache.Key) (cache.Entry, error) {
	var (
		data []byte
		ttl  int64
	)
	iter := s.session.Query("SELECT data, ttl(data) FROM npcucache WHERE namespace = ? AND id = ?",
		key.Namespace, key.ID).WithContext(ctx).Iter()
	defer func() {
		if err := iter.Close(); err != nil {
			s.logger.Error("failed to close iter",
				zap.String("namespace", key.Namespace), zap.String("id", key.ID), zap.Error(err))
		}
	}()
	for iter.Scan(&data, &ttl) {
		return cache.Entry{Key: key, Data: data, TTL: ttl}, nil
	}
	return cache.Entry{}, errNoDataResponse
}

func (s *cassandraExecutor) Delete(ctx context.Context, key cache.Key) (cache.Entry, error) {
	entry, err := s.Get(ctx, key)
	if err != nil {
		return entry, err
	}
	err = s.session.Query("DELETE FROM npcucache WHERE namespace = ? AND id = ?",
		key.Namespace, key.ID).WithContext(ctx).Exec()
	return entry, err
}

func (s *cassandraExecutor) GetAll(ctx context.Context, namespace string) (map[string]cache.Entry, error) {
	result := map[string]cache.Entry{}
	var (
		id   string
		data []byte
		ttl  int64
	)
	iter := s.session.Query("SELECT id, data, ttl(data) FROM npcucache WHERE namespace = ?",
		namespace).WithContext(ctx).Iter()
	for iter.Scan(&id, &data, &ttl) {
		stored := make([]byte, len(data))
		copy(stored, data)
		result[id] = cache.Entry{Key: cache.Key{Namespace: namespace, ID: id}, Data: stored, TTL: ttl}
	}
	err := iter.Close()
	return result, err
}

func (s *cassandraExecutor) DropNamespace(ctx context.Context, namespace string) error {
	return s.session.Query("DELETE FROM npcucache WHERE namespace = ?", namespace).WithContext(ctx).Exec()
}

// PurgeExpired is a no-op: Cassandra expires rows server-side via USING TTL.
func (s *cassandraExecutor) PurgeExpired(context.Context) (int, error) {
	return 0, nil
}

func (s *cassandraExecutor) Close() {
	s.session.Close()
}

func (s *cassandraExecutor) Ping() error {
	if s.session.Closed() {
		return errServerClosed
	}
	return nil
}
