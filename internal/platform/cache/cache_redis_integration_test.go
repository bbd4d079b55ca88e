//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"culturetrail/internal/platform/cache"
	"culturetrail/internal/platform/config"
	"culturetrail/internal/platform/redis"
	"culturetrail/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	container *containers.RedisContainer
	cache     *cache.Redis
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.container = containers.GetRedis(s.T())
	client, err := redis.New(config.RedisConfig{URL: s.container.URL})
	s.Require().NoError(err)
	s.Require().NotNil(client)
	s.cache = cache.NewRedis(client)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.container.Client.FlushAll(context.Background()).Err())
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (s *RedisCacheSuite) TestSetGetRoundTrip() {
	ctx := context.Background()
	s.Require().NoError(s.cache.SetJSON(ctx, "progress:u1", payload{Name: "summary", Count: 3}, time.Minute))

	var got payload
	s.Require().NoError(s.cache.GetJSON(ctx, "progress:u1", &got))
	s.Equal(payload{Name: "summary", Count: 3}, got)
}

func (s *RedisCacheSuite) TestMissingKeyIsMiss() {
	var got payload
	err := s.cache.GetJSON(context.Background(), "progress:nobody", &got)
	s.ErrorIs(err, cache.ErrMiss)
}

func (s *RedisCacheSuite) TestInvalidate() {
	ctx := context.Background()
	s.Require().NoError(s.cache.SetJSON(ctx, "leaderboard:2026-08", payload{Count: 1}, time.Minute))
	s.Require().NoError(s.cache.Invalidate(ctx, "leaderboard:2026-08"))

	var got payload
	s.ErrorIs(s.cache.GetJSON(ctx, "leaderboard:2026-08", &got), cache.ErrMiss)
}

func (s *RedisCacheSuite) TestCorruptEntryBehavesLikeMiss() {
	ctx := context.Background()
	s.Require().NoError(s.container.Client.Set(ctx, "progress:u1", "{not json", time.Minute).Err())

	var got payload
	s.ErrorIs(s.cache.GetJSON(ctx, "progress:u1", &got), cache.ErrMiss)
}
