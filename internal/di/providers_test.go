package di

import (
	"testing"

	"creator-marketplace-service/internal/config"
)

func TestProvideHTTPServer(t *testing.T) {
	cfg := &config.Config{HTTPPort: "9999"}
	srv := provideHTTPServer(cfg, nil)
	if srv.Addr != ":9999" {
		t.Fatalf("unexpected addr: %s", srv.Addr)
	}
	if srv.ReadTimeout.Seconds() != 10 {
		t.Fatalf("unexpected read timeout: %v", srv.ReadTimeout)
	}
}

func TestProvideRouterDependencies(t *testing.T) {
	cfg := &config.Config{
		CORSAllowedOrigins:  []string{"http://localhost:3000"},
		AuthRateLimitPerMin: 10,
		APIRateLimitPerMin:  100,
		RateLimitFailOpen:   true,
	}
	dep := provideRouterDependencies(nil, nil, nil, nil, nil, nil, cfg)
	if dep.AuthRateLimitRPM != 10 || dep.APIRateLimitRPM != 100 {
		t.Fatalf("unexpected rate limits: %+v", dep)
	}
	if !dep.RateLimitFailOpen {
		t.Fatal("expected fail-open carried through")
	}
	if len(dep.CORSOrigins) != 1 || dep.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins: %+v", dep.CORSOrigins)
	}
	if dep.RateLimitKeyFunc == nil {
		t.Fatal("expected a rate limit key func")
	}
}

func TestProvideRedisClientDisabledWithoutAddr(t *testing.T) {
	if client := provideRedisClient(&config.Config{}); client != nil {
		t.Fatal("expected nil client without REDIS_ADDR")
	}
}
