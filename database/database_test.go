package database

import (
	"testing"

	"tinyblog/pageviews/config"
)

func TestNewPostgresDBRejectsEmptyURL(t *testing.T) {
	if _, err := NewPostgresDB(""); err == nil {
		t.Fatalf("NewPostgresDB: expected error for empty url")
	}
}

func TestNewClickHouseDBRejectsEmptyHost(t *testing.T) {
	if _, err := NewClickHouseDB(config.ClickHouseConfig{Database: "blog"}); err == nil {
		t.Fatalf("NewClickHouseDB: expected error for empty host")
	}
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	if _, err := NewRedisClient("http://not-redis"); err == nil {
		t.Fatalf("NewRedisClient: expected error for non-redis scheme")
	}
}
