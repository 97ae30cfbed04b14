package postgres

import (
	"testing"
	"time"
)

func TestPoolConfigWithDefaults(t *testing.T) {
	got := PoolConfig{}.withDefaults()
	if got.MaxOpenConns != 20 || got.MaxIdleConns != 10 {
		t.Fatalf("conn defaults = %+v", got)
	}
	if got.ConnMaxLifetime != 30*time.Minute || got.ConnMaxIdleTime != 5*time.Minute {
		t.Fatalf("duration defaults = %+v", got)
	}

	set := PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxLifetime: time.Minute, ConnMaxIdleTime: time.Second}
	if got := set.withDefaults(); got != set {
		t.Fatalf("explicit values overridden: %+v", got)
	}
}
