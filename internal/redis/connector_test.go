package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/appdir/internal/config"
	"github.com/MrSnakeDoc/appdir/internal/logger"
)

func TestNextWait(t *testing.T) {
	tests := []struct {
		name    string
		wait    time.Duration
		maxWait time.Duration
		want    time.Duration
	}{
		{name: "doubles", wait: time.Second, maxWait: 10 * time.Second, want: 2 * time.Second},
		{name: "capped", wait: 8 * time.Second, maxWait: 10 * time.Second, want: 10 * time.Second},
		{name: "stays at cap", wait: 10 * time.Second, maxWait: 10 * time.Second, want: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextWait(tt.wait, tt.maxWait); got != tt.want {
				t.Errorf("nextWait(%v, %v) = %v, want %v", tt.wait, tt.maxWait, got, tt.want)
			}
		})
	}
}

func validOptions() ConnectOptions {
	return ConnectOptions{
		Addr:           "127.0.0.1:1",
		ConnectTimeout: 200 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		DialTimeout:    50 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *ConnectOptions)
		wantErr string
	}{
		{name: "valid", mutate: func(o *ConnectOptions) {}},
		{name: "missing addr", mutate: func(o *ConnectOptions) { o.Addr = "" }, wantErr: "Addr"},
		{name: "zero connect timeout", mutate: func(o *ConnectOptions) { o.ConnectTimeout = 0 }, wantErr: "ConnectTimeout"},
		{name: "zero retry interval", mutate: func(o *ConnectOptions) { o.RetryInterval = 0 }, wantErr: "RetryInterval"},
		{name: "zero max wait", mutate: func(o *ConnectOptions) { o.MaxWait = 0 }, wantErr: "MaxWait"},
		{name: "zero ping timeout", mutate: func(o *ConnectOptions) { o.PingTimeout = 0 }, wantErr: "PingTimeout"},
		{name: "negative warn threshold", mutate: func(o *ConnectOptions) { o.WarnThreshold = -1 }, wantErr: "WarnThreshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOptions()
			tt.mutate(&o)
			err := o.validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validate() = %v, want error mentioning %s", err, tt.wantErr)
			}
		})
	}
}

func TestConnectGivesUpAfterTimeout(t *testing.T) {
	start := time.Now()
	client, err := Connect(context.Background(), validOptions(), logger.Nop())
	if err == nil {
		_ = client.Close()
		t.Fatal("Connect() to a closed port should fail")
	}
	if !strings.Contains(err.Error(), "redis unavailable at 127.0.0.1:1") {
		t.Errorf("Connect() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Connect() took %v, should stop near ConnectTimeout", elapsed)
	}
}

func TestConnectHonoursCancel(t *testing.T) {
	opts := validOptions()
	opts.ConnectTimeout = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Connect(ctx, opts, logger.Nop()); err == nil {
		t.Fatal("Connect() with a cancelled context should fail")
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		RedisAddr:           "redis:6379",
		RedisDB:             3,
		RedisPoolSize:       7,
		RedisConnectTimeout: time.Second,
	}
	o := OptionsFromConfig(cfg)
	if o.Addr != "redis:6379" || o.RedisDB != 3 || o.PoolSize != 7 || o.ConnectTimeout != time.Second {
		t.Errorf("OptionsFromConfig() = %+v", o)
	}
}
