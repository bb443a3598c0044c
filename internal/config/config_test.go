package config

import (
	"os"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.value)
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestRequireEnvInt(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		expected  int
		wantPanic bool
	}{
		{name: "valid integer", key: "TEST_INT", value: "42", expected: 42},
		{name: "invalid integer", key: "TEST_INT_INVALID", value: "not_a_number", wantPanic: true},
		{name: "missing variable", key: "TEST_INT_MISSING", value: "", wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnvInt() should have panicked")
					}
				}()
			}

			result := requireEnvInt(tt.key)
			if !tt.wantPanic && result != tt.expected {
				t.Errorf("requireEnvInt() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected []string
	}{
		{name: "empty", value: "", expected: nil},
		{name: "single value", value: "10.0.0.0/8", expected: []string{"10.0.0.0/8"}},
		{name: "spaces and quotes", value: ` "10.0.0.0/8", '192.168.1.4' `, expected: []string{"10.0.0.0/8", "192.168.1.4"}},
		{name: "only separators", value: " , ,", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseList(tt.value)
			if len(result) != len(tt.expected) {
				t.Fatalf("parseList() = %v, want %v", result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("parseList()[%d] = %v, want %v", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{name: "valid duration", key: "TEST_DURATION", value: "5s", def: time.Second, expected: 5 * time.Second},
		{name: "invalid duration uses default", key: "TEST_DURATION_INVALID", value: "invalid", def: 10 * time.Second, expected: 10 * time.Second},
		{name: "missing variable uses default", key: "TEST_DURATION_MISSING", value: "", def: 15 * time.Second, expected: 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{name: "true value", key: "TEST_BOOL", value: "true", def: false, expected: true},
		{name: "false value", key: "TEST_BOOL_FALSE", value: "false", def: true, expected: false},
		{name: "invalid value uses default", key: "TEST_BOOL_INVALID", value: "invalid", def: true, expected: true},
		{name: "missing variable uses default", key: "TEST_BOOL_MISSING", value: "", def: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APPDIR_KV_BACKEND", "APPDIR_LISTEN_PORT", "APPDIR_KV_PREFIX", "APPDIR_ADMIN_CIDRS", "APPDIR_LOG_LEVEL"} {
		if v, ok := os.LookupEnv(k); ok {
			t.Setenv(k, v) // restores the value after the test
			_ = os.Unsetenv(k)
		}
	}

	cfg := Load()
	if cfg.KVBackend != BackendSQLite {
		t.Errorf("KVBackend = %q, want %q", cfg.KVBackend, BackendSQLite)
	}
	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.KVPrefix != "appdir:" {
		t.Errorf("KVPrefix = %q, want appdir:", cfg.KVPrefix)
	}
	if cfg.AdminCIDRS != nil {
		t.Errorf("AdminCIDRS = %v, want nil", cfg.AdminCIDRS)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, redis settings must not load for the sqlite backend", cfg.RedisAddr)
	}
}

func TestLoadRedisBackend(t *testing.T) {
	t.Setenv("APPDIR_KV_BACKEND", "Redis")
	t.Setenv("APPDIR_REDIS_ADDR", "localhost:6379")
	t.Setenv("APPDIR_REDIS_DB", "2")
	t.Setenv("APPDIR_REDIS_PASSWORD", "secret")
	t.Setenv("APPDIR_ADMIN_CIDRS", "10.0.0.0/8,127.0.0.1")

	cfg := Load()
	if cfg.KVBackend != BackendRedis {
		t.Errorf("KVBackend = %q, want redis", cfg.KVBackend)
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 2 {
		t.Errorf("redis settings = %q db %d", cfg.RedisAddr, cfg.RedisDB)
	}
	if len(cfg.AdminCIDRS) != 2 {
		t.Errorf("AdminCIDRS = %v, want 2 entries", cfg.AdminCIDRS)
	}
}

func TestLoadPanics(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "unknown backend",
			env:  map[string]string{"APPDIR_KV_BACKEND": "etcd"},
		},
		{
			name: "redis without address",
			env:  map[string]string{"APPDIR_KV_BACKEND": "redis", "APPDIR_REDIS_ADDR": "", "APPDIR_REDIS_DB": "0"},
		},
		{
			name: "redis password required but empty",
			env: map[string]string{
				"APPDIR_KV_BACKEND":     "redis",
				"APPDIR_REDIS_ADDR":     "localhost:6379",
				"APPDIR_REDIS_DB":       "0",
				"APPDIR_REDIS_PASSWORD": "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Load() should have panicked")
				}
			}()
			Load()
		})
	}
}
