package utils

import (
	"net/http/httptest"
	"testing"
)

func TestParseHostNoPort(t *testing.T) {
	tests := map[string]string{
		"10.0.0.1:8080":    "10.0.0.1",
		"[::1]:8080":       "::1",
		"10.0.0.1":         "10.0.0.1",
		"apps.example.com": "apps.example.com",
		"":                 "",
	}
	for in, want := range tests {
		if got := ParseHostNoPort(in); got != want {
			t.Errorf("ParseHostNoPort(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", want: "192.0.2.1"},
		{name: "headers ignored without trust", headers: map[string]string{"X-Forwarded-For": "203.0.113.9"}, want: "192.0.2.1"},
		{name: "left-most forwarded hop", headers: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, trustProxy: true, want: "203.0.113.9"},
		{name: "cloudflare first", headers: map[string]string{"CF-Connecting-IP": "198.51.100.7", "X-Forwarded-For": "203.0.113.9"}, trustProxy: true, want: "198.51.100.7"},
		{name: "real ip last", headers: map[string]string{"X-Real-IP": "198.51.100.8"}, trustProxy: true, want: "198.51.100.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/apps", nil)
			r.RemoteAddr = "192.0.2.1:4242"
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIPMatcher(t *testing.T) {
	m, invalid := NewIPMatcher([]string{"10.0.0.0/8", " 192.168.1.4 ", "2001:db8::/32", "not-an-ip", ""})
	if len(invalid) != 1 || invalid[0] != "not-an-ip" {
		t.Errorf("invalid = %v", invalid)
	}
	if m.IsEmpty() {
		t.Fatal("matcher should not be empty")
	}

	tests := map[string]bool{
		"10.20.30.40":     true,
		"::ffff:10.1.1.1": true,
		"192.168.1.4":     true,
		"192.168.1.5":     false,
		"2001:db8::1":     true,
		"2001:db9::1":     false,
		"garbage":         false,
	}
	for ip, want := range tests {
		if got := m.Allow(ip); got != want {
			t.Errorf("Allow(%q) = %v, want %v", ip, got, want)
		}
	}

	empty, _ := NewIPMatcher(nil)
	if !empty.IsEmpty() {
		t.Error("nil list should build an empty matcher")
	}
}
