package safeurl

import (
	"context"
	"errors"
	"net/netip"
	"strings"
	"testing"
)

type fakeResolver map[string][]string

func (f fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	addrs, ok := f[host]
	if !ok {
		return nil, errors.New("no such host")
	}
	return addrs, nil
}

func TestValidate(t *testing.T) {
	v := NewValidator(fakeResolver{
		"example.com":  {"93.184.216.34"},
		"intranet.lan": {"10.1.2.3"},
		"mixed.test":   {"93.184.216.34", "127.0.0.1"},
	})
	tests := []struct {
		url     string
		wantErr error
	}{
		{"https://example.com/page", nil},
		{"http://example.com/", nil},
		{"http://unresolvable.invalid/", nil},
		{"ftp://example.com/data", ErrUnsafeScheme},
		{"javascript:alert(1)", ErrUnsafeScheme},
		{"http://127.0.0.1/admin", ErrSSRF},
		{"http://10.0.0.1/internal", ErrSSRF},
		{"http://192.168.1.1/api", ErrSSRF},
		{"http://[::1]/api", ErrSSRF},
		{"http://0.0.0.0/", ErrSSRF},
		{"http://intranet.lan/", ErrSSRF},
		{"http://mixed.test/", ErrSSRF},
	}
	for _, tt := range tests {
		err := v.Validate(context.Background(), tt.url)
		if tt.wantErr == nil {
			if err != nil {
				t.Errorf("Validate(%q): unexpected error %v", tt.url, err)
			}
			continue
		}
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("Validate(%q): got %v, want %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestValidate_NoHost(t *testing.T) {
	if err := NewValidator(fakeResolver{}).Validate(context.Background(), "http:///path"); err == nil {
		t.Fatal("expected error for URL without host")
	}
}

func TestIsPrivate(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"127.0.0.1", true},
		{"::ffff:127.0.0.1", true},
		{"169.254.1.1", true},
		{"172.20.0.1", true},
		{"fd00::1", true},
		{"8.8.8.8", false},
		{"2606:4700::1111", false},
	}
	for _, tt := range tests {
		if got := IsPrivate(netip.MustParseAddr(tt.ip)); got != tt.want {
			t.Errorf("IsPrivate(%s): got %v, want %v", tt.ip, got, tt.want)
		}
	}
}

func TestLimitedReadAll(t *testing.T) {
	data, err := LimitedReadAll(strings.NewReader("hello"), 5)
	if err != nil || string(data) != "hello" {
		t.Fatalf("at limit: got %q, %v", data, err)
	}
	if _, err := LimitedReadAll(strings.NewReader("hello!"), 5); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("over limit: got %v, want ErrTooLarge", err)
	}
}
