package rediscache

import (
	"testing"

	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

func TestNewRequiresAddr(t *testing.T) {
	if _, err := New(logger.Nop(), Config{}); err == nil {
		t.Fatalf("expected missing addr error")
	}
	if _, err := New(nil, Config{Addr: "localhost:6379"}); err == nil {
		t.Fatalf("expected logger required error")
	}
}

func TestKeyPrefix(t *testing.T) {
	s := &store{prefix: "notes"}
	if got := s.key("illustration:abc"); got != "notes:illustration:abc" {
		t.Fatalf("unexpected key: got=%q", got)
	}
}
