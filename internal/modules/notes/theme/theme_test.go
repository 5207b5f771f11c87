package theme

import (
	"errors"
	"testing"
	"time"
)

func TestWithForcedRestoresOnSuccess(t *testing.T) {
	s := NewState(Dark)
	var seen Theme
	if err := WithForced(s, Light, func(th Theme) error {
		seen = th
		return nil
	}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if seen != Light {
		t.Fatalf("unexpected forced theme: got=%v want=%v", seen, Light)
	}
	if got := s.Current(); got != Dark {
		t.Fatalf("theme not restored: got=%v want=%v", got, Dark)
	}
}

func TestWithForcedRestoresOnError(t *testing.T) {
	s := NewState(Dark)
	boom := errors.New("boom")
	if err := WithForced(s, Light, func(Theme) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("unexpected err: got=%v want=%v", err, boom)
	}
	if got := s.Current(); got != Dark {
		t.Fatalf("theme not restored: got=%v want=%v", got, Dark)
	}
}

func TestWithForcedRestoresOnPanic(t *testing.T) {
	s := NewState(Dark)
	func() {
		defer func() { _ = recover() }()
		_ = WithForced(s, Light, func(Theme) error { panic("capture crashed") })
	}()
	if got := s.Current(); got != Dark {
		t.Fatalf("theme not restored after panic: got=%v want=%v", got, Dark)
	}
	if s.Forced() {
		t.Fatalf("state still marked forced")
	}
}

func TestToggleAndParse(t *testing.T) {
	s := NewState("")
	if got := s.Current(); got != Default {
		t.Fatalf("unexpected default: got=%v want=%v", got, Default)
	}
	if got := s.Toggle(); got != Light {
		t.Fatalf("unexpected toggle: got=%v want=%v", got, Light)
	}
	if _, ok := Parse("sepia"); ok {
		t.Fatalf("expected unknown theme to be rejected")
	}
}

func TestWithForcedDoesNotBlockReaders(t *testing.T) {
	s := NewState(Dark)
	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- WithForced(s, Light, func(Theme) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	read := make(chan Theme, 1)
	go func() {
		s.Set(Light)
		s.Toggle()
		read <- s.Selected()
	}()
	select {
	case got := <-read:
		if got != Dark {
			t.Fatalf("selected got=%v want=%v", got, Dark)
		}
	case <-time.After(time.Second):
		t.Fatalf("Set/Toggle blocked while forced")
	}
	if got := s.Current(); got != Light {
		t.Fatalf("current while forced got=%v want=%v", got, Light)
	}
	if !s.Forced() {
		t.Fatalf("expected forced state")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("WithForced: %v", err)
	}
	if got := s.Current(); got != Dark {
		t.Fatalf("current after restore got=%v want=%v", got, Dark)
	}
}
