package httpapi

import (
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestSetMaxBodyBytes_DefaultWhenNonPositive(t *testing.T) {
	SetMaxBodyBytes(-1)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("expected default 1MiB, got %d", maxBodyBytes)
	}
	SetMaxBodyBytes(1234)
	if maxBodyBytes != 1234 {
		t.Fatalf("expected 1234, got %d", maxBodyBytes)
	}
	SetMaxBodyBytes(0)
}

func TestSetReadyTimeout_NormalizesNonPositive(t *testing.T) {
	SetReadyTimeout(-time.Second)
	if readyTimeout != 10*time.Second {
		t.Fatalf("expected default, got %s", readyTimeout)
	}
	SetReadyTimeout(3 * time.Second)
	if readyTimeout != 3*time.Second {
		t.Fatalf("expected 3s, got %s", readyTimeout)
	}
	SetReadyTimeout(0)
}

func TestSetThinkRate(t *testing.T) {
	defer SetThinkRate(2, 4)
	SetThinkRate(0, 0)
	if thinkRate != rate.Inf || thinkBurst != 1 {
		t.Fatalf("rate=%v burst=%d", thinkRate, thinkBurst)
	}
	SetThinkRate(5, 10)
	if thinkRate != 5 || thinkBurst != 10 {
		t.Fatalf("rate=%v burst=%d", thinkRate, thinkBurst)
	}
}
