package smrproxy

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().validate(); err != nil {
		t.Fatalf("DefaultConfig().validate() = %v, want nil", err)
	}
}

func TestValidateRejectsZeroQueueSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueSize = 0
	if err := cfg.validate(); err != ErrInvalidConfig {
		t.Fatalf("validate() = %v, want ErrInvalidConfig", err)
	}
}

func TestValidateRejectsOversizedQueue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueSize = 1 << 31
	if err := cfg.validate(); err != ErrInvalidConfig {
		t.Fatalf("validate() = %v, want ErrInvalidConfig", err)
	}
}

func TestValidateRejectsNonPowerOfTwoCachesize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cachesize = 100
	if err := cfg.validate(); err != ErrInvalidConfig {
		t.Fatalf("validate() = %v, want ErrInvalidConfig", err)
	}
}

func TestValidateAcceptsZeroCachesize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cachesize = 0
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate() = %v, want nil", err)
	}
}
