package rudp

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxRetries != MaxRetries {
		t.Errorf("MaxRetries = %d, want %d", cfg.MaxRetries, MaxRetries)
	}
	if cfg.AckTimeout != AckTimeout {
		t.Errorf("AckTimeout = %v, want %v", cfg.AckTimeout, AckTimeout)
	}
	if cfg.RecvTimeout != RecvTimeout {
		t.Errorf("RecvTimeout = %v, want %v", cfg.RecvTimeout, RecvTimeout)
	}
	if cfg.Logger == nil {
		t.Error("Logger = nil, want a no-op logger")
	}
}

func TestConfigWithDefaults(t *testing.T) {
	var cfg Config
	cfg.MaxRetries = 3

	got := cfg.withDefaults()

	if got.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3 (explicit override preserved)", got.MaxRetries)
	}
	if got.AckTimeout != AckTimeout {
		t.Errorf("AckTimeout = %v, want default %v", got.AckTimeout, AckTimeout)
	}
	if got.RecvTimeout != RecvTimeout {
		t.Errorf("RecvTimeout = %v, want default %v", got.RecvTimeout, RecvTimeout)
	}
	if got.Logger == nil {
		t.Error("Logger = nil, want default no-op logger")
	}
}

func TestMSSAccountsForHeaders(t *testing.T) {
	const maxUDPPayload = 1<<16 - 1
	want := maxUDPPayload - ipv4HeaderSize - udpHeaderSize - HeaderSize
	if MSS != want {
		t.Errorf("MSS = %d, want %d", MSS, want)
	}
}
