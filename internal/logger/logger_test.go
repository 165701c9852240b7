package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		level   zapcore.Level
		wantErr bool
	}{
		{"development", Options{Development: true}, zapcore.DebugLevel, false},
		{"production", Options{}, zapcore.InfoLevel, false},
		{"level override", Options{Level: "warn"}, zapcore.WarnLevel, false},
		{"console encoding", Options{Encoding: "console"}, zapcore.InfoLevel, false},
		{"bad level", Options{Level: "loud"}, 0, true},
		{"bad encoding", Options{Encoding: "xml"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("failed to create logger: %v", err)
			}
			if !log.Core().Enabled(tt.level) {
				t.Errorf("expected %s to be enabled", tt.level)
			}
			if tt.level > zapcore.DebugLevel && log.Core().Enabled(tt.level-1) {
				t.Errorf("expected %s to be disabled", tt.level-1)
			}
		})
	}
}

func TestMust(t *testing.T) {
	log := Must(Options{Development: true})
	if log == nil {
		t.Fatal("expected non-nil logger")
	}
	log.Info("test message")
}

func TestMust_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid options")
		}
	}()
	Must(Options{Level: "loud"})
}
