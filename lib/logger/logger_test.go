package logger

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestBuildEncoderConfig(t *testing.T) {
	cfg := viper.New()
	cfg.Set("encoderConfig.messageKey", "message")
	cfg.Set("encoderConfig.levelKey", "level")
	cfg.Set("encoderConfig.levelEncoder", "capitalColor")
	cfg.Set("encoderConfig.timeEncoder", "iso8601")
	cfg.Set("encoderConfig.durationEncoder", "string")
	cfg.Set("encoderConfig.callerEncoder", "short")

	encCfg := buildEncoderConfig(cfg)
	if encCfg.MessageKey != "message" || encCfg.LevelKey != "level" {
		t.Errorf("keys not carried: messageKey=%q levelKey=%q", encCfg.MessageKey, encCfg.LevelKey)
	}
	if encCfg.EncodeLevel == nil {
		t.Error("EncodeLevel not set from config")
	}
	if encCfg.EncodeTime == nil {
		t.Error("EncodeTime not set from config")
	}
	if encCfg.EncodeDuration == nil {
		t.Error("EncodeDuration not set from config")
	}
	if encCfg.EncodeCaller == nil {
		t.Error("EncodeCaller not set from config")
	}
}

func TestResolveOutputPaths(t *testing.T) {
	dir := t.TempDir()

	paths, err := resolveOutputPaths([]string{"stdout", dir})
	if err != nil {
		t.Fatalf("resolveOutputPaths() error = %v", err)
	}
	if paths[0] != "stdout" {
		t.Errorf("stdout entry rewritten to %q", paths[0])
	}
	if !strings.HasPrefix(paths[1], dir) || !strings.Contains(paths[1], "procwire_log-") {
		t.Errorf("directory entry resolved to %q, want a session file under %q", paths[1], dir)
	}

	// A second resolution in the same directory must not reuse the file.
	again, err := resolveOutputPaths([]string{dir})
	if err != nil {
		t.Fatalf("resolveOutputPaths() second call error = %v", err)
	}
	if again[0] == paths[1] {
		t.Errorf("second session resolved to the same file %q", again[0])
	}
}
