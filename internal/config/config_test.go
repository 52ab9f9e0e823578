package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LEDGER_ADMIN_ID", "root")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AdminID != "root" || cfg.HTTPAddr != ":8080" || cfg.Store != StoreMemory || cfg.EventSink != SinkMemory {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.AmountScale != 2 || cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoad_RequiresAdmin(t *testing.T) {
	t.Setenv("LEDGER_ADMIN_ID", "")
	os.Unsetenv("LEDGER_ADMIN_ID")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error without LEDGER_ADMIN_ID")
	}
}

func TestLoad_ReadsEnvFileAndMissingFileIsFine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("LEDGER_ADMIN_ID=from-file\nLEDGER_KAFKA_BROKERS=a:1,b:2\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("LEDGER_ADMIN_ID", "")
	os.Unsetenv("LEDGER_ADMIN_ID")
	t.Setenv("LEDGER_KAFKA_BROKERS", "")
	os.Unsetenv("LEDGER_KAFKA_BROKERS")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AdminID != "from-file" || len(cfg.KafkaBrokers) != 2 {
		t.Fatalf("unexpected config %+v", cfg)
	}

	t.Setenv("LEDGER_ADMIN_ID", "env")
	if _, err := Load(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := Config{AdminID: "a", Store: StoreMemory, EventSink: SinkMemory}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	pg := base
	pg.Store = StorePostgres
	if err := pg.Validate(); err == nil {
		t.Fatalf("expected error for postgres without dsn")
	}

	sink := base
	sink.EventSink = "carrier-pigeon"
	if err := sink.Validate(); err == nil {
		t.Fatalf("expected error for unknown sink")
	}

	scale := base
	scale.AmountScale = -1
	if err := scale.Validate(); err == nil {
		t.Fatalf("expected error for negative scale")
	}
}
