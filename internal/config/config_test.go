package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("MAIL_DRIVER", "")
	t.Setenv("CORS_ORIGINS", " https://a.example.com , ,https://b.example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(cfg.JWTSecret) != developmentJWTSecret {
		t.Fatalf("expected development secret outside release mode")
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Fatalf("expected 24h token lifetime, got %v", cfg.JWTTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.Storage.Driver != "local" || cfg.Mail.Driver != "log" {
		t.Fatalf("unexpected drivers %q %q", cfg.Storage.Driver, cfg.Mail.Driver)
	}
	if cfg.NeedsAWS() {
		t.Fatalf("local storage and log mail need no AWS config")
	}
}

func TestLoadReleaseRequiresSecret(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error without JWT_SECRET in release mode")
	}

	t.Setenv("JWT_SECRET", "s3cr3t")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(cfg.JWTSecret) != "s3cr3t" {
		t.Fatalf("unexpected secret")
	}
}

func TestLoadRejectsBadDrivers(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("STORAGE_S3_BUCKET", "")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for s3 without bucket")
	}

	t.Setenv("STORAGE_DRIVER", "ftp")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unknown storage driver")
	}

	t.Setenv("STORAGE_DRIVER", "local")
	t.Setenv("MAIL_DRIVER", "smtp")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unknown mail driver")
	}
}

func TestLoadWorkflowPolicy(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("STORAGE_DRIVER", "local")
	t.Setenv("MAIL_DRIVER", "log")
	t.Setenv("WORKFLOW_REQUIRE_MANAGEMENT_SIGNATURE", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !cfg.Workflow.RequireManagementSignature || cfg.Workflow.RequirePurchasingRejectReason {
		t.Fatalf("unexpected policy %+v", cfg.Workflow)
	}
}
