package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONTRACT_ADDRESS", "0x5FbDB2315678afecb367f032d93F642f64180aa3")
	t.Setenv("CONTENT_ID", "QmTestCid")

	cfg := Load()

	if cfg.ContractAddress != "0x5FbDB2315678afecb367f032d93F642f64180aa3" {
		t.Errorf("ContractAddress = %q", cfg.ContractAddress)
	}
	if cfg.ContentID != "QmTestCid" {
		t.Errorf("ContentID = %q", cfg.ContentID)
	}
	if cfg.IPFSGateway != DefaultIPFSGateway {
		t.Errorf("IPFSGateway = %q, want %q", cfg.IPFSGateway, DefaultIPFSGateway)
	}
	if cfg.SlotsAhead != 2 {
		t.Errorf("SlotsAhead = %d, want 2", cfg.SlotsAhead)
	}
	if cfg.DefaultOfferETH != "0.0005" {
		t.Errorf("DefaultOfferETH = %q, want 0.0005", cfg.DefaultOfferETH)
	}
	if cfg.MaxMultiMint != 20 {
		t.Errorf("MaxMultiMint = %d, want 20", cfg.MaxMultiMint)
	}
	if cfg.IndexerPollInterval != 5*time.Second {
		t.Errorf("IndexerPollInterval = %v", cfg.IndexerPollInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("IPFS_GATEWAY", "https://ipfs.io/ipfs/")
	t.Setenv("SLOTS_AHEAD", "-3")
	t.Setenv("RECONCILE_CONCURRENCY", "0")
	t.Setenv("MAX_MULTI_MINT", "-1")
	t.Setenv("CHAIN_ID", "31337")
	t.Setenv("PENDING_TX_STALE_MINUTES", "not-a-number")

	cfg := Load()

	if cfg.IPFSGateway != "https://ipfs.io/ipfs" {
		t.Errorf("IPFSGateway trailing slash not trimmed: %q", cfg.IPFSGateway)
	}
	if cfg.SlotsAhead != 0 {
		t.Errorf("negative SlotsAhead should clamp to 0, got %d", cfg.SlotsAhead)
	}
	if cfg.ReconcileConcurrency != 1 {
		t.Errorf("ReconcileConcurrency = %d, want 1", cfg.ReconcileConcurrency)
	}
	if cfg.MaxMultiMint != 1 {
		t.Errorf("MaxMultiMint = %d, want 1", cfg.MaxMultiMint)
	}
	if cfg.ChainID != 31337 {
		t.Errorf("ChainID = %d", cfg.ChainID)
	}
	if cfg.PendingTxStaleAfter != 10*time.Minute {
		t.Errorf("invalid int should fall back, got %v", cfg.PendingTxStaleAfter)
	}
}

func TestHasSigner(t *testing.T) {
	cfg := &Config{}
	if cfg.HasSigner() {
		t.Fatal("empty config should have no signer")
	}
	cfg.SignerKeystore = "/tmp/key.json"
	if !cfg.HasSigner() {
		t.Fatal("keystore should count as signer")
	}
}
