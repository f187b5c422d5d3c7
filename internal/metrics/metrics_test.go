package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestResult(t *testing.T) {
	if got := Result(nil); got != "ok" {
		t.Errorf("Result(nil) = %q", got)
	}
	if got := Result(errors.New("boom")); got != "error" {
		t.Errorf("Result(err) = %q", got)
	}
}

func TestChainTxCounter(t *testing.T) {
	before := testutil.ToFloat64(ChainTx.WithLabelValues("mint_single", "OK"))
	ChainTx.WithLabelValues("mint_single", "OK").Inc()
	after := testutil.ToFloat64(ChainTx.WithLabelValues("mint_single", "OK"))
	if after-before != 1 {
		t.Errorf("counter delta = %v, want 1", after-before)
	}
}
