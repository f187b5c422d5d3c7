package eth

import (
	"strings"
	"testing"
)

const testABI = `[{"type":"function","name":"count","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}]`

func TestParseArtifactHardhat(t *testing.T) {
	data := `{"contractName":"FellasToken","abi":` + testABI + `,"bytecode":"0x6080604052"}`

	art, err := ParseArtifact([]byte(data))
	if err != nil {
		t.Fatalf("ParseArtifact: %v", err)
	}
	if art.ContractName != "FellasToken" {
		t.Errorf("ContractName = %q", art.ContractName)
	}
	if _, ok := art.ABI.Methods["count"]; !ok {
		t.Error("count method missing from parsed abi")
	}
	if len(art.Bytecode) != 5 {
		t.Errorf("bytecode length = %d", len(art.Bytecode))
	}
}

func TestParseArtifactFoundry(t *testing.T) {
	data := `{"abi":` + testABI + `,"bytecode":{"object":"6080604052","sourceMap":""}}`

	art, err := ParseArtifact([]byte(data))
	if err != nil {
		t.Fatalf("ParseArtifact: %v", err)
	}
	if len(art.Bytecode) != 5 {
		t.Errorf("bytecode length = %d", len(art.Bytecode))
	}
}

func TestParseArtifactErrors(t *testing.T) {
	tests := map[string]string{
		"not json":       `nope`,
		"no abi":         `{"bytecode":"0x60"}`,
		"empty bytecode": `{"abi":` + testABI + `,"bytecode":"0x"}`,
		"bad bytecode":   `{"abi":` + testABI + `,"bytecode":"0xzz"}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseArtifact([]byte(data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFellasABIHasContractSurface(t *testing.T) {
	parsed := ParsedABI()
	for _, m := range []string{
		"count", "getBalance", "owner", "balanceOf", "tokenURI", "isContentOwned",
		"mintSingleFellas", "whitelistMint", "freeMint", "mintMultiFellas", "withdraw",
	} {
		if _, ok := parsed.Methods[m]; !ok {
			t.Errorf("method %s missing", m)
		}
	}
	if !parsed.Methods["mintSingleFellas"].IsPayable() {
		t.Error("mintSingleFellas must be payable")
	}
	if parsed.Methods["withdraw"].IsPayable() {
		t.Error("withdraw must not be payable")
	}
	if !strings.HasPrefix(FellasTokenABI, "[") {
		t.Error("abi must be a JSON array")
	}
}
