package eth

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// FellasTokenABI is the subset of the FellasToken contract interface the
// backend talks to. The contract itself is deployed from its Hardhat artifact.
const FellasTokenABI = `[
	{"type":"function","name":"count","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getBalance","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"isContentOwned","stateMutability":"view","inputs":[{"name":"uri","type":"string"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"mintSingleFellas","stateMutability":"payable","inputs":[{"name":"recipient","type":"address"},{"name":"metadataURI","type":"string"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"whitelistMint","stateMutability":"payable","inputs":[{"name":"recipient","type":"address"},{"name":"metadataURI","type":"string"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"freeMint","stateMutability":"payable","inputs":[{"name":"recipient","type":"address"},{"name":"metadataURI","type":"string"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"mintMultiFellas","stateMutability":"payable","inputs":[{"name":"recipient","type":"address"},{"name":"metadataURIs","type":"string[]"},{"name":"quantity","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[
		{"name":"from","type":"address","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"tokenId","type":"uint256","indexed":true}
	]}
]`

var fellasABI = mustParseABI(FellasTokenABI)

// TransferEventID is keccak256("Transfer(address,address,uint256)").
var TransferEventID = fellasABI.Events["Transfer"].ID

// ParsedABI returns the parsed FellasToken interface.
func ParsedABI() abi.ABI {
	return fellasABI
}

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
