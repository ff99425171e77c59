package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// DefaultChainID is the chain id of the development genesis.
const DefaultChainID = 31337

// DevDeployer is the deployer of the development genesis.
const DevDeployer = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

// ErrInvalidGenesis is returned for a genesis file that fails validation.
var ErrInvalidGenesis = errors.New("invalid genesis")

// Genesis describes the initial state of the chain and the contracts
// deployed on an empty transaction log.
type Genesis struct {
	ChainID     uint64          `toml:"chain_id"`
	GenesisTime time.Time       `toml:"genesis_time"`
	Deployer    string          `toml:"deployer"`
	Alloc       []Allocation    `toml:"alloc"`
	Zoppel      ZoppelGenesis   `toml:"zoppel"`
	Artifacts   ArtifactGenesis `toml:"artifacts"`
}

// Allocation is a native balance credited at genesis.
type Allocation struct {
	Address string `toml:"address"`
	Balance string `toml:"balance"` // decimal wei
}

// ZoppelGenesis configures the token deploy.
type ZoppelGenesis struct {
	Deploy bool `toml:"deploy"`
}

// ArtifactGenesis configures the artifact generator deploy.
type ArtifactGenesis struct {
	Deploy       bool     `toml:"deploy"`
	Name         string   `toml:"name"`
	Symbol       string   `toml:"symbol"`
	BaseURI      string   `toml:"base_uri"`
	Stipend      string   `toml:"stipend,omitempty"` // decimal wei, empty for the default
	Minters      []string `toml:"minters,omitempty"`
	Marketplaces []string `toml:"marketplaces,omitempty"`
	Funding      string   `toml:"funding,omitempty"` // decimal wei sent by the deployer after deploy
}

// DevGenesis returns the genesis used when no file is configured: the
// deployer holds 10000 native units and both contracts are deployed.
func DevGenesis(chainID uint64) *Genesis {
	return &Genesis{
		ChainID:     chainID,
		GenesisTime: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Deployer:    DevDeployer,
		Alloc: []Allocation{
			{Address: DevDeployer, Balance: "10000000000000000000000"},
		},
		Zoppel: ZoppelGenesis{Deploy: true},
		Artifacts: ArtifactGenesis{
			Deploy:  true,
			Name:    "Artifacts",
			Symbol:  "ART",
			Funding: "10000000000000000000",
		},
	}
}

// LoadGenesis reads a TOML genesis file. A zero chain id falls back to
// chainID.
func LoadGenesis(path string, chainID uint64) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading genesis: %w", err)
	}
	var g Genesis
	if _, err := toml.Decode(string(data), &g); err != nil {
		return nil, fmt.Errorf("parsing genesis: %w", err)
	}
	if g.ChainID == 0 {
		g.ChainID = chainID
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Validate checks addresses and amounts.
func (g *Genesis) Validate() error {
	if g.ChainID == 0 {
		return fmt.Errorf("%w: chain_id is required", ErrInvalidGenesis)
	}
	if (g.Zoppel.Deploy || g.Artifacts.Deploy) && !common.IsHexAddress(g.Deployer) {
		return fmt.Errorf("%w: deployer %q is not an address", ErrInvalidGenesis, g.Deployer)
	}
	for _, a := range g.Alloc {
		if !common.IsHexAddress(a.Address) {
			return fmt.Errorf("%w: alloc address %q", ErrInvalidGenesis, a.Address)
		}
		if _, err := uint256.FromDecimal(a.Balance); err != nil {
			return fmt.Errorf("%w: alloc balance %q of %s", ErrInvalidGenesis, a.Balance, a.Address)
		}
	}
	for _, v := range []struct{ name, value string }{
		{"artifacts.stipend", g.Artifacts.Stipend},
		{"artifacts.funding", g.Artifacts.Funding},
	} {
		if v.value == "" {
			continue
		}
		if _, err := uint256.FromDecimal(v.value); err != nil {
			return fmt.Errorf("%w: %s %q", ErrInvalidGenesis, v.name, v.value)
		}
	}
	for _, list := range [][]string{g.Artifacts.Minters, g.Artifacts.Marketplaces} {
		for _, addr := range list {
			if !common.IsHexAddress(addr) {
				return fmt.Errorf("%w: artifacts account %q", ErrInvalidGenesis, addr)
			}
		}
	}
	return nil
}

// Balances returns the genesis allocation. Repeated addresses add up.
func (g *Genesis) Balances() map[common.Address]*uint256.Int {
	out := make(map[common.Address]*uint256.Int, len(g.Alloc))
	for _, a := range g.Alloc {
		amount, _ := uint256.FromDecimal(a.Balance)
		addr := common.HexToAddress(a.Address)
		if prev, ok := out[addr]; ok {
			amount = new(uint256.Int).Add(prev, amount)
		}
		out[addr] = amount
	}
	return out
}

// DeployerAddress returns the deployer.
func (g *Genesis) DeployerAddress() common.Address {
	return common.HexToAddress(g.Deployer)
}

// Addresses parses a validated address list.
func Addresses(list []string) []common.Address {
	out := make([]common.Address, len(list))
	for i, s := range list {
		out[i] = common.HexToAddress(s)
	}
	return out
}

// Amount parses a validated decimal amount. Empty is zero.
func Amount(s string) *uint256.Int {
	if s == "" {
		return new(uint256.Int)
	}
	v, _ := uint256.FromDecimal(s)
	return v
}
