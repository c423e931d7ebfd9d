package utils

import (
	"fmt"
	"sort"
	"sync"
)

// ChainInfo describes an EIP-155 chain a sign-in may target.
type ChainInfo struct {
	ChainID     int64  `json:"chain_id"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	ExplorerURL string `json:"explorer_url,omitempty"`
}

// ChainRegistry indexes known chains by EIP-155 chain ID.
type ChainRegistry struct {
	mu      sync.RWMutex
	byChain map[int64]*ChainInfo
}

// GlobalChainRegistry is pre-populated with well-known EVM chains.
// Deployments add their own through config (blockchain.networks).
var GlobalChainRegistry *ChainRegistry

func init() {
	GlobalChainRegistry = NewChainRegistry(
		&ChainInfo{ChainID: 1, Name: "Ethereum", Symbol: "ETH", ExplorerURL: "https://etherscan.io"},
		&ChainInfo{ChainID: 10, Name: "Optimism", Symbol: "ETH", ExplorerURL: "https://optimistic.etherscan.io"},
		&ChainInfo{ChainID: 56, Name: "BSC", Symbol: "BNB", ExplorerURL: "https://bscscan.com"},
		&ChainInfo{ChainID: 137, Name: "Polygon", Symbol: "POL", ExplorerURL: "https://polygonscan.com"},
		&ChainInfo{ChainID: 324, Name: "zkSync Era", Symbol: "ETH", ExplorerURL: "https://explorer.zksync.io"},
		&ChainInfo{ChainID: 8453, Name: "Base", Symbol: "ETH", ExplorerURL: "https://basescan.org"},
		&ChainInfo{ChainID: 42161, Name: "Arbitrum", Symbol: "ETH", ExplorerURL: "https://arbiscan.io"},
		&ChainInfo{ChainID: 43114, Name: "Avalanche", Symbol: "AVAX", ExplorerURL: "https://snowtrace.io"},
		&ChainInfo{ChainID: 11155111, Name: "Sepolia", Symbol: "ETH", ExplorerURL: "https://sepolia.etherscan.io"},
	)
}

func NewChainRegistry(chains ...*ChainInfo) *ChainRegistry {
	r := &ChainRegistry{byChain: make(map[int64]*ChainInfo, len(chains))}
	for _, chain := range chains {
		r.byChain[chain.ChainID] = chain
	}
	return r
}

// Register adds or replaces a chain.
func (r *ChainRegistry) Register(chain *ChainInfo) error {
	if chain == nil || chain.ChainID <= 0 {
		return fmt.Errorf("invalid chain registration")
	}
	if chain.Name == "" {
		return fmt.Errorf("chain %d has no name", chain.ChainID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byChain[chain.ChainID] = chain
	return nil
}

func (r *ChainRegistry) Get(chainID int64) (*ChainInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byChain[chainID]
	return info, ok
}

// Name returns the chain name, or "chain-<id>" for unregistered chains.
func (r *ChainRegistry) Name(chainID int64) string {
	if info, ok := r.Get(chainID); ok {
		return info.Name
	}
	return fmt.Sprintf("chain-%d", chainID)
}

// GetAllChains returns every registered chain ordered by chain ID.
func (r *ChainRegistry) GetAllChains() []*ChainInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chains := make([]*ChainInfo, 0, len(r.byChain))
	for _, chain := range r.byChain {
		chains = append(chains, chain)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i].ChainID < chains[j].ChainID })
	return chains
}
