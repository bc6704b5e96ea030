package config

type Network struct {
	Name     string
	ChainID  int
	RPCURL   string
	Explorer string
	Symbol   string
	Decimals int
}

var Networks = []Network{
	{Name: "Ethereum", ChainID: 1, RPCURL: "https://eth.llamarpc.com", Explorer: "https://etherscan.io/", Symbol: "ETH", Decimals: 18},
	{Name: "Optimism", ChainID: 10, RPCURL: "https://mainnet.optimism.io", Explorer: "https://optimistic.etherscan.io/", Symbol: "ETH", Decimals: 18},
	{Name: "BNB Chain", ChainID: 56, RPCURL: "https://bsc-dataseed.bnbchain.org", Explorer: "https://bscscan.com/", Symbol: "BNB", Decimals: 18},
	{Name: "Polygon", ChainID: 137, RPCURL: "https://polygon-rpc.com", Explorer: "https://polygonscan.com/", Symbol: "POL", Decimals: 18},
	{Name: "Base", ChainID: 8453, RPCURL: "https://mainnet.base.org", Explorer: "https://basescan.org/", Symbol: "ETH", Decimals: 18},
	{Name: "Arbitrum One", ChainID: 42161, RPCURL: "https://arb1.arbitrum.io/rpc", Explorer: "https://arbiscan.io/", Symbol: "ETH", Decimals: 18},
}

func NetworkByChainID(chainID int) (Network, bool) {
	for _, n := range Networks {
		if n.ChainID == chainID {
			return n, true
		}
	}
	return Network{}, false
}
