package domain

// SearchResultType tags a search hit.
type SearchResultType string

const (
	SearchBlock       SearchResultType = "block"
	SearchTransaction SearchResultType = "transaction"
	SearchAddress     SearchResultType = "address"
	SearchToken       SearchResultType = "token"
	SearchNFT         SearchResultType = "nft"
	SearchLabel       SearchResultType = "label"
)

// SearchResult is one typed hit. Only the fields relevant to Type are set.
type SearchResult struct {
	Type    SearchResultType `json:"type"`
	Number  *uint64          `json:"number,omitempty"`
	Hash    string           `json:"hash,omitempty"`
	Address string           `json:"address,omitempty"`
	Name    string           `json:"name,omitempty"`
	Symbol  string           `json:"symbol,omitempty"`
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
}
