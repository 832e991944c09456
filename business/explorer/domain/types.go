// Package domain contains the read models served by the indexer API.
package domain

import (
	"encoding/json"
	"time"
)

type Block struct {
	Number           uint64 `json:"number"`
	Hash             string `json:"hash"`
	ParentHash       string `json:"parent_hash"`
	Timestamp        int64  `json:"timestamp"`
	Miner            string `json:"miner,omitempty"`
	GasUsed          string `json:"gas_used"`
	GasLimit         string `json:"gas_limit"`
	BaseFeePerGas    string `json:"base_fee_per_gas,omitempty"`
	TransactionCount int    `json:"transaction_count"`
}

// Time is the chain-reported block time.
func (b Block) Time() time.Time {
	return time.Unix(b.Timestamp, 0)
}

type Transaction struct {
	Hash             string  `json:"hash"`
	BlockNumber      uint64  `json:"block_number"`
	BlockHash        string  `json:"block_hash"`
	TransactionIndex uint32  `json:"transaction_index"`
	From             string  `json:"from_address"`
	To               *string `json:"to_address"`
	Value            string  `json:"value"`
	GasPrice         string  `json:"gas_price"`
	GasUsed          string  `json:"gas_used"`
	Status           bool    `json:"status"`
	Input            string  `json:"input_data,omitempty"`
	ContractCreated  *string `json:"contract_created,omitempty"`
	Timestamp        int64   `json:"timestamp"`
}

// IsContractCreation reports a transaction without a recipient.
func (t Transaction) IsContractCreation() bool {
	return t.To == nil || *t.To == ""
}

type Address struct {
	Address    string `json:"address"`
	Balance    string `json:"balance"`
	TxCount    uint64 `json:"tx_count"`
	IsContract bool   `json:"is_contract"`
	FirstSeen  uint64 `json:"first_seen_block"`
}

type Token struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	TotalSupply string `json:"total_supply"`
	HolderCount uint64 `json:"holder_count"`
}

type TokenBalance struct {
	TokenAddress string `json:"contract_address"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Decimals     uint8  `json:"decimals"`
	Balance      string `json:"balance"`
}

type TokenHolder struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

type NFTCollection struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	TotalSupply uint64 `json:"total_supply"`
}

type NFTToken struct {
	Contract  string          `json:"contract_address"`
	TokenID   string          `json:"token_id"`
	Owner     string          `json:"owner"`
	TokenURI  string          `json:"token_uri,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	ImageURL  string          `json:"image_url,omitempty"`
	LastBlock uint64          `json:"last_transfer_block"`
}

type Log struct {
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	LogIndex    uint32   `json:"log_index"`
	TxHash      string   `json:"tx_hash"`
	BlockNumber uint64   `json:"block_number"`
}

type Label struct {
	Address string   `json:"address"`
	Name    string   `json:"name"`
	Tags    []string `json:"tags"`
}

type Proxy struct {
	ProxyAddress          string `json:"proxy_address"`
	ImplementationAddress string `json:"implementation_address"`
	ProxyType             string `json:"proxy_type"`
}

// Status is the indexer's progress report.
type Status struct {
	BlockHeight uint64    `json:"block_height"`
	IndexedAt   time.Time `json:"indexed_at"`
}
