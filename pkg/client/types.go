package client

import (
	"encoding/json"
	"time"
)

// Receipt is the outcome of a submitted transaction.
type Receipt struct {
	Seq         uint64    `json:"seq"`
	Hash        string    `json:"hash"`
	Contract    string    `json:"contract"`
	Method      string    `json:"method"`
	Caller      string    `json:"caller"`
	Value       string    `json:"value"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	BlockNumber uint64    `json:"blockNumber"`
	Timestamp   time.Time `json:"timestamp"`
	Logs        []Log     `json:"logs"`
}

// Log is an event emitted by a transaction.
type Log struct {
	Index    int               `json:"index"`
	Contract string            `json:"contract"`
	Address  string            `json:"address"`
	Name     string            `json:"name"`
	Fields   map[string]string `json:"fields"`
}

// Pagination contains pagination info
type Pagination struct {
	Limit      int    `json:"limit"`
	HasMore    bool   `json:"hasMore"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// TokenDomain is the EIP-712 signing domain of the token.
type TokenDomain struct {
	Name              string `json:"name"`
	Version           string `json:"version"`
	ChainID           uint64 `json:"chainId"`
	VerifyingContract string `json:"verifyingContract"`
}

// TokenInfo summarizes the Zoppel token.
type TokenInfo struct {
	Address         string      `json:"address"`
	Name            string      `json:"name"`
	Symbol          string      `json:"symbol"`
	Decimals        uint8       `json:"decimals"`
	TotalSupply     string      `json:"totalSupply"`
	MaxSupply       string      `json:"maxSupply"`
	Owner           string      `json:"owner"`
	DomainSeparator string      `json:"domainSeparator"`
	Domain          TokenDomain `json:"eip712Domain"`
}

// Permit is a signed allowance. Amounts are decimal strings, R and S are
// 0x-prefixed 32-byte hex.
type Permit struct {
	Owner    string `json:"owner"`
	Spender  string `json:"spender"`
	Value    string `json:"value"`
	Deadline string `json:"deadline"`
	V        uint8  `json:"v"`
	R        string `json:"r"`
	S        string `json:"s"`
}

// CollectionInfo summarizes the artifact collection.
type CollectionInfo struct {
	Address       string `json:"address"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	BaseURI       string `json:"baseUri"`
	TotalSupply   uint64 `json:"totalSupply"`
	NextTokenID   uint64 `json:"nextTokenId"`
	StipendAmount string `json:"stipendAmount"`
	Balance       string `json:"balance"`
	Admin         string `json:"admin"`
}

// Artifact is a minted token.
type Artifact struct {
	ID       string `json:"id"`
	Owner    string `json:"owner"`
	URI      string `json:"uri"`
	Approved string `json:"approved,omitempty"`
}

// OwnedArtifacts lists the tokens of one owner.
type OwnedArtifacts struct {
	Owner   string   `json:"owner"`
	Balance uint64   `json:"balance"`
	IDs     []string `json:"ids"`
	URIs    []string `json:"uris"`
}

// ArtifactTransfer moves a token. Data requires Safe.
type ArtifactTransfer struct {
	From    string `json:"from"`
	To      string `json:"to"`
	TokenID string `json:"tokenId"`
	Safe    bool   `json:"safe,omitempty"`
	Data    string `json:"data,omitempty"`
}

// Account is the native state of an address.
type Account struct {
	Address  string `json:"address"`
	Balance  string `json:"balance"`
	Nonce    uint64 `json:"nonce"`
	Contract string `json:"contract,omitempty"`
}

// Head summarizes the chain.
type Head struct {
	ChainID      uint64            `json:"chainId"`
	BlockNumber  uint64            `json:"blockNumber"`
	BlockTime    time.Time         `json:"blockTime"`
	Transactions uint64            `json:"transactions"`
	Contracts    map[string]string `json:"contracts"`
}

// Transaction is a recorded transaction.
type Transaction struct {
	Seq         uint64          `json:"seq"`
	Hash        string          `json:"hash"`
	Contract    string          `json:"contract"`
	Method      string          `json:"method"`
	Caller      string          `json:"caller"`
	Value       string          `json:"value"`
	Args        json.RawMessage `json:"args,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Status      string          `json:"status"`
	Error       string          `json:"error,omitempty"`
	BlockNumber uint64          `json:"blockNumber"`
	Timestamp   time.Time       `json:"timestamp"`
	Events      []Event         `json:"events,omitempty"`
}

// Event is a recorded event.
type Event struct {
	TxSeq       uint64            `json:"txSeq"`
	TxHash      string            `json:"txHash"`
	LogIndex    int               `json:"logIndex"`
	BlockNumber uint64            `json:"blockNumber"`
	Timestamp   time.Time         `json:"timestamp"`
	Contract    string            `json:"contract"`
	Address     string            `json:"address"`
	Name        string            `json:"name"`
	Fields      map[string]string `json:"fields"`
}

// TransactionList is a page of transactions.
type TransactionList struct {
	Data       []Transaction `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// EventList is a page of events.
type EventList struct {
	Data       []Event    `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// TransactionQuery filters ListTransactions.
type TransactionQuery struct {
	Contract  string
	Method    string
	Caller    string
	Status    string
	Ascending bool
	Limit     int
	Cursor    string
}

// EventQuery filters ListEvents.
type EventQuery struct {
	Contract string
	Name     string
	TxHash   string
	Limit    int
	Cursor   string
}
