package ledger

import "encoding/json"

// envelope wraps every ledger response.
type envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type errorResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

type group struct {
	Name string `json:"name"`
}

type verification struct {
	Email  bool `json:"email"`
	Mobile bool `json:"mobile"`
}

type userResponse struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	Company      string       `json:"company"`
	Groups       []group      `json:"groups"`
	Verification verification `json:"verification"`
}

type currencyResponse struct {
	Code         string `json:"code"`
	DisplayCode  string `json:"display_code"`
	Description  string `json:"description"`
	Symbol       string `json:"symbol"`
	Unit         string `json:"unit"`
	Divisibility int    `json:"divisibility"`
}

type page[T any] struct {
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

type subtypeRequest struct {
	Name        string `json:"name"`
	TxType      string `json:"tx_type"`
	Description string `json:"description,omitempty"`
}

type subtypeResponse struct {
	ID          json.Number `json:"id"`
	Name        string      `json:"name"`
	TxType      string      `json:"tx_type"`
	Description string      `json:"description"`
}

type transactionRequest struct {
	User     string            `json:"user"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Status   string            `json:"status"`
	Subtype  string            `json:"subtype"`
	TxType   string            `json:"tx_type"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type transactionCollectionRequest struct {
	Transactions []transactionRequest `json:"transactions"`
}

type transactionResponse struct {
	ID string `json:"id"`
}

type transactionCollectionResponse struct {
	ID           string                `json:"id"`
	Transactions []transactionResponse `json:"transactions"`
}
