package result

import (
	"encoding/json"
)

// SendTx is returned by /tx/new.
type SendTx struct {
	OK   bool   `json:"ok"`
	TxID string `json:"txid"`
	Msg  string `json:"msg"`
}

// TxStatus is returned by /tx/status/{txid}, Res is nil while the
// transaction is pending.
type TxStatus struct {
	Res *TxResult `json:"res"`
}

// TxResult is the final status of a transaction. Error is set when the
// transaction failed, Res carries the node message then.
type TxResult struct {
	OK    bool            `json:"ok"`
	Error bool            `json:"error"`
	Res   json.RawMessage `json:"res,omitempty"`
	Block string          `json:"block,omitempty"`
}

// Message returns Res as a string. JSON strings are unquoted, other values
// are returned as is.
func (r *TxResult) Message() string {
	var s string
	if json.Unmarshal(r.Res, &s) == nil {
		return s
	}
	return string(r.Res)
}
