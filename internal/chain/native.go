package chain

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// MethodSend is the native value transfer method.
const MethodSend = "send"

// SendArgs are the arguments of a native value transfer.
type SendArgs struct {
	To common.Address `json:"to"`
}

func applyNative(tx *Tx, method string, args json.RawMessage) (any, error) {
	switch method {
	case MethodSend:
		var a SendArgs
		if err := DecodeArgs(method, args, &a); err != nil {
			return nil, err
		}
		if err := tx.Transfer(tx.Caller(), a.To, tx.Value()); err != nil {
			return nil, err
		}
		tx.Emit("ValueTransfer", map[string]string{
			"from":  tx.Caller().Hex(),
			"to":    a.To.Hex(),
			"value": tx.Value().Dec(),
		})
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMethod, NativeContract, method)
	}
}
