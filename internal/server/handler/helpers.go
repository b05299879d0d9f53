package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/dexwatch/internal/domain"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// addressParam extracts a named path parameter using Go 1.22+ built-in routing
// and parses it as a hex address. The second return is false when the value is
// missing or not a valid address.
func addressParam(r *http.Request, name string) (common.Address, bool) {
	v := r.PathValue(name)
	if v == "" || !common.IsHexAddress(v) {
		return common.Address{}, false
	}
	return common.HexToAddress(v), true
}

// orderView is the JSON shape of a decorated order or trade. Amounts are
// decimal strings to avoid float precision loss in consumers.
type orderView struct {
	ID          uint64 `json:"id"`
	User        string `json:"user"`
	UserFill    string `json:"user_fill,omitempty"`
	Side        string `json:"side"`
	EtherAmount string `json:"ether_amount"`
	TokenAmount string `json:"token_amount"`
	TokenPrice  string `json:"token_price"`
	Timestamp   int64  `json:"timestamp"`
	TimeLabel   string `json:"time_label"`
	PriceClass  string `json:"price_class,omitempty"`
	Sign        string `json:"sign,omitempty"`
}

func toOrderView(o domain.DecoratedOrder) orderView {
	v := orderView{
		ID:          o.ID,
		User:        o.User.Hex(),
		Side:        string(o.Side),
		EtherAmount: o.EtherAmount.String(),
		TokenAmount: o.TokenAmount.String(),
		TokenPrice:  o.TokenPrice.String(),
		Timestamp:   o.Timestamp,
		TimeLabel:   o.TimeLabel,
		PriceClass:  o.PriceClass,
		Sign:        o.Sign,
	}
	if o.UserFill != (common.Address{}) {
		v.UserFill = o.UserFill.Hex()
	}
	return v
}

func toOrderViews(orders []domain.DecoratedOrder) []orderView {
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toOrderView(o))
	}
	return views
}
