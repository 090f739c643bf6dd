package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	appContext "github.com/amezhanin/affilibot/internal/app/context"
	"github.com/amezhanin/affilibot/internal/app/logger"
	"github.com/amezhanin/affilibot/internal/app/service"
)

// PostbackHandler is the inbound trust boundary: the ad network reports a
// conversion here and the crediting engine decides what happens to the wallet.
type PostbackHandler struct {
	creditService  service.CreditService
	secret         string
	contextTimeout time.Duration
}

func NewPostbackHandler(contextTimeoutSec int, creditService service.CreditService, secret string) *PostbackHandler {
	return &PostbackHandler{
		creditService:  creditService,
		secret:         secret,
		contextTimeout: time.Duration(contextTimeoutSec) * time.Second,
	}
}

// Postback handles GET /postback?secret=...&user_id=...&campaign=...&txid=...
// (p1 is accepted as an alias for user_id).
//
// Business-rule blocks (caps, duplicates) answer 200 with a descriptive body
// so the network does not retry a legitimately blocked event; only transport
// and parameter problems get non-2xx codes.
func (ph *PostbackHandler) Postback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), ph.contextTimeout)
	defer cancel()

	q := r.URL.Query()
	if q.Get("secret") != ph.secret {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	// networks echo the p1 parameter embedded in tracking links; user_id is
	// the explicit form
	rawID := q.Get("user_id")
	if rawID == "" {
		rawID = q.Get("p1")
	}
	campaign := q.Get("campaign")
	if rawID == "" || campaign == "" {
		http.Error(w, "missing params", http.StatusBadRequest)
		return
	}
	telegramID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}
	txid := q.Get("txid")

	err = ph.creditService.Credit(ctx, telegramID, campaign, txid)
	if err != nil {
		ph.writeCreditError(w, r, err)
		return
	}

	if err = appContext.GetContextError(ctx); err != nil {
		PrepareError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

func (ph *PostbackHandler) writeCreditError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrCampaignNotFound), errors.Is(err, service.ErrCampaignInactive):
		http.Error(w, "campaign not found", http.StatusNotFound)
	case errors.Is(err, service.ErrDuplicateEvent):
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "blocked: duplicate")
	case errors.Is(err, service.ErrDailyCapReached):
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "blocked: daily cap reached")
	case errors.Is(err, service.ErrUserCapReached):
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "blocked: user cap reached")
	default:
		logger.Log.Error("postback failed",
			zap.String("query", r.URL.RawQuery),
			zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
