package payevents

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"verlo/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/stripe/stripe-go/v78/webhook"
)

// Stripe caps event payloads at 64KB; anything larger is not ours.
const maxBodyBytes = 65536

// HandleWebhook is the inbound webhook endpoint. Signature verification runs
// before any state is touched; transient store failures return 500 so the
// processor redelivers, and are never acknowledged as success.
func (p *Processor) HandleWebhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Println("HandleWebhook read error:", err)
		utils.RespondError(w, http.StatusBadRequest, "Unreadable payload")
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), p.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		// Security event: unauthentic or tampered delivery.
		log.Printf("HandleWebhook signature verification failed from %s: %v", r.RemoteAddr, err)
		utils.RespondError(w, http.StatusBadRequest, "Invalid signature")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if !p.markSeen(ctx, event.ID) {
		utils.RespondSuccess(w, http.StatusOK, utils.M{"received": true, "duplicate": true})
		return
	}

	if err := p.Process(ctx, event); err != nil {
		// Release the dedupe slot so the redelivery is processed, not
		// swallowed as a duplicate.
		p.unmarkSeen(event.ID)
		log.Printf("HandleWebhook: transient failure on %s (%s): %v", event.ID, event.Type, err)
		utils.RespondError(w, http.StatusInternalServerError, "Temporary failure, please retry")
		return
	}

	utils.RespondSuccess(w, http.StatusOK, utils.M{"received": true})
}
