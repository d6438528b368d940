package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/slabmarket/settlement-service/internal/config"
	disputeuc "github.com/slabmarket/settlement-service/internal/usecase/dispute"
	escrowuc "github.com/slabmarket/settlement-service/internal/usecase/escrow"
	matchinguc "github.com/slabmarket/settlement-service/internal/usecase/matching"
	shipmentuc "github.com/slabmarket/settlement-service/internal/usecase/shipment"
	verificationuc "github.com/slabmarket/settlement-service/internal/usecase/verification"
)

type Handler struct {
	Matching     matchinguc.MatchingUsecase
	Escrow       escrowuc.EscrowUsecase
	Verification verificationuc.VerificationUsecase
	Shipments    shipmentuc.ShipmentUsecase
	Disputes     disputeuc.DisputeUsecase
}

func NewHandler(
	matching matchinguc.MatchingUsecase,
	escrow escrowuc.EscrowUsecase,
	verification verificationuc.VerificationUsecase,
	shipments shipmentuc.ShipmentUsecase,
	disputes disputeuc.DisputeUsecase) *Handler {

	return &Handler{
		Matching:     matching,
		Escrow:       escrow,
		Verification: verification,
		Shipments:    shipments,
		Disputes:     disputes,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	// Matching
	router.HandleFunc("/orders", h.PlaceOrder).Methods("POST")
	router.HandleFunc("/orders", h.ListOrders).Methods("GET")
	router.HandleFunc("/orders/{orderId}", h.GetOrder).Methods("GET")
	router.HandleFunc("/orders/{orderId}", h.CancelOrder).Methods("DELETE")
	router.HandleFunc("/orderbook/{cardId}", h.GetOrderBook).Methods("GET")

	// Trades and escrow
	router.HandleFunc("/trades", h.ListTrades).Methods("GET")
	router.HandleFunc("/trades/{tradeId}", h.GetTrade).Methods("GET")
	router.HandleFunc("/trades/{tradeId}/escrow", h.GetEscrow).Methods("GET")
	router.HandleFunc("/admin/trades/{tradeId}/release", h.ReleaseEscrow).Methods("POST")
	router.HandleFunc("/admin/trades/{tradeId}/cancel", h.CancelTrade).Methods("POST")

	// Card instances and verification
	router.HandleFunc("/cards/instances", h.RegisterCardInstance).Methods("POST")
	router.HandleFunc("/cards/instances/{instanceId}", h.GetCardInstance).Methods("GET")
	router.HandleFunc("/admin/verification/queue", h.VerificationQueue).Methods("GET")
	router.HandleFunc("/admin/verification/{instanceId}/claim", h.ClaimVerification).Methods("POST")
	router.HandleFunc("/admin/verification/{instanceId}/unclaim", h.UnclaimVerification).Methods("POST")
	router.HandleFunc("/admin/verification/{instanceId}/complete", h.CompleteVerification).Methods("POST")
	router.HandleFunc("/admin/certs/{gradingCompany}/{certNumber}", h.LookupCert).Methods("GET")

	// Shipments
	router.HandleFunc("/trades/{tradeId}/shipments", h.ListShipments).Methods("GET")
	router.HandleFunc("/admin/trades/{tradeId}/shipments", h.CreateShipment).Methods("POST")
	router.HandleFunc("/admin/shipments/{shipmentId}/status", h.UpdateShipmentStatus).Methods("POST")

	// Disputes
	router.HandleFunc("/trades/{tradeId}/disputes", h.OpenDispute).Methods("POST")
	router.HandleFunc("/disputes", h.ListDisputes).Methods("GET")
	router.HandleFunc("/disputes/{disputeId}", h.GetDispute).Methods("GET")
	router.HandleFunc("/admin/disputes/{disputeId}/resolve", h.ResolveDispute).Methods("POST")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")
}

// NewServer assembles the router with CORS, per-actor rate limiting and
// request logging.
func NewServer(cfg *config.SettlementConfig, handler *Handler) *http.Server {
	router := mux.NewRouter()
	handler.RegisterRoutes(router)

	limiter := newActorLimiter(cfg.Settlement.RateLimitPerActor, cfg.Settlement.RateLimitBurst)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", headerUserID, headerAdminID},
	})

	var root http.Handler = router
	root = limiter.Middleware(root)
	root = loggingMiddleware(root)
	root = c.Handler(root)

	return &http.Server{
		Addr:         cfg.HTTPServer.Host + ":" + cfg.HTTPServer.Port,
		Handler:      root,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
