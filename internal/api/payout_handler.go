package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"sangam-admin/internal/payout"
	"sangam-admin/pkg/models"

	"go.uber.org/zap"
)

// PayoutHandler обрабатывает HTTP запросы на выплаты посредникам
type PayoutHandler struct {
	payoutService *payout.Service
	apiToken      string
	logger        *zap.Logger
}

// NewPayoutHandler создает новый обработчик выплат
func NewPayoutHandler(payoutService *payout.Service, apiToken string, logger *zap.Logger) *PayoutHandler {
	return &PayoutHandler{
		payoutService: payoutService,
		apiToken:      apiToken,
		logger:        logger,
	}
}

// payoutRequest представляет тело запроса на вывод средств
type payoutRequest struct {
	MediatorID int64 `json:"mediator_id"`
}

// HandleRequestPayout обрабатывает запрос посредника на вывод средств
func (h *PayoutHandler) HandleRequestPayout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.authorized(r) {
		h.logger.Warn("запрос на выплату с неверным токеном")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req payoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("ошибка парсинга запроса на выплату", zap.Error(err))
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.MediatorID <= 0 {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	h.logger.Info("получен запрос на выплату", zap.Int64("mediator_id", req.MediatorID))

	result, err := h.payoutService.RequestPayout(r.Context(), req.MediatorID)
	if err != nil {
		if err == models.ErrNothingToPayout {
			// Пользовательская ошибка, не сбой: выводить нечего
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error": "нет доступного баланса для выплаты",
			})
			return
		}

		h.logger.Error("ошибка проведения выплаты",
			zap.Int64("mediator_id", req.MediatorID),
			zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleBalance возвращает текущий доступный баланс посредника
func (h *PayoutHandler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	mediatorID, err := strconv.ParseInt(r.URL.Query().Get("mediator_id"), 10, 64)
	if err != nil || mediatorID <= 0 {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	balance, err := h.payoutService.GetBalance(r.Context(), mediatorID)
	if err != nil {
		h.logger.Error("ошибка расчета баланса",
			zap.Int64("mediator_id", mediatorID),
			zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, balance)
}

// HandlePayoutHistory возвращает историю выплат посредника
func (h *PayoutHandler) HandlePayoutHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	mediatorID, err := strconv.ParseInt(r.URL.Query().Get("mediator_id"), 10, 64)
	if err != nil || mediatorID <= 0 {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	payouts, err := h.payoutService.GetPayouts(r.Context(), mediatorID)
	if err != nil {
		h.logger.Error("ошибка получения истории выплат",
			zap.Int64("mediator_id", mediatorID),
			zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, payouts)
}

// authorized проверяет токен административного API
func (h *PayoutHandler) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+h.apiToken
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
