package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"sangam-admin/internal/policy"
	"sangam-admin/internal/promotion"
	"sangam-admin/internal/referral"
	"sangam-admin/pkg/models"

	"go.uber.org/zap"
)

// AdminHandler обрабатывает административные HTTP запросы:
// управление политиками выплат, промоакциями и рефералами
type AdminHandler struct {
	policyService    *policy.Service
	promotionService *promotion.Service
	referralService  *referral.Service
	apiToken         string
	logger           *zap.Logger
}

// NewAdminHandler создает новый административный обработчик
func NewAdminHandler(
	policyService *policy.Service,
	promotionService *promotion.Service,
	referralService *referral.Service,
	apiToken string,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		policyService:    policyService,
		promotionService: promotionService,
		referralService:  referralService,
		apiToken:         apiToken,
		logger:           logger,
	}
}

// HandlePolicies обрабатывает создание и получение политик выплат
func (h *AdminHandler) HandlePolicies(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		policies, err := h.policyService.GetPolicies(r.Context())
		if err != nil {
			h.logger.Error("ошибка получения политик выплат", zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, policies)
	case http.MethodPost:
		var req models.CreatePolicyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		created, err := h.policyService.CreatePolicy(r.Context(), &req)
		if err != nil {
			h.logger.Error("ошибка создания политики выплат", zap.Error(err))
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSetDefaultPolicy назначает политику политикой по умолчанию
func (h *AdminHandler) HandleSetDefaultPolicy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	policyID, err := strconv.ParseInt(r.URL.Query().Get("policy_id"), 10, 64)
	if err != nil || policyID <= 0 {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if err := h.policyService.SetDefaultPolicy(r.Context(), policyID); err != nil {
		h.logger.Error("ошибка назначения политики по умолчанию",
			zap.Int64("policy_id", policyID),
			zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandlePromotions обрабатывает подачу и получение промоакций посредника
func (h *AdminHandler) HandlePromotions(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		mediatorID, err := strconv.ParseInt(r.URL.Query().Get("mediator_id"), 10, 64)
		if err != nil || mediatorID <= 0 {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		promotions, err := h.promotionService.GetPromotions(r.Context(), mediatorID)
		if err != nil {
			h.logger.Error("ошибка получения промоакций",
				zap.Int64("mediator_id", mediatorID),
				zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, promotions)
	case http.MethodPost:
		var req models.CreatePromotionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		created, err := h.promotionService.SubmitPromotion(r.Context(), &req)
		if err != nil {
			h.logger.Error("ошибка подачи промоакции", zap.Error(err))
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleRefreshStats принудительно обновляет статистику промоакции
func (h *AdminHandler) HandleRefreshStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	promotionID, err := strconv.ParseInt(r.URL.Query().Get("promotion_id"), 10, 64)
	if err != nil || promotionID <= 0 {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if err := h.promotionService.RefreshStats(r.Context(), promotionID); err != nil {
		h.logger.Error("ошибка обновления статистики промоакции",
			zap.Int64("promotion_id", promotionID),
			zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// referralCodeResponse представляет ответ с реферальным кодом посредника
type referralCodeResponse struct {
	MediatorID   int64  `json:"mediator_id"`
	ReferralCode string `json:"referral_code"`
}

// HandleReferralCode выдает (или генерирует) реферальный код посредника
func (h *AdminHandler) HandleReferralCode(w http.ResponseWriter, r *http.Request) {
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

	code, err := h.referralService.GetOrGenerateReferralCode(r.Context(), mediatorID)
	if err != nil {
		h.logger.Error("ошибка получения реферального кода",
			zap.Int64("mediator_id", mediatorID),
			zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, referralCodeResponse{MediatorID: mediatorID, ReferralCode: code})
}

// referralEventRequest представляет событие реферальной программы
type referralEventRequest struct {
	ReferralCode   string `json:"referral_code,omitempty"`
	ReferredUserID int64  `json:"referred_user_id"`
	Event          string `json:"event"` // joined или purchased
}

// HandleReferralEvent регистрирует присоединение реферала или его покупку
func (h *AdminHandler) HandleReferralEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req referralEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.ReferredUserID <= 0 {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	var err error
	switch req.Event {
	case "joined":
		err = h.referralService.CreateReferral(r.Context(), req.ReferralCode, req.ReferredUserID)
	case "purchased":
		err = h.referralService.RecordPurchase(r.Context(), req.ReferredUserID)
	default:
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if err != nil {
		h.logger.Error("ошибка регистрации реферального события",
			zap.String("event", req.Event),
			zap.Int64("referred_user_id", req.ReferredUserID),
			zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReferralLedger возвращает сводку реферальных начислений посредника
func (h *AdminHandler) HandleReferralLedger(w http.ResponseWriter, r *http.Request) {
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

	ledger, err := h.referralService.GetLedger(r.Context(), mediatorID)
	if err != nil {
		h.logger.Error("ошибка получения реферальной сводки",
			zap.Int64("mediator_id", mediatorID),
			zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ledger)
}

// authorized проверяет токен административного API
func (h *AdminHandler) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+h.apiToken
}
