package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	appContext "github.com/amezhanin/affilibot/internal/app/context"
	appErrors "github.com/amezhanin/affilibot/internal/app/errors"
	"github.com/amezhanin/affilibot/internal/app/models"
	"github.com/amezhanin/affilibot/internal/app/service"
)

const errMsgUnableReadBody = "Unable to read body"

// AdminHandler exposes the admin surface over HTTP: login, withdrawal
// decisions and campaign management. Decisions funnel into the same
// WithdrawalService as the chat buttons, so both surfaces serialize on one
// conditional status update.
type AdminHandler struct {
	withdrawalService service.WithdrawalService
	campaignService   service.CampaignService
	tokenService      service.TokenService
	adminLogin        string
	adminPasswordHash string
	adminID           int64
	contextTimeout    time.Duration
}

func NewAdminHandler(
	contextTimeoutSec int,
	withdrawalService service.WithdrawalService,
	campaignService service.CampaignService,
	tokenService service.TokenService,
	adminLogin string,
	adminPasswordHash string,
	adminID int64,
) *AdminHandler {
	return &AdminHandler{
		withdrawalService: withdrawalService,
		campaignService:   campaignService,
		tokenService:      tokenService,
		adminLogin:        adminLogin,
		adminPasswordHash: adminPasswordHash,
		adminID:           adminID,
		contextTimeout:    time.Duration(contextTimeoutSec) * time.Second,
	}
}

func (ah *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		PrepareError(w, appErrors.NewWithCode(err, errMsgUnableReadBody, http.StatusBadRequest))
		return
	}
	request := LoginRequestDTO{}
	if err = request.UnmarshalJSON(body); err != nil {
		PrepareError(w, appErrors.NewWithCode(err, "Unable to parse body", http.StatusBadRequest))
		return
	}

	if request.Login != ah.adminLogin ||
		bcrypt.CompareHashAndPassword([]byte(ah.adminPasswordHash), []byte(request.Password)) != nil {
		WriteJSONErrorResponse(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := ah.tokenService.GenerateToken(request.Login)
	if err != nil {
		PrepareError(w, err)
		return
	}
	response := LoginResponseDTO{Token: token}
	rawBytes, err := response.MarshalJSON()
	if err != nil {
		PrepareError(w, fmt.Errorf("unable to marshal response: %w", err))
		return
	}
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(rawBytes)
}

func (ah *AdminHandler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), ah.contextTimeout)
	defer cancel()

	status := models.WithdrawalStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.WithdrawalPending
	}
	withdrawals, err := ah.withdrawalService.ListByStatus(ctx, status)
	if err != nil {
		PrepareError(w, err)
		return
	}

	response := make(WithdrawalDTOSlice, 0, len(withdrawals))
	for _, item := range withdrawals {
		response = append(response, WithdrawalDTO{
			ID:          item.UUID.String(),
			TelegramID:  item.TelegramID,
			Amount:      item.Amount,
			Destination: item.Destination,
			Status:      item.Status.String(),
			CreatedAt:   item.CreatedAt,
		})
	}
	rawBytes, err := response.MarshalJSON()
	if err != nil {
		PrepareError(w, fmt.Errorf("unable to marshal response: %w", err))
		return
	}

	if err = appContext.GetContextError(ctx); err != nil {
		PrepareError(w, err)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(rawBytes)
}

func (ah *AdminHandler) DecideWithdrawal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), ah.contextTimeout)
	defer cancel()

	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteJSONErrorResponse(w, "Invalid request id", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		PrepareError(w, appErrors.NewWithCode(err, errMsgUnableReadBody, http.StatusBadRequest))
		return
	}
	request := DecisionRequestDTO{}
	if err = request.UnmarshalJSON(body); err != nil {
		PrepareError(w, appErrors.NewWithCode(err, "Unable to parse body", http.StatusBadRequest))
		return
	}
	decision := service.Decision(request.Decision)
	if decision != service.DecisionApprove && decision != service.DecisionReject {
		WriteJSONErrorResponse(w, "Decision must be approve or reject", http.StatusBadRequest)
		return
	}

	withdrawal, err := ah.withdrawalService.Decide(ctx, requestID, decision, ah.adminID)
	if err != nil {
		ah.writeDecideError(w, err)
		return
	}

	response := WithdrawalDTO{
		ID:          withdrawal.UUID.String(),
		TelegramID:  withdrawal.TelegramID,
		Amount:      withdrawal.Amount,
		Destination: withdrawal.Destination,
		Status:      withdrawal.Status.String(),
		CreatedAt:   withdrawal.CreatedAt,
	}
	rawBytes, err := response.MarshalJSON()
	if err != nil {
		PrepareError(w, fmt.Errorf("unable to marshal response: %w", err))
		return
	}
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(rawBytes)
}

func (ah *AdminHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), ah.contextTimeout)
	defer cancel()

	campaigns, err := ah.campaignService.List(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}

	response := make(CampaignDTOSlice, 0, len(campaigns))
	for _, item := range campaigns {
		response = append(response, CampaignDTO{
			Name:     item.Name,
			Type:     item.Type,
			Payout:   item.Payout,
			Link:     item.Link,
			Status:   item.Status.String(),
			DailyCap: item.DailyCap,
			UserCap:  item.UserCap,
		})
	}
	rawBytes, err := response.MarshalJSON()
	if err != nil {
		PrepareError(w, fmt.Errorf("unable to marshal response: %w", err))
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(rawBytes)
}

func (ah *AdminHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), ah.contextTimeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		PrepareError(w, appErrors.NewWithCode(err, errMsgUnableReadBody, http.StatusBadRequest))
		return
	}
	request := CreateCampaignRequestDTO{}
	if err = request.UnmarshalJSON(body); err != nil {
		PrepareError(w, appErrors.NewWithCode(err, "Unable to parse body", http.StatusBadRequest))
		return
	}
	if request.Name == "" || request.Link == "" || request.Payout < 0 {
		WriteJSONErrorResponse(w, "Invalid campaign definition", http.StatusBadRequest)
		return
	}

	campaign, err := ah.campaignService.Create(ctx, request.Name, request.Type, request.Payout,
		request.Link, request.DailyCap, request.UserCap)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateCampaign) {
			WriteJSONErrorResponse(w, "Campaign already exists", http.StatusConflict)
			return
		}
		PrepareError(w, err)
		return
	}

	response := CampaignDTO{
		Name:     campaign.Name,
		Type:     campaign.Type,
		Payout:   campaign.Payout,
		Link:     campaign.Link,
		Status:   campaign.Status.String(),
		DailyCap: campaign.DailyCap,
		UserCap:  campaign.UserCap,
	}
	rawBytes, err := response.MarshalJSON()
	if err != nil {
		PrepareError(w, fmt.Errorf("unable to marshal response: %w", err))
		return
	}
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(rawBytes)
}

func (ah *AdminHandler) writeDecideError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		WriteJSONErrorResponse(w, "Request not found", http.StatusNotFound)
	case errors.Is(err, service.ErrAlreadyDecided):
		WriteJSONErrorResponse(w, "Request already decided", http.StatusConflict)
	default:
		PrepareError(w, err)
	}
}
