package handler

import (
	"time"

	"github.com/hourbank/timebank/internal/core/ports"
)

type sendOrderRequest struct {
	Message string `json:"message,omitempty" validate:"max=2000"`
}

type respondOrderRequest struct {
	Message string `json:"message,omitempty" validate:"max=2000"`
}

type partyResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// orderResponse has no room for anything but a party's id and name.
type orderResponse struct {
	ID              string        `json:"id"`
	From            partyResponse `json:"from"`
	To              partyResponse `json:"to"`
	Status          string        `json:"status" example:"pending-approval"`
	SendDate        time.Time     `json:"sendDate"`
	ApproveDate     *time.Time    `json:"approveDate,omitempty"`
	RejectDate      *time.Time    `json:"rejectDate,omitempty"`
	TransactionDate *time.Time    `json:"transactionDate,omitempty"`
}

type orderData struct {
	Order orderResponse `json:"order"`
}

type orderListData struct {
	Orders     []orderResponse `json:"orders"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
}

func toOrderResponse(v *ports.OrderView) orderResponse {
	return orderResponse{
		ID:              v.ID,
		From:            partyResponse{ID: v.From.ID, Name: v.From.Name},
		To:              partyResponse{ID: v.To.ID, Name: v.To.Name},
		Status:          v.Status,
		SendDate:        v.SendDate,
		ApproveDate:     v.ApproveDate,
		RejectDate:      v.RejectDate,
		TransactionDate: v.TransactionDate,
	}
}

func toOrderListData(r *ports.ListOrdersResult) orderListData {
	orders := make([]orderResponse, 0, len(r.Items))
	for i := range r.Items {
		orders = append(orders, toOrderResponse(&r.Items[i]))
	}
	return orderListData{
		Orders:     orders,
		Total:      r.Total,
		Page:       r.Page,
		Limit:      r.Limit,
		TotalPages: r.TotalPages,
	}
}
