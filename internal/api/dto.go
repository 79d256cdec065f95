package api

import (
	"time"

	"commerce-service/internal/models"
	"commerce-service/internal/service"

	"github.com/google/uuid"
)

// Required fields are pointers so that an absent field can be told apart
// from a zero value.

type signupRequest struct {
	Email    *string `json:"email" binding:"required"`
	Username *string `json:"username" binding:"required"`
	Password *string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username *string `json:"username" binding:"required"`
	Password *string `json:"password" binding:"required"`
}

type productRequest struct {
	Name        *string `json:"name" binding:"required"`
	Description *string `json:"description" binding:"required"`
	Category    *string `json:"category" binding:"required"`
	PriceCents  *int64  `json:"price_cents" binding:"required"`
	Currency    string  `json:"currency"`
}

type orderRequest struct {
	UserID *string            `json:"user_id" binding:"required"`
	Items  []orderItemRequest `json:"items" binding:"required,dive"`
}

type orderItemRequest struct {
	ProductID *string `json:"product_id" binding:"required"`
	Quantity  *int    `json:"quantity" binding:"required,min=1"`
}

func (r *orderRequest) toLines() (uuid.UUID, []service.OrderLine, error) {
	userID, err := parseUUID(*r.UserID, "user_id")
	if err != nil {
		return uuid.Nil, nil, err
	}

	lines := make([]service.OrderLine, 0, len(r.Items))
	for _, item := range r.Items {
		productID, err := parseUUID(*item.ProductID, "product_id")
		if err != nil {
			return uuid.Nil, nil, err
		}
		lines = append(lines, service.OrderLine{ProductID: productID, Quantity: *item.Quantity})
	}
	return userID, lines, nil
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}

type loginResponse struct {
	UserID           string `json:"user_id"`
	Token            string `json:"token"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
}

type productResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

func newProductResponse(p *models.Product) productResponse {
	return productResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		PriceCents:  p.PriceCents,
		Currency:    p.Currency,
		CreatedAt:   p.CreatedAt,
	}
}

func newProductResponses(products []models.Product) []productResponse {
	resp := make([]productResponse, 0, len(products))
	for i := range products {
		resp = append(resp, newProductResponse(&products[i]))
	}
	return resp
}

type orderItemResponse struct {
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

type orderResponse struct {
	ID         string              `json:"id"`
	UserID     string              `json:"user_id"`
	Status     string              `json:"status"`
	TotalCents int64               `json:"total_cents"`
	Currency   string              `json:"currency"`
	CreatedAt  time.Time           `json:"created_at"`
	Items      []orderItemResponse `json:"items"`
}

func newOrderResponse(o *models.Order, items []models.OrderItem) orderResponse {
	resp := orderResponse{
		ID:         o.ID.String(),
		UserID:     o.UserID.String(),
		Status:     o.Status,
		TotalCents: o.TotalCents,
		Currency:   o.Currency,
		CreatedAt:  o.CreatedAt,
		Items:      make([]orderItemResponse, 0, len(items)),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID:  item.ProductID.String(),
			Quantity:   item.Quantity,
			PriceCents: item.PriceCents,
		})
	}
	return resp
}

type recommendationsResponse struct {
	UserID   string            `json:"user_id"`
	Products []productResponse `json:"products"`
}
