package handler

import (
	"time"

	"github.com/hourbank/timebank/internal/core/domain"
	"github.com/hourbank/timebank/internal/core/ports"
)

type signupRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
	Bio             string `json:"bio,omitempty" validate:"max=1000"`
	City            string `json:"city,omitempty" validate:"max=100"`
	Field           string `json:"field,omitempty" validate:"omitempty,oneof=tech education music healthcare cooking babysitting home-maintenance"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// updateMeRequest carries the self-editable profile fields. The password
// fields only exist to be refused.
type updateMeRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Bio             *string `json:"bio,omitempty" validate:"omitempty,max=1000"`
	City            *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Field           *string `json:"field,omitempty" validate:"omitempty,oneof=tech education music healthcare cooking babysitting home-maintenance"`
	Password        *string `json:"password,omitempty" swaggerignore:"true"`
	PasswordConfirm *string `json:"passwordConfirm,omitempty" swaggerignore:"true"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// adminUpdateUserRequest is the administrative edit. There is no credit
// field: credit only moves through order transactions.
type adminUpdateUserRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Bio   *string `json:"bio,omitempty" validate:"omitempty,max=1000"`
	City  *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Field *string `json:"field,omitempty" validate:"omitempty,oneof=tech education music healthcare cooking babysitting home-maintenance"`
	Role  *string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
}

type messageData struct {
	Message string `json:"message"`
}

// userResponse is an account as its owner or an admin sees it.
type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Credit    int64     `json:"credit"`
	Bio       string    `json:"bio,omitempty"`
	City      string    `json:"city,omitempty"`
	Field     string    `json:"field,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type userData struct {
	User userResponse `json:"user"`
}

type authData struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Credit:    u.Credit,
		Bio:       u.Bio,
		City:      u.City,
		Field:     u.Field,
		CreatedAt: u.CreatedAt,
	}
}

// memberResponse is the public directory entry. Email and credit stay private.
type memberResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio,omitempty"`
	City      string    `json:"city,omitempty"`
	Field     string    `json:"field,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type memberListData struct {
	Users      []memberResponse `json:"users"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

type profileData struct {
	User           memberResponse   `json:"user"`
	SentOrders     []orderResponse  `json:"sentOrders"`
	ReceivedOrders []orderResponse  `json:"receivedOrders"`
	Reviews        []reviewResponse `json:"reviews"`
}

func toMemberResponse(u *domain.User) memberResponse {
	return memberResponse{
		ID:        u.ID,
		Name:      u.Name,
		Bio:       u.Bio,
		City:      u.City,
		Field:     u.Field,
		CreatedAt: u.CreatedAt,
	}
}

func toMemberListData(res *ports.ListUsersResult) memberListData {
	users := make([]memberResponse, 0, len(res.Items))
	for _, u := range res.Items {
		users = append(users, toMemberResponse(u))
	}
	return memberListData{
		Users:      users,
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
	}
}

func toProfileData(p *ports.UserProfile) profileData {
	out := profileData{
		User:           toMemberResponse(p.User),
		SentOrders:     make([]orderResponse, 0, len(p.SentOrders)),
		ReceivedOrders: make([]orderResponse, 0, len(p.ReceivedOrders)),
		Reviews:        make([]reviewResponse, 0, len(p.Reviews)),
	}
	for i := range p.SentOrders {
		out.SentOrders = append(out.SentOrders, toOrderResponse(&p.SentOrders[i]))
	}
	for i := range p.ReceivedOrders {
		out.ReceivedOrders = append(out.ReceivedOrders, toOrderResponse(&p.ReceivedOrders[i]))
	}
	for i := range p.Reviews {
		out.Reviews = append(out.Reviews, toReviewResponse(&p.Reviews[i]))
	}
	return out
}
