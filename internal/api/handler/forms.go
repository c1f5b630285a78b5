package handler

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/condaura/portal/internal/core/domain"
)

type loginForm struct {
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required"`
}

func (f loginForm) credentials() domain.Credentials {
	return domain.Credentials{Email: f.Email, Password: f.Password}
}

type registerForm struct {
	Email           string `form:"email" json:"email" validate:"required,email"`
	FirstName       string `form:"first_name" json:"first_name" validate:"required"`
	LastName        string `form:"last_name" json:"last_name" validate:"required"`
	Department      string `form:"department" json:"department" validate:"required"`
	Password        string `form:"password" json:"password" validate:"required,min=8"`
	PasswordConfirm string `form:"password_confirm" json:"password_confirm" validate:"required,eqfield=Password"`
}

func (f registerForm) registration() domain.Registration {
	return domain.Registration{
		Email:           f.Email,
		Password:        f.Password,
		PasswordConfirm: f.PasswordConfirm,
		FirstName:       f.FirstName,
		LastName:        f.LastName,
		Department:      f.Department,
	}
}

type forgotPasswordForm struct {
	Email string `form:"email" json:"email" validate:"required,email"`
}

type resetPasswordForm struct {
	Token           string `form:"token" json:"token" validate:"required"`
	Password        string `form:"password" json:"password" validate:"required,min=8"`
	PasswordConfirm string `form:"password_confirm" json:"password_confirm" validate:"required,eqfield=Password"`
}

type campaignForm struct {
	Name             string   `form:"name" validate:"required"`
	Description      string   `form:"description"`
	StartDate        string   `form:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate          string   `form:"end_date" validate:"required,datetime=2006-01-02,afterdate=StartDate"`
	Department       string   `form:"department"`
	ResourceType     string   `form:"resource_type"`
	AccessLevel      string   `form:"access_level"`
	AssignmentMethod string   `form:"assignment_method" validate:"omitempty,oneof=manual manager resource_owner"`
	Reviewers        []string `form:"reviewers"`
}

func (f campaignForm) input() domain.CampaignInput {
	return domain.CampaignInput{
		Name:             f.Name,
		Description:      f.Description,
		StartDate:        f.StartDate,
		EndDate:          f.EndDate,
		Department:       f.Department,
		ResourceType:     f.ResourceType,
		AccessLevel:      f.AccessLevel,
		Reviewers:        f.Reviewers,
		AssignmentMethod: f.AssignmentMethod,
	}
}

type decisionForm struct {
	Decision string `form:"decision" validate:"required,oneof=Approved Revoked Deferred"`
	Comment  string `form:"comment"`
	Campaign int64  `form:"campaign"`
}

type bulkForm struct {
	Action    string  `form:"action" validate:"required,oneof=approve revoke"`
	ReviewIDs []int64 `form:"review_ids" validate:"min=1"`
	Comment   string  `form:"comment" validate:"required"`
	Campaign  int64   `form:"campaign"`
}

type reportFilterForm struct {
	Campaign   int64  `query:"campaign"`
	Department string `query:"department"`
	DateFrom   string `query:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo     string `query:"date_to" validate:"omitempty,datetime=2006-01-02"`
}

func (f reportFilterForm) filter() domain.ReviewFilter {
	return domain.ReviewFilter{
		CampaignID: f.Campaign,
		Department: f.Department,
		DateFrom:   f.DateFrom,
		DateTo:     f.DateTo,
	}
}

func (f reportFilterForm) query() url.Values {
	q := url.Values{}
	if f.Campaign > 0 {
		q.Set("campaign", strconv.FormatInt(f.Campaign, 10))
	}
	for k, v := range map[string]string{"department": f.Department, "date_from": f.DateFrom, "date_to": f.DateTo} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}

// asFieldErrors reports whether err is a validation failure.
func asFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// userMessage returns the backend's public message for err, or fallback.
func userMessage(err error, fallback string) string {
	var pe domain.PublicError
	if errors.As(err, &pe) {
		if msg := pe.PublicMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}
