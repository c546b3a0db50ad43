package api

import "github.com/khanghh/kmfa/internal/auth"

const APIVersion = "1.0"

type APIResponse struct {
	APIVersion string        `json:"apiVersion"`
	Data       any           `json:"data,omitempty"`
	Error      *APIErrorInfo `json:"error,omitempty"`
}

type APIErrorInfo struct {
	Code    int              `json:"code"`
	Status  string           `json:"status,omitempty"`
	Message string           `json:"message"`
	Errors  []APIErrorDetail `json:"errors,omitempty"`
}

type APIErrorDetail struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func NewDataResponse(data any) APIResponse {
	return APIResponse{
		APIVersion: APIVersion,
		Data:       data,
	}
}

func NewErrorResponse(code int, message string, details ...APIErrorDetail) APIResponse {
	return APIResponse{
		APIVersion: APIVersion,
		Error: &APIErrorInfo{
			Code:    code,
			Message: message,
			Errors:  details,
		},
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	MfaToken string `json:"mfaToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

type backupCodeRequest struct {
	Username   string `json:"username"`
	BackupCode string `json:"backupCode"`
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

type registerResponse struct {
	Profile auth.Profile `json:"profile"`
}

type messageResponse struct {
	Message string `json:"message"`
}
