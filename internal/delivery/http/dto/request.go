package dto

import "encoding/json"

type CreateSubjectRequest struct {
	Email string `json:"email"`
}

type ConnectCodeHostRequest struct {
	AccessToken string `json:"access_token"`
}

type JudgeHandleRequest struct {
	Handle string `json:"handle"`
}

// SelfReportRequest wraps the raw payload, e.g. {"payload": {"skills": ["Go"]}}.
type SelfReportRequest struct {
	Payload json.RawMessage `json:"payload"`
}

type RoleRequest struct {
	Role string `json:"role"`
}
