package dto

// ConnectResponse LinkedIn 授权跳转响应
type ConnectResponse struct {
	AuthURL string `json:"auth_url"`
}

// CallbackResponse LinkedIn 回调处理结果
type CallbackResponse struct {
	UserID    int64  `json:"user_id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Connected bool   `json:"connected"`
}

// UserStatusResponse 用户连接状态
type UserStatusResponse struct {
	UserID        int64  `json:"user_id"`
	Connected     bool   `json:"connected"`
	LinkedInName  string `json:"linkedin_name,omitempty"`
	LinkedInEmail string `json:"linkedin_email,omitempty"`
	ConnectedAt   string `json:"connected_at,omitempty"`
}

// SuggestionsResponse 选题建议响应
type SuggestionsResponse struct {
	UserID int64    `json:"user_id"`
	Topics []string `json:"topics"`
}
