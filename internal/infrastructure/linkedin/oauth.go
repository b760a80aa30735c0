// Package linkedin 提供 LinkedIn OIDC 授权客户端
package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"kaushal-ai-api/internal/config"
)

var tracer = otel.Tracer("linkedin")

// OAuthClient LinkedIn OAuth 客户端
type OAuthClient struct {
	config     *config.LinkedInConfig
	httpClient *http.Client
}

// TokenResponse 授权码换取令牌的响应
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
}

// UserInfo OIDC userinfo 端点返回的身份信息
type UserInfo struct {
	Sub        string `json:"sub"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	Email      string `json:"email,omitempty"`
	Picture    string `json:"picture,omitempty"`
}

// NewOAuthClient 创建 LinkedIn OAuth 客户端
func NewOAuthClient(cfg *config.LinkedInConfig) *OAuthClient {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OAuthClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// AuthURL 生成授权跳转地址
func (c *OAuthClient) AuthURL(state string) string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", c.config.ClientID)
	params.Set("redirect_uri", c.config.RedirectURI)
	params.Set("state", state)
	params.Set("scope", strings.Join(c.config.Scopes, " "))

	return c.config.AuthURL + "?" + params.Encode()
}

// ExchangeCode 用授权码换取访问令牌
func (c *OAuthClient) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	ctx, span := tracer.Start(ctx, "linkedin.ExchangeCode")
	defer span.End()

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.config.RedirectURI)
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("token exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token exchange returned empty access token")
	}
	return &token, nil
}

// FetchUserInfo 调用 OIDC userinfo 端点获取姓名与邮箱
func (c *OAuthClient) FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	ctx, span := tracer.Start(ctx, "linkedin.FetchUserInfo",
		trace.WithAttributes(attribute.String("linkedin.endpoint", c.config.UserinfoURL)))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.UserinfoURL, nil)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read userinfo response: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo fetch failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var info UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}
	return &info, nil
}
