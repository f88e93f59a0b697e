package bridge

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Emmanuelluxury/vernwallet-sub002/internal/app/port"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/domain/entity"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// envelope is the wire shape every bridge response uses:
// {"success": bool, "data": ..., "message": "..."}.
type envelope struct {
	Success bool                `json:"success"`
	Data    jsoniter.RawMessage `json:"data"`
	Message string              `json:"message"`
}

type rewardsData struct {
	TotalRewards string `json:"totalRewards"`
}

// Client talks to the wallet-extension bridge over HTTP and implements
// port.WalletIntegration. It normalizes the success/data/message envelope
// into (T, error): success=false and transport failures both come back as
// *entity.BridgeError.
type Client struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a bridge client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, limit rate.Limit, burst int, logger *zap.Logger) *Client {
	return &Client{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.Named("BridgeClient"),
	}
}

var _ port.WalletIntegration = (*Client)(nil)

// GetUserBalances implements port.WalletIntegration.
func (c *Client) GetUserBalances(ctx context.Context, address string) ([]entity.Balance, error) {
	const op = "getUserBalances"
	data, err := c.get(ctx, op, fmt.Sprintf("/wallet/%s/balances", url.PathEscape(address)))
	if err != nil {
		return nil, err
	}
	var balances []entity.Balance
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &balances); err != nil {
			return nil, entity.NewBridgeError(op, "", fmt.Errorf("failed to decode balances: %w", err))
		}
	}
	return balances, nil
}

// GetTransactionHistory implements port.WalletIntegration.
func (c *Client) GetTransactionHistory(ctx context.Context, address string, limit int) ([]entity.Transaction, error) {
	const op = "getTransactionHistory"
	path := fmt.Sprintf("/wallet/%s/transactions?limit=%d", url.PathEscape(address), limit)
	data, err := c.get(ctx, op, path)
	if err != nil {
		return nil, err
	}
	var txs []entity.Transaction
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &txs); err != nil {
			return nil, entity.NewBridgeError(op, "", fmt.Errorf("failed to decode transactions: %w", err))
		}
	}
	return txs, nil
}

// GetStakingPosition implements port.WalletIntegration. A successful answer
// with empty data means the wallet holds no position for the token; that is
// reported as (nil, nil), not an error.
func (c *Client) GetStakingPosition(ctx context.Context, address, tokenAddress string) (*entity.StakingPosition, error) {
	const op = "getStakingPosition"
	path := fmt.Sprintf("/wallet/%s/staking/%s", url.PathEscape(address), url.PathEscape(tokenAddress))
	data, err := c.get(ctx, op, path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" || string(data) == "{}" {
		return nil, nil
	}
	var pos entity.StakingPosition
	if err := json.Unmarshal(data, &pos); err != nil {
		return nil, entity.NewBridgeError(op, "", fmt.Errorf("failed to decode staking position: %w", err))
	}
	if pos.TokenAddress == "" {
		pos.TokenAddress = tokenAddress
	}
	return &pos, nil
}

// GetStakingRewards implements port.WalletIntegration.
func (c *Client) GetStakingRewards(ctx context.Context, address string) (string, error) {
	const op = "getStakingRewards"
	data, err := c.get(ctx, op, fmt.Sprintf("/wallet/%s/rewards", url.PathEscape(address)))
	if err != nil {
		return "", err
	}
	var rewards rewardsData
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &rewards); err != nil {
			return "", entity.NewBridgeError(op, "", fmt.Errorf("failed to decode rewards: %w", err))
		}
	}
	return rewards.TotalRewards, nil
}

// ExecuteStake implements port.WalletIntegration.
func (c *Client) ExecuteStake(ctx context.Context, req entity.StakeRequest) error {
	_, err := c.post(ctx, "executeStake", "/staking/stake", req)
	return err
}

// ExecuteUnstake implements port.WalletIntegration.
func (c *Client) ExecuteUnstake(ctx context.Context, req entity.UnstakeRequest) error {
	_, err := c.post(ctx, "executeUnstake", "/staking/unstake", req)
	return err
}

// ExecuteClaimRewards implements port.WalletIntegration.
func (c *Client) ExecuteClaimRewards(ctx context.Context, req entity.ClaimRequest) error {
	_, err := c.post(ctx, "executeClaimRewards", "/staking/claim", req)
	return err
}

// Ping probes bridge reachability for the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "ping", "/health")
	return err
}

func (c *Client) get(ctx context.Context, op, path string) (jsoniter.RawMessage, error) {
	return c.do(ctx, op, fasthttp.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, op, path string, body any) (jsoniter.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, entity.NewBridgeError(op, "", fmt.Errorf("failed to encode request body: %w", err))
	}
	return c.do(ctx, op, fasthttp.MethodPost, path, payload)
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte) (jsoniter.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		metrics.BridgeRequests.WithLabelValues(op, "error").Inc()
		return nil, entity.NewBridgeError(op, "", err)
	}

	requestURL := c.baseURL + path
	c.logger.Debug("Requesting wallet bridge", zap.String("op", op), zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if body != nil {
		req.SetBody(body)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		metrics.BridgeRequests.WithLabelValues(op, "error").Inc()
		c.logger.Error("Bridge request failed", zap.String("op", op), zap.String("url", requestURL), zap.Error(err))
		return nil, entity.NewBridgeError(op, "", fmt.Errorf("request to %s failed: %w", requestURL, err))
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		metrics.BridgeRequests.WithLabelValues(op, "error").Inc()
		c.logger.Error("Bridge returned non-OK status",
			zap.String("op", op),
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()))
		return nil, entity.NewBridgeError(op, "",
			fmt.Errorf("request to %s returned status %d", requestURL, resp.StatusCode()))
	}

	var env envelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		metrics.BridgeRequests.WithLabelValues(op, "error").Inc()
		c.logger.Error("Failed to decode bridge envelope", zap.String("op", op), zap.Error(err))
		return nil, entity.NewBridgeError(op, "", fmt.Errorf("failed to decode response envelope: %w", err))
	}

	if !env.Success {
		metrics.BridgeRequests.WithLabelValues(op, "failure").Inc()
		c.logger.Warn("Bridge reported failure", zap.String("op", op), zap.String("message", env.Message))
		return nil, entity.NewBridgeError(op, env.Message, nil)
	}

	metrics.BridgeRequests.WithLabelValues(op, "success").Inc()
	return env.Data, nil
}
