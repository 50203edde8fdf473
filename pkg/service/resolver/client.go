package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/nswatch/pkg/domain/interfaces"
	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
	"github.com/secmon-lab/nswatch/pkg/utils/logging"
)

const (
	methodLookupName   = "nsx_lookupName"
	methodOwnedNames   = "nsx_ownedNames"
	methodResolveOwner = "nsx_resolveOwner"

	ownedNamesPageSize = 50

	httpTimeout   = 10 * time.Second
	retryAttempts = 4
)

// Client resolves name records over the name service's JSON-RPC endpoint.
// Transport failures surface as model.ErrLookupUnavailable: "unknown", never
// confirmed absence.
type Client struct {
	endpoint   string
	httpClient *http.Client
	requestID  atomic.Int64
}

var _ interfaces.RecordResolver = &Client{}

// Option is a functional option for Client configuration
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a resolver client for the given JSON-RPC endpoint
func New(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, goerr.New("resolver endpoint is required")
	}

	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: httpTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type recordPayload struct {
	Name          string `json:"name"`
	ExpiresAtMs   int64  `json:"expiresAtMs"`
	TargetAddress string `json:"targetAddress"`
	OwnerObjectID string `json:"ownerObjectId"`
}

func (p *recordPayload) toRecord() *model.Record {
	return &model.Record{
		Name:          types.TrackedName(p.Name),
		ExpiresAt:     time.UnixMilli(p.ExpiresAtMs).UTC(),
		TargetAddress: p.TargetAddress,
		OwnerObjectID: p.OwnerObjectID,
	}
}

// LookupByName resolves a single name record. Returns (nil, nil) when the
// service confirms the name is unregistered.
func (c *Client) LookupByName(ctx context.Context, name types.TrackedName) (*model.Record, error) {
	result, err := c.call(ctx, methodLookupName, []any{name.String()})
	if err != nil {
		return nil, err
	}
	if isNullResult(result) {
		return nil, nil
	}

	var payload recordPayload
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, goerr.Wrap(model.ErrLookupUnavailable, "malformed lookup result",
			goerr.V("name", name))
	}
	return payload.toRecord(), nil
}

// ListOwnedNames fetches every record owned by the address, draining all
// cursor pages before returning.
func (c *Client) ListOwnedNames(ctx context.Context, address string) ([]*model.Record, error) {
	var records []*model.Record
	cursor := ""

	for {
		params := []any{address, ownedNamesPageSize}
		if cursor != "" {
			params = append(params, cursor)
		}

		result, err := c.call(ctx, methodOwnedNames, params)
		if err != nil {
			return nil, err
		}

		var page struct {
			Records    []recordPayload `json:"records"`
			NextCursor string          `json:"nextCursor"`
		}
		if err := json.Unmarshal(result, &page); err != nil {
			return nil, goerr.Wrap(model.ErrLookupUnavailable, "malformed owned-names page",
				goerr.V("address", address))
		}

		for i := range page.Records {
			records = append(records, page.Records[i].toRecord())
		}

		if page.NextCursor == "" {
			return records, nil
		}
		cursor = page.NextCursor
	}
}

// ResolveOwner resolves the owning address of an object ID. Returns "" when
// no owner is found.
func (c *Client) ResolveOwner(ctx context.Context, objectID string) (string, error) {
	result, err := c.call(ctx, methodResolveOwner, []any{objectID})
	if err != nil {
		return "", err
	}
	if isNullResult(result) {
		return "", nil
	}

	var payload struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return "", goerr.Wrap(model.ErrLookupUnavailable, "malformed owner result",
			goerr.V("object_id", objectID))
	}
	return payload.Address, nil
}

// call performs one JSON-RPC round trip with bounded retry. A non-2xx status
// or transport error is retried with jittered backoff; a JSON-RPC error is
// not, since replaying the same request cannot change the answer.
func (c *Client) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal rpc request", goerr.V("method", method))
	}

	var result json.RawMessage
	err = retry.Do(
		func() error {
			res, doErr := c.roundTrip(ctx, reqBody)
			if doErr != nil {
				return doErr
			}
			result = res
			return nil
		},
		retry.Attempts(retryAttempts),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.MaxJitter(time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logging.From(ctx).Debug("retrying resolver call",
				"method", method, "attempt", n+1, "error", err.Error())
		}),
	)
	if err != nil {
		return nil, goerr.Wrap(model.ErrLookupUnavailable, "resolver call failed",
			goerr.V("method", method), goerr.V("cause", err.Error()))
	}
	return result, nil
}

func (c *Client) roundTrip(ctx context.Context, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, retry.Unrecoverable(goerr.Wrap(err, "failed to build request"))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "request failed")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("unexpected status", goerr.V("status", resp.StatusCode))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, goerr.Wrap(err, "failed to decode response")
	}
	if rpcResp.Error != nil {
		return nil, retry.Unrecoverable(goerr.New("rpc error",
			goerr.V("code", rpcResp.Error.Code), goerr.V("message", rpcResp.Error.Message)))
	}
	return rpcResp.Result, nil
}

func isNullResult(result json.RawMessage) bool {
	if len(result) == 0 {
		return true
	}
	return bytes.Equal(bytes.TrimSpace(result), []byte("null"))
}
