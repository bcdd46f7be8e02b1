/*
Package rpcclient implements a client for the node REST API used to submit
transactions, query their status and fetch blocks and network settings.
*/
package rpcclient

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/thepower/tpgo/pkg/core/block"
	"github.com/thepower/tpgo/pkg/rpcclient/result"
	"github.com/thepower/tpgo/pkg/txerr"
	"go.uber.org/zap"
)

const (
	defaultDialTimeout    = 4 * time.Second
	defaultRequestTimeout = 4 * time.Second
	// maxResponseSize limits the size of any response body.
	maxResponseSize = 16 << 20
)

// Client is a node REST API client. It's thread-safe and can be used from
// multiple goroutines.
type Client struct {
	cli      *http.Client
	endpoint *url.URL
	opts     Options
	log      *zap.Logger
}

// Options defines options for the client. All values are optional. If any
// duration is not specified, a default of 4 seconds is used.
type Options struct {
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	// Limit total number of connections per host. No limit by default.
	MaxConnsPerHost int
	// Chain is used to pick quorum settings for block verification, if it's
	// zero the chain from the block header is used.
	Chain uint64
	// SignaturePolicy defines how repeated validator signatures are counted.
	SignaturePolicy block.SignaturePolicy
	Logger          *zap.Logger
}

// New returns a new Client ready to use. Endpoint is the API base URL like
// http://localhost:1080/api.
func New(endpoint string, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: endpoint: %w", txerr.ErrConfiguration, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported endpoint scheme %q", txerr.ErrConfiguration, u.Scheme)
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cli: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: opts.DialTimeout,
				}).DialContext,
				MaxConnsPerHost: opts.MaxConnsPerHost,
			},
			Timeout: opts.RequestTimeout,
		},
		endpoint: u,
		opts:     opts,
		log:      log,
	}, nil
}

// Close closes unused underlying network connections.
func (c *Client) Close() {
	c.cli.CloseIdleConnections()
}

// Endpoint returns the API base URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

func (c *Client) url(path ...string) string {
	parts := make([]string, len(path))
	for i := range path {
		parts[i] = url.PathEscape(path[i])
	}
	return c.endpoint.String() + "/" + strings.Join(parts, "/")
}

// do performs the request and returns response body (which is also returned
// along with HTTPError). call is the name used for metrics and logs.
func (c *Client) do(ctx context.Context, call string, method string, u string, body []byte) ([]byte, error) {
	start := time.Now()
	data, err := c.doRequest(ctx, method, u, body)
	observeRequest(call, time.Since(start), err)
	if err != nil {
		c.log.Debug("request failed", zap.String("call", call), zap.String("url", u), zap.Error(err))
		return data, fmt.Errorf("%s: %w", call, err)
	}
	return data, nil
}

func (c *Client) doRequest(ctx context.Context, method string, u string, body []byte) ([]byte, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return data, &HTTPError{Code: resp.StatusCode, Body: data}
	}
	return data, nil
}

// HTTPError is returned for non-200 responses.
type HTTPError struct {
	Code int
	Body []byte
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d/%s", e.Code, http.StatusText(e.Code))
}

func (c *Client) getJSON(ctx context.Context, call string, u string, v any) error {
	data, err := c.do(ctx, call, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w: JSON decoding: %w", call, txerr.ErrEncoding, err)
	}
	return nil
}

// GetBlock returns the block with the given hash, "last" can be used to get
// the latest one.
func (c *Client) GetBlock(ctx context.Context, hash string) (*result.Block, error) {
	var resp result.BlockResponse
	if err := c.getJSON(ctx, "block", c.url("block", hash), &resp); err != nil {
		return nil, err
	}
	if resp.Block == nil {
		return nil, fmt.Errorf("block %s: %w: no block in response", hash, txerr.ErrEncoding)
	}
	return resp.Block, nil
}

// GetLastBlock returns the latest block.
func (c *Client) GetLastBlock(ctx context.Context) (*result.Block, error) {
	return c.GetBlock(ctx, "last")
}

// GetBinBlock returns binary encoded block with the given hash.
func (c *Client) GetBinBlock(ctx context.Context, hash string) ([]byte, error) {
	return c.do(ctx, "binblock", http.MethodGet, c.url("binblock", hash), nil)
}

// GetSettings returns current network settings.
func (c *Client) GetSettings(ctx context.Context) (*result.Settings, error) {
	var resp result.SettingsResponse
	if err := c.getJSON(ctx, "settings", c.url("settings"), &resp); err != nil {
		return nil, err
	}
	return &resp.Settings, nil
}

// SendTx submits base64-encoded envelope and returns its id. A response with
// ok=false produces txerr.RejectionError with the node message.
func (c *Client) SendTx(ctx context.Context, tx string) (string, error) {
	req, err := json.Marshal(map[string]string{"tx": tx})
	if err != nil {
		return "", err
	}
	data, err := c.do(ctx, "tx_new", http.MethodPost, c.url("tx", "new"), req)
	var (
		res    result.SendTx
		decErr = json.Unmarshal(data, &res)
	)
	// Node explanation is more relevant than HTTP code.
	if decErr == nil && !res.OK && (err == nil || res.Msg != "") {
		return "", txerr.Reject(res.Msg)
	}
	if err != nil {
		return "", err
	}
	if decErr != nil {
		return "", fmt.Errorf("tx_new: %w: JSON decoding: %w", txerr.ErrEncoding, decErr)
	}
	if res.TxID == "" {
		return "", fmt.Errorf("tx_new: %w: no txid", txerr.ErrEncoding)
	}
	return res.TxID, nil
}

// GetTxStatus returns transaction status, its Res is nil for pending
// transactions.
func (c *Client) GetTxStatus(ctx context.Context, txid string) (*result.TxStatus, error) {
	var st result.TxStatus
	if err := c.getJSON(ctx, "tx_status", c.url("tx", "status", txid), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// GetCode returns contract code of the address.
func (c *Client) GetCode(ctx context.Context, address []byte) ([]byte, error) {
	return c.do(ctx, "code", http.MethodGet, c.url("address", strings.ToUpper(hex.EncodeToString(address)), "code"), nil)
}

// VerifyBlock fetches the block and network settings and checks the block
// has enough valid validator signatures. It returns the number of counted
// signatures.
func (c *Client) VerifyBlock(ctx context.Context, hash string) (int, error) {
	raw, err := c.GetBinBlock(ctx, hash)
	if err != nil {
		return 0, err
	}
	b, err := block.DecodeBinary(raw)
	if err != nil {
		return 0, err
	}
	s, err := c.GetSettings(ctx)
	if err != nil {
		return 0, err
	}
	chain := c.opts.Chain
	if chain == 0 {
		chain = b.Header.Chain
	}
	minSig, err := s.MinSig(chain)
	if err != nil {
		return 0, err
	}
	keys, err := s.ValidatorKeys()
	if err != nil {
		return 0, err
	}
	n, err := b.Verify(block.NewValidatorSet(keys...), minSig, c.opts.SignaturePolicy)
	c.log.Debug("block verified",
		zap.String("hash", hash),
		zap.Uint64("height", b.Header.Height),
		zap.Int("signatures", len(b.Sign)),
		zap.Int("valid", n),
		zap.Int("minsig", minSig),
		zap.Error(err))
	return n, err
}

// IsNotFound checks whether the error is a 404 response.
func IsNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Code == http.StatusNotFound
}
