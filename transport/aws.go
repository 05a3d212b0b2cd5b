package transport

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/rs/zerolog"

	"github.com/spyglass-dev/spyglass/registry"
)

const (
	// DefaultConnectTimeout bounds dialing and the TLS handshake so a bad
	// trust chain fails fast instead of hanging the refresh cycle.
	DefaultConnectTimeout = 10 * time.Second
	// DefaultRequestTimeout bounds one whole request.
	DefaultRequestTimeout = 30 * time.Second
)

// AWS is the production transport: it resolves shared-config credentials
// per (profile, region), signs each request with SigV4, and speaks the wire
// protocol the service descriptor declares.
type AWS struct {
	client *http.Client
	logger zerolog.Logger
	now    func() time.Time

	// test seams
	credentials aws.CredentialsProvider

	mu    sync.Mutex
	creds map[string]aws.CredentialsProvider
}

// AWSOption customizes the transport.
type AWSOption func(*AWS)

// WithHTTPClient replaces the pre-configured client.
func WithHTTPClient(c *http.Client) AWSOption {
	return func(a *AWS) { a.client = c }
}

// WithCredentials bypasses shared-config resolution. Used by tests and by
// endpoint-override setups that carry static credentials.
func WithCredentials(p aws.CredentialsProvider) AWSOption {
	return func(a *AWS) { a.credentials = p }
}

// NewAWS builds the transport with timeouts and the optional custom trust
// bundle resolved once, here, at startup.
func NewAWS(logger zerolog.Logger, opts ...AWSOption) *AWS {
	a := &AWS{
		client: newHTTPClient(logger),
		logger: logger,
		now:    time.Now,
		creds:  make(map[string]aws.CredentialsProvider),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// newHTTPClient builds the pre-configured client: bounded connect/request
// timeouts plus AWS_CA_BUNDLE / SSL_CERT_FILE support.
func newHTTPClient(logger zerolog.Logger) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: DefaultConnectTimeout,
		}).DialContext,
		TLSHandshakeTimeout:   DefaultConnectTimeout,
		ResponseHeaderTimeout: DefaultRequestTimeout,
	}
	if pool := LoadTrustBundle(logger); pool != nil {
		transport.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	}
	return &http.Client{
		Timeout:   DefaultRequestTimeout,
		Transport: transport,
	}
}

// RoundTrip performs exactly one signed call.
func (a *AWS) RoundTrip(ctx context.Context, call Call) (any, error) {
	creds, err := a.resolveCredentials(ctx, call.Profile, call.Region)
	if err != nil {
		return nil, fmt.Errorf("%w: profile %s: %v", ErrCredentials, call.Profile, err)
	}

	req, body, err := buildRequest(ctx, call)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(body)
	signer := v4.NewSigner()
	if err := signer.SignHTTP(ctx, creds, req, hex.EncodeToString(hash[:]),
		call.Service.SigningName, call.Region, a.now()); err != nil {
		return nil, fmt.Errorf("signing request: %w", err)
	}

	a.logger.Debug().
		Str("service", call.Service.ID).
		Str("operation", call.Operation).
		Str("profile", call.Profile).
		Str("region", call.Region).
		Msg("provider call")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, decodeError(call.Service.Protocol, resp, payload)
	}
	return decodeResponse(call, payload)
}

// resolveCredentials loads shared-config credentials once per
// (profile, region) and caches the provider.
func (a *AWS) resolveCredentials(ctx context.Context, profile, region string) (aws.Credentials, error) {
	if a.credentials != nil {
		return a.credentials.Retrieve(ctx)
	}

	key := profile + "\x00" + region
	a.mu.Lock()
	provider, ok := a.creds[key]
	a.mu.Unlock()

	if !ok {
		cfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithSharedConfigProfile(profile),
			awsconfig.WithRegion(region),
		)
		if err != nil {
			return aws.Credentials{}, err
		}
		provider = aws.NewCredentialsCache(cfg.Credentials)
		a.mu.Lock()
		a.creds[key] = provider
		a.mu.Unlock()
	}
	return provider.Retrieve(ctx)
}

// buildRequest encodes the call for its service's wire protocol.
func buildRequest(ctx context.Context, call Call) (*http.Request, []byte, error) {
	endpoint := call.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.%s.amazonaws.com", call.Service.EndpointPrefix, call.Region)
	}

	switch call.Service.Protocol {
	case registry.ProtocolJSON10, registry.ProtocolJSON11:
		return buildJSONRequest(ctx, endpoint, call)
	case registry.ProtocolQuery:
		return buildQueryRequest(ctx, endpoint, call)
	case registry.ProtocolRESTJSON:
		return buildRESTRequest(ctx, endpoint, call)
	default:
		return nil, nil, fmt.Errorf("unsupported protocol %q for service %s", call.Service.Protocol, call.Service.ID)
	}
}

func buildJSONRequest(ctx context.Context, endpoint string, call Call) (*http.Request, []byte, error) {
	params := call.Params
	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding parameters: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/", bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	contentType := "application/x-amz-json-1.0"
	if call.Service.Protocol == registry.ProtocolJSON11 {
		contentType = "application/x-amz-json-1.1"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Amz-Target", call.Service.TargetPrefix+"."+call.Operation)
	return req, body, nil
}

func buildQueryRequest(ctx context.Context, endpoint string, call Call) (*http.Request, []byte, error) {
	form := url.Values{}
	form.Set("Action", call.Operation)
	form.Set("Version", call.Service.APIVersion)
	for _, k := range sortedKeys(call.Params) {
		form.Set(k, paramString(call.Params[k]))
	}
	body := []byte(form.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/", bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, body, nil
}

func buildRESTRequest(ctx context.Context, endpoint string, call Call) (*http.Request, []byte, error) {
	method := call.Method
	if method == "" {
		method = http.MethodGet
	}

	// Path placeholders consume their parameters; the rest travel in the
	// query string for bodyless methods and in a JSON body otherwise.
	remaining := make(map[string]any, len(call.Params))
	for k, v := range call.Params {
		remaining[k] = v
	}
	path := call.Path
	for k, v := range call.Params {
		placeholder := "{" + k + "}"
		if strings.Contains(path, placeholder) {
			path = strings.ReplaceAll(path, placeholder, url.PathEscape(paramString(v)))
			delete(remaining, k)
		}
	}

	var body []byte
	target := endpoint + path
	if method == http.MethodGet || method == http.MethodDelete || method == http.MethodHead {
		if len(remaining) > 0 {
			q := url.Values{}
			for _, k := range sortedKeys(remaining) {
				q.Set(k, paramString(remaining[k]))
			}
			target += "?" + q.Encode()
		}
	} else if len(remaining) > 0 {
		encoded, err := json.Marshal(remaining)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding parameters: %w", err)
		}
		body = encoded
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, body, nil
}

// decodeResponse parses a success payload into the raw semi-structured value.
func decodeResponse(call Call, payload []byte) (any, error) {
	if call.Service.Protocol == registry.ProtocolQuery {
		return decodeXML(bytes.NewReader(payload), call.Operation)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return map[string]any{}, nil
	}
	var raw any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return raw, nil
}

// decodeError turns an error payload into an APIError carrying the
// provider's error code.
func decodeError(protocol registry.Protocol, resp *http.Response, payload []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	if protocol == registry.ProtocolQuery {
		if raw, err := decodeXML(bytes.NewReader(payload), ""); err == nil {
			fill := func(m map[string]any) {
				if code, ok := m["Code"].(string); ok {
					apiErr.Code = code
				}
				if msg, ok := m["Message"].(string); ok {
					apiErr.Message = msg
				}
			}
			if m, ok := raw.(map[string]any); ok {
				if inner, ok := m["Errors"].(map[string]any); ok {
					m = inner
				}
				if e, ok := m["Error"].(map[string]any); ok {
					fill(e)
				} else {
					fill(m)
				}
			}
		}
	} else {
		var body struct {
			Type     string `json:"__type"`
			Code     string `json:"code"`
			Message  string `json:"message"`
			MessageC string `json:"Message"`
		}
		if err := json.Unmarshal(payload, &body); err == nil {
			apiErr.Code = body.Type
			if apiErr.Code == "" {
				apiErr.Code = body.Code
			}
			apiErr.Message = body.Message
			if apiErr.Message == "" {
				apiErr.Message = body.MessageC
			}
		}
		if header := resp.Header.Get("X-Amzn-Errortype"); apiErr.Code == "" && header != "" {
			apiErr.Code = header
		}
		// __type arrives as "namespace#Code"
		if idx := strings.LastIndexByte(apiErr.Code, '#'); idx >= 0 {
			apiErr.Code = apiErr.Code[idx+1:]
		}
		if idx := strings.IndexByte(apiErr.Code, ':'); idx >= 0 {
			apiErr.Code = apiErr.Code[:idx]
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(payload))
	}
	return apiErr
}

func paramString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
