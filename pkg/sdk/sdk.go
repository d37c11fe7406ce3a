package sdk

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	CTJSON string = "application/json"

	roundsEndpoint      = "/rounds"
	evaluationsEndpoint = "/evaluations"
	healthEndpoint      = "/health"
)

type Round struct {
	ClientID    string             `json:"client_id"`
	Round       uint64             `json:"round"`
	Kind        string             `json:"kind"`
	NumSamples  int                `json:"num_samples"`
	Loss        *float64           `json:"loss,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	Duration    time.Duration      `json:"duration"`
	CompletedAt time.Time          `json:"completed_at"`
}

type RoundPage struct {
	Offset uint64  `json:"offset"`
	Limit  uint64  `json:"limit"`
	Total  uint64  `json:"total"`
	Rounds []Round `json:"rounds"`
}

type Evaluation struct {
	Round uint64  `json:"round"`
	Loss  float64 `json:"loss"`
	MAPE  float64 `json:"mape"`
}

type EvaluationPage struct {
	Total       int          `json:"total"`
	Evaluations []Evaluation `json:"evaluations"`
}

type Health struct {
	Status     string `json:"status"`
	ClientID   string `json:"client_id"`
	State      string `json:"state"`
	InstanceID string `json:"instance_id"`
}

// SDK reads the operator API of a running client.
type SDK interface {
	// ListRounds lists journaled rounds, oldest first.
	//
	// example:
	//  page, _ := sdk.ListRounds(ctx, 0, 10)
	//  fmt.Println(page.Total)
	ListRounds(ctx context.Context, offset, limit uint64) (RoundPage, error)

	// Evaluations returns every evaluation recorded in this process.
	//
	// example:
	//  page, _ := sdk.Evaluations(ctx)
	//  fmt.Println(page.Evaluations)
	Evaluations(ctx context.Context) (EvaluationPage, error)

	// Health reports the client identity and its session state.
	//
	// example:
	//  h, _ := sdk.Health(ctx)
	//  fmt.Println(h.State)
	Health(ctx context.Context) (Health, error)
}

type flSDK struct {
	clientURL string
	client    *http.Client
}

type Config struct {
	ClientURL       string
	TLSVerification bool
}

func NewSDK(cfg Config) SDK {
	return &flSDK{
		clientURL: cfg.ClientURL,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

func (sdk *flSDK) ListRounds(ctx context.Context, offset, limit uint64) (RoundPage, error) {
	queries := url.Values{}
	if offset > 0 {
		queries.Set("offset", strconv.FormatUint(offset, 10))
	}
	if limit > 0 {
		queries.Set("limit", strconv.FormatUint(limit, 10))
	}
	reqURL := sdk.clientURL + roundsEndpoint
	if len(queries) > 0 {
		reqURL += "?" + queries.Encode()
	}

	var page RoundPage
	if err := sdk.get(ctx, reqURL, &page); err != nil {
		return RoundPage{}, err
	}

	return page, nil
}

func (sdk *flSDK) Evaluations(ctx context.Context) (EvaluationPage, error) {
	var page EvaluationPage
	if err := sdk.get(ctx, sdk.clientURL+evaluationsEndpoint, &page); err != nil {
		return EvaluationPage{}, err
	}

	return page, nil
}

func (sdk *flSDK) Health(ctx context.Context) (Health, error) {
	var h Health
	if err := sdk.get(ctx, sdk.clientURL+healthEndpoint, &h); err != nil {
		return Health{}, err
	}

	return h, nil
}

func (sdk *flSDK) get(ctx context.Context, reqURL string, v any) error {
	body, err := sdk.processRequest(ctx, http.MethodGet, reqURL, http.StatusOK)
	if err != nil {
		return err
	}

	return json.Unmarshal(body, v)
}

func (sdk *flSDK) processRequest(ctx context.Context, method, reqURL string, expectedRespCode int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, http.NoBody)
	if err != nil {
		return []byte{}, err
	}

	req.Header.Add("Content-Type", CTJSON)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	if resp.StatusCode != expectedRespCode {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return []byte{}, fmt.Errorf("unexpected response code %d: %s", resp.StatusCode, e.Error)
		}

		return []byte{}, fmt.Errorf("unexpected response code: %d", resp.StatusCode)
	}

	return body, nil
}
