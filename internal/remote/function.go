// Package remote talks to the hosted data platform over HTTP
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	inqErrors "github.com/umalmyha/inquiries/internal/errors"
	"github.com/umalmyha/inquiries/internal/model"
	"github.com/umalmyha/inquiries/internal/repository"
)

const (
	fetchInquiriesPath = "/functions/v1/get-inquiries"
	inquiriesTablePath = "/rest/v1/customer_inquiries"
	maxErrorBodyBytes  = 4096
)

type platformError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// FunctionClient fetches inquiries through remote function and updates rows through REST interface
type FunctionClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

// NewFunctionClient builds FunctionClient which implements repository.InquirySource
func NewFunctionClient(baseURL, apiKey string, httpClient *http.Client) *FunctionClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &FunctionClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		now:        time.Now,
	}
}

var _ repository.InquirySource = (*FunctionClient)(nil)

// FetchInquiries invokes inquiry fetch function, envelope is returned as is
func (c *FunctionClient) FetchInquiries(ctx context.Context) (*model.InquiryListResponse, error) {
	req, err := c.request(ctx, http.MethodPost, c.baseURL+fetchInquiriesPath, struct{}{})
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.statusErr(resp)
	}

	var envelope model.InquiryListResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, inqErrors.NewServerErr("malformed_response", "Malformed inquiries response", err)
	}
	return &envelope, nil
}

// UpdateStatus patches inquiry row and returns representation of updated row
func (c *FunctionClient) UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Inquiry, error) {
	target := fmt.Sprintf("%s%s?id=eq.%s", c.baseURL, inquiriesTablePath, url.QueryEscape(id))
	body := map[string]any{
		"status":     status,
		"updated_at": c.now().UTC(),
	}

	req, err := c.request(ctx, http.MethodPatch, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.statusErr(resp)
	}

	var rows []*model.Inquiry
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, inqErrors.NewServerErr("malformed_response", "Malformed inquiry update response", err)
	}

	if len(rows) == 0 {
		return nil, inqErrors.NewServerErr("not_found", repository.ErrInquiryNotFound.Error(), repository.ErrInquiryNotFound)
	}
	return rows[0], nil
}

func (c *FunctionClient) request(ctx context.Context, method, target string, payload any) (*http.Request, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request payload - %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to build request - %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *FunctionClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err == nil {
		return resp, nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return nil, inqErrors.NewTimeoutErr("Request timed out")
	}
	return nil, inqErrors.NewNetworkErr("Network request failed", err)
}

func (c *FunctionClient) statusErr(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	var pe platformError
	if err := json.Unmarshal(raw, &pe); err != nil || (pe.Message == "" && pe.Error == "") {
		return inqErrors.NewServerErr(fmt.Sprint(resp.StatusCode), fmt.Sprintf("Request failed with status %d", resp.StatusCode), nil)
	}

	msg := pe.Message
	if msg == "" {
		msg = pe.Error
	}

	code := pe.Code
	if code == "" {
		code = fmt.Sprint(resp.StatusCode)
	}
	return inqErrors.NewServerErr(code, msg, nil)
}
