// Package api holds thin clients for the gateway's business resources. Every
// call goes through the authenticated HTTP client; Authorization is attached
// by the transport, never here.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
)

// Client talks to the API gateway.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s returned %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// MeResponse is the whoami record, used when only a backend credential exists.
type MeResponse struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Role     string `json:"role"`
	Email    string `json:"email"`
}

// Me fetches the identity bound to the current backend credential.
func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	var me MeResponse
	if err := c.get(ctx, "/auth/me", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// Employee mirrors the query service's employee record.
type Employee struct {
	ID          string `json:"id"`
	UploadJobID string `json:"uploadJobId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Department  string `json:"department,omitempty"`
	JobTitle    string `json:"jobTitle,omitempty"`
	HireDate    string `json:"hireDate,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
}

// EmployeePage is the Spring-style page envelope returned by the gateway.
type EmployeePage struct {
	Content       []Employee `json:"content"`
	TotalElements int64      `json:"totalElements"`
	TotalPages    int        `json:"totalPages"`
	Size          int        `json:"size"`
	Number        int        `json:"number"`
	First         bool       `json:"first"`
	Last          bool       `json:"last"`
}

// Employees lists one page of employee records, optionally filtered by status.
func (c *Client) Employees(ctx context.Context, page, size int, status string) (*EmployeePage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	if status != "" {
		q.Set("status", status)
	}
	var out EmployeePage
	if err := c.get(ctx, "/api/v1/employees", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadJob mirrors the upload service's job record.
type UploadJob struct {
	ID               string `json:"id"`
	OriginalFilename string `json:"originalFilename"`
	FileType         string `json:"fileType"`
	Status           string `json:"status"`
	TotalRows        *int64 `json:"totalRows"`
	ProcessedRows    int64  `json:"processedRows"`
	FailedRows       int64  `json:"failedRows"`
	ErrorMessage     string `json:"errorMessage,omitempty"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

// UploadJobs lists the tenant's upload jobs.
func (c *Client) UploadJobs(ctx context.Context) ([]UploadJob, error) {
	var out struct {
		Content []UploadJob `json:"content"`
	}
	if err := c.get(ctx, "/api/v1/uploads", nil, &out); err != nil {
		return nil, err
	}
	return out.Content, nil
}

// UploadEmployeeFile submits an employee file for processing.
func (c *Client) UploadEmployeeFile(ctx context.Context, filename string, file io.Reader, description string) (*UploadJob, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, file); err != nil {
		return nil, err
	}
	if description != "" {
		if err := mw.WriteField("description", description); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/uploads", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var job UploadJob
	if err := c.do(req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
