package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/Vishnulak/PRELEX-GENAI/config"
	"github.com/Vishnulak/PRELEX-GENAI/pkg/logger"
)

// MinerU task states
const (
	mineruStateDone   = "done"
	mineruStateFailed = "failed"
)

// maxResultZipBytes caps the downloaded result archive.
const maxResultZipBytes = 256 << 20

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// MineruService extracts text through the MinerU document parsing API. The
// document must already be reachable at Upload.SourceURL.
type MineruService struct {
	config     *config.MineruConfig
	httpClient *http.Client
}

// MineruTaskRequest represents the request to create an extraction task
type MineruTaskRequest struct {
	URL          string `json:"url"`
	ModelVersion string `json:"model_version"`
	DataID       string `json:"data_id,omitempty"`
}

// MineruTaskResponse represents the response from task creation
type MineruTaskResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    struct {
		TaskID string `json:"task_id"`
	} `json:"data"`
}

// MineruTaskStatusResponse represents the task status query response
type MineruTaskStatusResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	TraceID string `json:"trace_id"`
	Data    struct {
		TaskID          string `json:"task_id"`
		DataID          string `json:"data_id"`
		State           string `json:"state"` // pending, running, done, failed, converting
		FullZipURL      string `json:"full_zip_url,omitempty"`
		ErrorMsg        string `json:"err_msg,omitempty"`
		ExtractProgress struct {
			ExtractedPages int `json:"extracted_pages"`
			TotalPages     int `json:"total_pages"`
		} `json:"extract_progress,omitempty"`
	} `json:"data"`
}

// contentBlock is one entry of MinerU's content_list.json.
type contentBlock struct {
	Type         string   `json:"type"`
	Text         string   `json:"text"`
	ListItems    []string `json:"list_items"`
	TableBody    string   `json:"table_body"`
	TableCaption []string `json:"table_caption"`
}

func NewMineruService(cfg *config.MineruConfig) *MineruService {
	return &MineruService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ExtractText runs a MinerU task for the upload and flattens the result.
func (s *MineruService) ExtractText(ctx context.Context, up *Upload) (string, error) {
	if up.SourceURL == "" {
		return "", errors.New("mineru: document has no source URL")
	}

	task, err := s.CreateTask(ctx, up.SourceURL, up.ID)
	if err != nil {
		return "", err
	}
	logger.Debug(ctx, "mineru task created", "task_id", task.Data.TaskID)

	zipURL, err := s.WaitForResult(ctx, task.Data.TaskID)
	if err != nil {
		return "", err
	}
	return s.FetchText(ctx, zipURL)
}

// CreateTask creates a new extraction task
func (s *MineruService) CreateTask(ctx context.Context, docURL, dataID string) (*MineruTaskResponse, error) {
	jsonData, err := json.Marshal(MineruTaskRequest{
		URL:          docURL,
		ModelVersion: s.config.ModelVersion,
		DataID:       dataID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIURL+"/extract/task", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result MineruTaskResponse
	if err := s.doJSON(req, &result); err != nil {
		return nil, err
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("MinerU API error: %s", result.Message)
	}
	return &result, nil
}

// GetTaskStatus queries the status of a task
func (s *MineruService) GetTaskStatus(ctx context.Context, taskID string) (*MineruTaskStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/extract/task/%s", s.config.APIURL, taskID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result MineruTaskStatusResponse
	if err := s.doJSON(req, &result); err != nil {
		return nil, err
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("MinerU API error: %s", result.Message)
	}
	return &result, nil
}

func (s *MineruService) doJSON(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+s.config.APIToken)
	req.Header.Set("Accept", "*/*")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}
	return nil
}

// WaitForResult polls the task until it finishes and returns the result ZIP URL.
func (s *MineruService) WaitForResult(ctx context.Context, taskID string) (string, error) {
	for attempt := 1; attempt <= s.config.MaxPollAttempts; attempt++ {
		status, err := s.GetTaskStatus(ctx, taskID)
		if err != nil {
			return "", err
		}

		switch status.Data.State {
		case mineruStateDone:
			if status.Data.FullZipURL == "" {
				return "", fmt.Errorf("mineru task %s finished without a result", taskID)
			}
			return status.Data.FullZipURL, nil
		case mineruStateFailed:
			return "", fmt.Errorf("mineru task %s failed: %s", taskID, status.Data.ErrorMsg)
		}
		logger.Debug(ctx, "mineru task pending",
			"task_id", taskID,
			"state", status.Data.State,
			"pages", status.Data.ExtractProgress.ExtractedPages,
		)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.config.PollInterval()):
		}
	}
	return "", fmt.Errorf("mineru task %s not finished after %d polls", taskID, s.config.MaxPollAttempts)
}

// FetchText downloads the result ZIP and flattens its content list.
func (s *MineruService) FetchText(ctx context.Context, zipURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, zipURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download ZIP: %w", err)
	}
	defer resp.Body.Close()

	zipData, err := io.ReadAll(io.LimitReader(resp.Body, maxResultZipBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read ZIP: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return "", fmt.Errorf("failed to open ZIP: %w", err)
	}

	var markdown *zip.File
	for _, f := range zr.File {
		switch {
		case strings.HasSuffix(f.Name, "content_list.json"):
			content, err := readZipFile(f)
			if err != nil {
				return "", err
			}
			var blocks []contentBlock
			if err := json.Unmarshal(content, &blocks); err != nil {
				return "", fmt.Errorf("failed to parse %s: %w", f.Name, err)
			}
			return flattenBlocks(blocks), nil
		case strings.HasSuffix(f.Name, ".md") && markdown == nil:
			markdown = f
		}
	}

	if markdown != nil {
		content, err := readZipFile(markdown)
		if err != nil {
			return "", err
		}
		return string(content), nil
	}
	return "", errors.New("no content_list.json or markdown found in ZIP")
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := openZipEntry(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read result: %w", err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func flattenBlocks(blocks []contentBlock) string {
	var parts []string
	for _, b := range blocks {
		switch b.Type {
		case "text", "title", "equation":
			if t := strings.TrimSpace(b.Text); t != "" {
				parts = append(parts, t)
			}
		case "list":
			parts = append(parts, strings.Join(b.ListItems, "\n"))
		case "table":
			parts = append(parts, b.TableCaption...)
			if body := strings.Join(strings.Fields(htmlTagRe.ReplaceAllString(b.TableBody, " ")), " "); body != "" {
				parts = append(parts, body)
			}
		}
	}
	return strings.Join(parts, "\n\n")
}
