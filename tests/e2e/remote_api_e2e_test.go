//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func TestRemoteAPI_MainEndpoints(t *testing.T) {
	baseURL := strings.TrimRight(envOr("E2E_BASE_URL", "http://localhost:8080"), "/")
	resetCode := envOr("E2E_RESET_CODE", "AZ4658")
	code := envOr("E2E_CODE", "UB01")
	client := &http.Client{Timeout: 20 * time.Second}

	t.Run("reset wipes the terminal", func(t *testing.T) {
		status, body := mustJSON(t, client, http.MethodPost, baseURL+"/api/terminal/input", map[string]any{"code": resetCode})
		if status != http.StatusOK {
			t.Fatalf("reset status=%d body=%s", status, string(body))
		}
		st := getState(t, client, baseURL)
		res := asMap(st["resources"])
		if res["battery"] != float64(0) || len(asSlice(st["history"])) != 0 {
			t.Fatalf("expected empty terminal after reset, got %v", st)
		}
	})

	t.Run("redeem once then already used", func(t *testing.T) {
		status, body := mustJSON(t, client, http.MethodPost, baseURL+"/api/terminal/input", map[string]any{"code": code})
		if status != http.StatusOK {
			t.Fatalf("input status=%d body=%s", status, string(body))
		}
		var first map[string]any
		if err := json.Unmarshal(body, &first); err != nil {
			t.Fatalf("unmarshal input: %v body=%s", err, string(body))
		}
		if first["result"] != "ok" {
			t.Fatalf("expected ok result, got %v", first)
		}

		_, body = mustJSON(t, client, http.MethodPost, baseURL+"/api/terminal/input", map[string]any{"code": code})
		var second map[string]any
		if err := json.Unmarshal(body, &second); err != nil {
			t.Fatalf("unmarshal input: %v body=%s", err, string(body))
		}
		if second["result"] != "already_used" {
			t.Fatalf("expected already_used, got %v", second)
		}
	})

	t.Run("tools toggle and overlay exclusivity", func(t *testing.T) {
		status, body := mustJSON(t, client, http.MethodPost, baseURL+"/api/terminal/tools/radio/toggle", nil)
		if status != http.StatusOK {
			t.Fatalf("toggle radio status=%d body=%s", status, string(body))
		}
		status, body = mustJSON(t, client, http.MethodPost, baseURL+"/api/terminal/tools/geiger/toggle", nil)
		if status != http.StatusConflict {
			t.Fatalf("expected 409 for geiger while radio is open, got %d body=%s", status, string(body))
		}
		status, body = mustJSON(t, client, http.MethodPost, baseURL+"/api/terminal/tools/radio/toggle", nil)
		if status != http.StatusOK {
			t.Fatalf("toggle radio off status=%d body=%s", status, string(body))
		}
	})

	t.Run("sensor options and kpi", func(t *testing.T) {
		status, body, err := doRequest(client, http.MethodGet, baseURL+"/api/terminal/sensor", nil)
		if err != nil {
			t.Fatalf("sensor request: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("sensor status=%d body=%s", status, string(body))
		}

		status, kpiBody, err := doRequest(client, http.MethodGet, baseURL+"/ops/kpi", nil)
		if err != nil {
			t.Fatalf("kpi request: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("kpi status=%d body=%s", status, string(kpiBody))
		}
		var kpi map[string]any
		if err := json.Unmarshal(kpiBody, &kpi); err != nil {
			t.Fatalf("unmarshal kpi: %v body=%s", err, string(kpiBody))
		}
		if _, ok := kpi["input_total"]; !ok {
			t.Fatalf("expected input_total in kpi response")
		}
	})
}

func getState(t *testing.T, client *http.Client, baseURL string) map[string]any {
	t.Helper()
	status, body, err := doRequest(client, http.MethodGet, baseURL+"/api/terminal/state", nil)
	if err != nil {
		t.Fatalf("state request: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("state status=%d body=%s", status, string(body))
	}
	var st map[string]any
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("unmarshal state: %v body=%s", err, string(body))
	}
	return st
}

func mustJSON(t *testing.T, client *http.Client, method, url string, body map[string]any) (int, []byte) {
	t.Helper()
	status, respBody, err := doRequest(client, method, url, body)
	if err != nil {
		t.Fatalf("%s %s request failed: %v", method, url, err)
	}
	return status, respBody
}

func doRequest(client *http.Client, method, url string, body map[string]any) (int, []byte, error) {
	var payloadBytes []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		payloadBytes = b
	}

	var lastStatus int
	var lastBody []byte
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		var payload io.Reader
		if len(payloadBytes) > 0 {
			payload = bytes.NewReader(payloadBytes)
		}
		req, err := http.NewRequest(method, url, payload)
		if err != nil {
			return 0, nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		lastStatus, lastBody, lastErr = resp.StatusCode, respBody, nil
		if resp.StatusCode >= 500 {
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		return resp.StatusCode, respBody, nil
	}
	if lastErr != nil {
		return 0, nil, lastErr
	}
	return lastStatus, lastBody, nil
}

func envOr(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func asSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	return nil
}
