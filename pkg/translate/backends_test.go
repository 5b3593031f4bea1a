package translate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
)

func TestHuggingFaceClient_Translate(t *testing.T) {
	var gotAuth string
	var gotReq hfRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/Helsinki-NLP/opus-mt-en-de" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"translation_text":"Hallo Welt"}]`))
	}))
	defer srv.Close()

	client := NewHuggingFaceClient(srv.URL, DefaultHuggingFaceModel, "secret", 0, quietLogger())
	got, err := client.Translate(context.Background(), "Hello world", "", "de")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Hallo Welt" {
		t.Errorf("Translate() = %q, want %q", got, "Hallo Welt")
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer secret")
	}
	if gotReq.Inputs != "Hello world" {
		t.Errorf("inputs = %q", gotReq.Inputs)
	}
	if gotReq.Parameters.MaxLength != DefaultMaxOutputLength {
		t.Errorf("max_length = %d, want %d", gotReq.Parameters.MaxLength, DefaultMaxOutputLength)
	}
	if gotReq.Parameters.SrcLang != "" {
		t.Errorf("src_lang = %q, want empty for auto-detect", gotReq.Parameters.SrcLang)
	}
}

func TestHuggingFaceClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewHuggingFaceClient(srv.URL, "", "", 0, quietLogger())
	_, err := client.Translate(context.Background(), "Hello", "en", "de")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d", statusErr.StatusCode)
	}
	if statusErr.Message != "Service Unavailable" {
		t.Errorf("Message = %q", statusErr.Message)
	}
	if got := failureFrom(err).Marker(); got != "Error: 503, Service Unavailable" {
		t.Errorf("Marker() = %q", got)
	}
}

func TestHuggingFaceClient_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewHuggingFaceClient(srv.URL, "", "", 0, quietLogger())
	if _, err := client.Translate(context.Background(), "Hello", "en", "de"); err == nil {
		t.Fatal("expected error for empty translation list")
	}
}

func TestLibreTranslateClient(t *testing.T) {
	var gotReq translateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/translate":
			json.NewDecoder(r.Body).Decode(&gotReq)
			json.NewEncoder(w).Encode(translateResponse{TranslatedText: "Bonjour"})
		case "/languages":
			w.Write([]byte(`[{"code":"en","name":"English"},{"code":"fr","name":"French"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewLibreTranslateClient(srv.URL+"/", "key", quietLogger())
	ctx := context.Background()

	got, err := client.Translate(ctx, "Hello", "", "fr")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Bonjour" {
		t.Errorf("Translate() = %q", got)
	}
	if gotReq.Source != "auto" || gotReq.Target != "fr" || gotReq.APIKey != "key" || gotReq.Format != "text" {
		t.Errorf("request = %+v", gotReq)
	}

	if err := client.CheckHealth(ctx); err != nil {
		t.Errorf("CheckHealth() = %v", err)
	}
	langs, err := client.SupportedLanguages(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(langs, ",") != "en,fr" {
		t.Errorf("SupportedLanguages() = %v", langs)
	}
}

func TestArgosClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" {
			http.NotFound(w, r)
			return
		}
		var req argosTranslateRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(argosTranslateResponse{TranslatedText: req.SourceLang + ">" + req.TargetLang})
	}))
	defer srv.Close()

	client := NewArgosClient(srv.URL, quietLogger())
	got, err := client.Translate(context.Background(), "Hello", "en", "es")
	if err != nil {
		t.Fatal(err)
	}
	if got != "en>es" {
		t.Errorf("Translate() = %q", got)
	}
	// A missing /health endpoint is tolerated.
	if err := client.CheckHealth(context.Background()); err != nil {
		t.Errorf("CheckHealth() = %v", err)
	}
}

func TestOpenAIClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 2 || !strings.Contains(req.Messages[0].Content, "German") {
			t.Errorf("messages = %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","model":"test","choices":[{"index":0,"message":{"role":"assistant","content":" Hallo \n"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(srv.URL+"/v1", "key", "test", 0, quietLogger())
	got, err := client.Translate(context.Background(), "Hello", "en", "de")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Hallo" {
		t.Errorf("Translate() = %q, want %q", got, "Hallo")
	}
}

func TestOpenAIClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(srv.URL+"/v1", "key", "test", 0, quietLogger())
	_, err := client.Translate(context.Background(), "Hello", "en", "de")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d", statusErr.StatusCode)
	}
}

// fakeInvoker answers Lambda invocations with a canned output.
type fakeInvoker struct {
	input  *lambda.InvokeInput
	output *lambda.InvokeOutput
	err    error
}

func (f *fakeInvoker) Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	f.input = params
	return f.output, f.err
}

func TestLambdaClient_Translate(t *testing.T) {
	invoker := &fakeInvoker{output: &lambda.InvokeOutput{
		StatusCode: 200,
		Payload:    []byte(`{"translations":[["Hallo"]]}`),
	}}
	client := &LambdaClient{functionName: "translator", invoker: invoker, logger: quietLogger()}

	got, err := client.Translate(context.Background(), "Hello", "auto", "de")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Hallo" {
		t.Errorf("Translate() = %q", got)
	}
	if aws.ToString(invoker.input.FunctionName) != "translator" {
		t.Errorf("FunctionName = %q", aws.ToString(invoker.input.FunctionName))
	}
	var req lambdaRequest
	if err := json.Unmarshal(invoker.input.Payload, &req); err != nil {
		t.Fatal(err)
	}
	if len(req.Chunks) != 1 || req.Chunks[0][0] != "Hello" || req.SourceLang != "" || req.TargetLang != "de" {
		t.Errorf("payload = %+v", req)
	}
}

func TestLambdaClient_Errors(t *testing.T) {
	tests := []struct {
		name       string
		output     *lambda.InvokeOutput
		wantStatus int
	}{
		{"status", &lambda.InvokeOutput{StatusCode: 502, Payload: []byte("bad gateway")}, 502},
		{"function error", &lambda.InvokeOutput{StatusCode: 200, FunctionError: aws.String("Unhandled"), Payload: []byte(`{}`)}, 0},
		{"translator error", &lambda.InvokeOutput{StatusCode: 200, Payload: []byte(`{"error":"model not loaded"}`)}, 0},
		{"empty", &lambda.InvokeOutput{StatusCode: 200, Payload: []byte(`{"translations":[]}`)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &LambdaClient{functionName: "f", invoker: &fakeInvoker{output: tt.output}, logger: quietLogger()}
			_, err := client.Translate(context.Background(), "Hello", "en", "de")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := failureFrom(err).StatusCode; got != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", got, tt.wantStatus)
			}
		})
	}
}

func TestExchange(t *testing.T) {
	var sent bytes.Buffer
	reply := bufio.NewReader(strings.NewReader(`{"success":true,"translated_text":"Hallo"}` + "\n"))

	resp, err := exchange(&sent, reply, localRequest{Text: "Hello", TgtLang: "deu_Latn", MaxLength: 500})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.TranslatedText != "Hallo" {
		t.Errorf("response = %+v", resp)
	}
	if !strings.HasSuffix(sent.String(), "\n") {
		t.Error("request line not newline-terminated")
	}
	var req localRequest
	if err := json.Unmarshal(sent.Bytes(), &req); err != nil {
		t.Fatal(err)
	}
	if req.TgtLang != "deu_Latn" || req.SrcLang != "" {
		t.Errorf("request = %+v", req)
	}
}

func TestExchange_ClosedWorker(t *testing.T) {
	var sent bytes.Buffer
	_, err := exchange(&sent, bufio.NewReader(strings.NewReader("")), localRequest{Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "closed") {
		t.Errorf("error = %v, want worker connection closed", err)
	}
}
