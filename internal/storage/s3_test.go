package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// newTestS3 points an S3 store at an in-process fake.
func newTestS3(t *testing.T, handler http.Handler) *S3 {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := s3.New(s3.Options{
		BaseEndpoint: aws.String(server.URL),
		Region:       "us-east-1",
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("test-key", "test-secret", ""),
	})

	return &S3{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    "test-bucket",
		publicURL: "https://cdn.example.com",
	}
}

func TestS3_Put(t *testing.T) {
	var gotPath, gotType, gotBody string
	store := newTestS3(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))

	url, err := store.Put(context.Background(), "exports/u/a-batch.csv", strings.NewReader(csvBody), "text/csv")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "https://cdn.example.com/exports/u/a-batch.csv" {
		t.Errorf("url = %q", url)
	}
	if gotPath != "/test-bucket/exports/u/a-batch.csv" {
		t.Errorf("path = %q", gotPath)
	}
	if gotType != "text/csv" {
		t.Errorf("content type = %q", gotType)
	}
	if gotBody != csvBody {
		t.Errorf("body = %q", gotBody)
	}
}

func TestS3_Put_PrivateBucket(t *testing.T) {
	store := newTestS3(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	store.publicURL = ""

	url, err := store.Put(context.Background(), "exports/x.csv", strings.NewReader("data"), "text/csv")
	if err != nil {
		t.Fatal(err)
	}
	if url != "s3://test-bucket/exports/x.csv" {
		t.Errorf("url = %q", url)
	}
}

func TestS3_Put_Error(t *testing.T) {
	store := newTestS3(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`<?xml version="1.0"?><Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`))
	}))

	_, err := store.Put(context.Background(), "forbidden.csv", strings.NewReader("data"), "text/csv")
	if err == nil {
		t.Fatal("expected error for S3 403")
	}
	if !strings.Contains(err.Error(), "putting object") {
		t.Errorf("error should carry context, got: %v", err)
	}
}

func TestS3_Open(t *testing.T) {
	store := newTestS3(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/test-bucket/exports/a.csv" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(csvBody))
	}))

	rc, err := store.Open(context.Background(), "exports/a.csv")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != csvBody {
		t.Errorf("content = %q", data)
	}
}

func TestS3_Open_NotFound(t *testing.T) {
	store := newTestS3(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`<?xml version="1.0"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
	}))

	if _, err := store.Open(context.Background(), "exports/missing.csv"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestS3_Delete(t *testing.T) {
	var gotMethod, gotPath string
	store := newTestS3(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := store.Delete(context.Background(), "exports/old.csv"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %q", gotMethod)
	}
	if !strings.HasSuffix(gotPath, "exports/old.csv") {
		t.Errorf("path = %q", gotPath)
	}
}

func TestS3_Delete_Error(t *testing.T) {
	store := newTestS3(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`<?xml version="1.0"?><Error><Code>InternalError</Code><Message>Server Error</Message></Error>`))
	}))

	err := store.Delete(context.Background(), "error.csv")
	if err == nil {
		t.Fatal("expected error for S3 500")
	}
	if !strings.Contains(err.Error(), "deleting object") {
		t.Errorf("error should carry context, got: %v", err)
	}
}

func TestS3_PresignGet(t *testing.T) {
	store := newTestS3(t, http.NotFoundHandler())

	short, err := store.PresignGet(context.Background(), "exports/a.csv", 5*time.Minute)
	if err != nil {
		t.Fatalf("PresignGet: %v", err)
	}
	if !strings.Contains(short, "test-bucket") || !strings.Contains(short, "X-Amz-Signature") {
		t.Errorf("presigned URL = %q", short)
	}

	long, err := store.PresignGet(context.Background(), "exports/a.csv", 2*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if short == long {
		t.Error("presigned URLs with different expiry should differ")
	}
}

func TestS3_RejectsEscapingKeys(t *testing.T) {
	store := newTestS3(t, http.NotFoundHandler())
	if _, err := store.Put(context.Background(), "../x.csv", strings.NewReader(""), "text/csv"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("got %v, want ErrInvalidKey", err)
	}
}

func TestNewS3(t *testing.T) {
	s, err := NewS3(context.Background(), S3Config{
		Endpoint:       "https://s3.example.com",
		Region:         "eu-west-1",
		AccessKey:      "key",
		SecretKey:      "secret",
		ForcePathStyle: true,
		Bucket:         "exports",
		PublicURL:      "https://cdn.example.com/",
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}
	if s.bucket != "exports" {
		t.Errorf("bucket = %q", s.bucket)
	}
	if s.publicURL != "https://cdn.example.com" {
		t.Errorf("publicURL = %q, want trailing slash trimmed", s.publicURL)
	}

	if _, err := NewS3(context.Background(), S3Config{Region: "us-east-1"}); err == nil {
		t.Error("expected error without a bucket")
	}
}
