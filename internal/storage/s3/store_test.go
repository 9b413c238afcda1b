package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/storage"
)

func TestPutUsesPrefixAndNormalizedKey(t *testing.T) {
	fake := &fakeClient{}
	store, err := NewWithClient("reports", "/ledgerlens/prod/", fake)
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}

	info, err := store.Put(context.Background(), "/s1/t1/item-1.csv", bytes.NewBufferString("a,b\n"), 4, storage.PutOptions{ContentType: "text/csv"})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if fake.lastPutBucket != "reports" {
		t.Fatalf("bucket = %q", fake.lastPutBucket)
	}
	if fake.lastPutKey != "ledgerlens/prod/s1/t1/item-1.csv" {
		t.Fatalf("key = %q", fake.lastPutKey)
	}
	if info.Key != "/s1/t1/item-1.csv" || info.ContentType != "text/csv" {
		t.Fatalf("info = %+v", info)
	}
}

func TestPutRejectsPathTraversal(t *testing.T) {
	store, err := NewWithClient("reports", "", &fakeClient{})
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}
	for _, key := range []string{"../secrets.txt", "..", "  ", "a/../../b"} {
		if _, err := store.Put(context.Background(), key, bytes.NewBufferString("x"), 1, storage.PutOptions{}); err == nil {
			t.Fatalf("Put(%q) expected validation error", key)
		}
	}
}

func TestGetMapsNotFound(t *testing.T) {
	store, _ := NewWithClient("reports", "", &fakeClient{getErr: storage.ErrObjectNotFound})
	_, _, err := store.Get(context.Background(), "s1/t1/item-1.png")
	if !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("Get() error = %v, want ErrObjectNotFound", err)
	}
}

func TestGetReturnsBodyAndInfo(t *testing.T) {
	store, _ := NewWithClient("reports", "p", &fakeClient{})
	body, info, err := store.Get(context.Background(), "s1/t1/item-1.csv")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer func() { _ = body.Close() }()
	raw, _ := io.ReadAll(body)
	if string(raw) != "p/s1/t1/item-1.csv" {
		t.Fatalf("body = %q", string(raw))
	}
	if info.Key != "s1/t1/item-1.csv" || info.ContentType != "text/csv" {
		t.Fatalf("info = %+v", info)
	}
}

func TestEnsureBucketCreatesWhenMissing(t *testing.T) {
	fake := &fakeClient{bucketExists: false}
	store, err := NewWithClient("reports", "", fake)
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}
	if err := store.ensureBucket(context.Background(), "us-east-1"); err != nil {
		t.Fatalf("ensureBucket() error = %v", err)
	}
	if !fake.createBucketCalled {
		t.Fatal("expected CreateBucket to be called")
	}
	if err := store.Ping(context.Background()); err == nil {
		t.Fatal("Ping() expected error for missing bucket")
	}
}

func TestNewWithClientRequiresBucket(t *testing.T) {
	if _, err := NewWithClient(" ", "", &fakeClient{}); err == nil {
		t.Fatal("NewWithClient() expected error")
	}
	if _, err := NewWithClient("reports", "", nil); err == nil {
		t.Fatal("NewWithClient() expected error for nil client")
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		raw        string
		useSSL     bool
		wantHost   string
		wantSecure bool
		wantErr    bool
	}{
		{raw: "https://minio.example.com", wantHost: "minio.example.com", wantSecure: true},
		{raw: "http://localhost:9000", useSSL: true, wantHost: "localhost:9000", wantSecure: true},
		{raw: "localhost:9000", wantHost: "localhost:9000"},
		{raw: "ftp://files", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tc := range tests {
		host, secure, err := parseEndpoint(tc.raw, tc.useSSL)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseEndpoint(%q) expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseEndpoint(%q) error = %v", tc.raw, err)
		}
		if host != tc.wantHost || secure != tc.wantSecure {
			t.Fatalf("parseEndpoint(%q) = %q/%v", tc.raw, host, secure)
		}
	}
}

func TestCleanPrefix(t *testing.T) {
	for raw, want := range map[string]string{"": "", "/": "", " a/b/ ": "a/b", "../x": "x"} {
		if got := cleanPrefix(raw); got != want {
			t.Fatalf("cleanPrefix(%q) = %q, want %q", raw, got, want)
		}
	}
}

type fakeClient struct {
	lastPutBucket      string
	lastPutKey         string
	bucketExists       bool
	createBucketCalled bool
	getErr             error
}

func (f *fakeClient) Put(_ context.Context, bucket, key string, reader io.Reader, size int64, _ string) (storage.ObjectInfo, error) {
	f.lastPutBucket = bucket
	f.lastPutKey = key
	_, _ = io.Copy(io.Discard, reader)
	return storage.ObjectInfo{Key: key, Size: size, ETag: "etag-1"}, nil
}

func (f *fakeClient) Get(_ context.Context, _, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	if f.getErr != nil {
		return nil, storage.ObjectInfo{}, f.getErr
	}
	return io.NopCloser(strings.NewReader(key)), storage.ObjectInfo{Key: key, Size: int64(len(key)), ContentType: "text/csv"}, nil
}

func (f *fakeClient) Stat(_ context.Context, _, key string) (storage.ObjectInfo, error) {
	return storage.ObjectInfo{Key: key, Size: 10, LastModified: time.Now().UTC()}, nil
}

func (f *fakeClient) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.bucketExists, nil
}

func (f *fakeClient) CreateBucket(_ context.Context, _, _ string) error {
	f.createBucketCalled = true
	return nil
}
