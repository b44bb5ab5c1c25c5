package s3

import (
	"context"
	"crypto/tls"
	stderrors "errors"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/kbukum/minispark/security"
	"github.com/kbukum/minispark/security/tlstest"
	"github.com/kbukum/minispark/storage"
)

// fakeS3 serves path-style requests for a single bucket.
func fakeS3(t *testing.T, objects map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(fakeHandler(objects))
	t.Cleanup(srv.Close)
	return srv
}

func fakeHandler(objects map[string]string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
		if bucket != "data" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if key == "" && r.URL.Query().Get("list-type") == "2" {
			w.Header().Set("Content-Type", "application/xml")
			var b strings.Builder
			b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult><Name>data</Name><IsTruncated>false</IsTruncated>`)
			for k, v := range objects {
				if strings.HasPrefix(k, r.URL.Query().Get("prefix")) {
					b.WriteString("<Contents><Key>" + k + "</Key><Size>" + strconv.Itoa(len(v)) + "</Size></Contents>")
				}
			}
			b.WriteString("</ListBucketResult>")
			_, _ = io.WriteString(w, b.String())
			return
		}
		body, ok := objects[key]
		if !ok {
			if r.Method == http.MethodGet {
				w.Header().Set("Content-Type", "application/xml")
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
				return
			}
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		if r.Method == http.MethodHead {
			return
		}
		_, _ = io.WriteString(w, body)
	})
}

func newTestStorage(t *testing.T, endpoint string) *Storage {
	t.Helper()
	return newTestStorageTLS(t, endpoint, security.TLSConfig{})
}

func newTestStorageTLS(t *testing.T, endpoint string, tlsCfg security.TLSConfig) *Storage {
	t.Helper()
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	s, err := NewStorage(context.Background(), storage.S3Config{
		Enabled:   true,
		Region:    "us-east-1",
		Endpoint:  endpoint,
		AccessKey: "test",
		SecretKey: "test",
		TLS:       tlsCfg,
	})
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	return s
}

func TestOpen(t *testing.T) {
	srv := fakeS3(t, map[string]string{"logs/a.txt": "x\ny\n"})
	s := newTestStorage(t, srv.URL)

	rc, err := s.Open(context.Background(), "data/logs/a.txt")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "x\ny\n" {
		t.Fatalf("unexpected body %q", body)
	}

	if _, err := s.Open(context.Background(), "data/missing"); !stderrors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected missing object to map to fs.ErrNotExist, got %v", err)
	}
	if _, err := s.Open(context.Background(), ""); err == nil {
		t.Fatal("expected a path without bucket to fail")
	}
}

func TestExists(t *testing.T) {
	srv := fakeS3(t, map[string]string{"a": "1"})
	s := newTestStorage(t, srv.URL)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "data/a")
	if err != nil || !ok {
		t.Fatalf("expected data/a to exist (err=%v)", err)
	}
	ok, err = s.Exists(ctx, "data/b")
	if err != nil || ok {
		t.Fatalf("expected data/b to be missing (ok=%v err=%v)", ok, err)
	}
}

func TestList(t *testing.T) {
	srv := fakeS3(t, map[string]string{"logs/b": "22", "logs/a": "1", "tmp/c": "333"})
	s := newTestStorage(t, srv.URL)

	files, err := s.List(context.Background(), "data/logs/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 2 || files[0].Path != "data/logs/a" || files[1].Size != 2 {
		t.Fatalf("unexpected listing %+v", files)
	}
}

func TestOpenOverTLSWithPrivateCA(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)
	srv := httptest.NewUnstartedServer(fakeHandler(map[string]string{"secure.txt": "s\n"}))
	srv.TLS = &tls.Config{Certificates: []tls.Certificate{certs.ServerTLS}}
	srv.StartTLS()
	t.Cleanup(srv.Close)

	s := newTestStorageTLS(t, srv.URL, security.TLSConfig{CAFile: certs.CAFile})
	rc, err := s.Open(context.Background(), "data/secure.txt")
	if err != nil {
		t.Fatalf("Open over TLS failed: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "s\n" {
		t.Fatalf("unexpected body %q", body)
	}

	untrusted := newTestStorage(t, srv.URL)
	if _, err := untrusted.Open(context.Background(), "data/secure.txt"); err == nil {
		t.Fatal("expected an unknown CA to be rejected without tls.ca_file")
	}
}

func TestNewStorageRejectsBadTLS(t *testing.T) {
	_, err := NewStorage(context.Background(), storage.S3Config{
		Enabled: true,
		TLS:     security.TLSConfig{CAFile: "/nonexistent/ca.pem"},
	})
	if err == nil || !strings.Contains(err.Error(), "tls") {
		t.Fatalf("expected tls error, got %v", err)
	}
}
