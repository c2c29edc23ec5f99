package utils

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestSHA256ofFile(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "hello.txt")
	if err := os.WriteFile(fpath, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := SHA256ofFile(fpath)
	if err != nil {
		t.Fatalf("SHA256ofFile: %v", err)
	}
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Errorf("SHA256ofFile = %q; want %q", got, want)
	}

	if _, err := SHA256ofFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSHA256ofReader(t *testing.T) {
	got, err := SHA256ofReader(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("SHA256ofReader(\"\") = %q", got)
	}
}

func TestForEachAsync(t *testing.T) {
	var inFlight, peak atomic.Int32
	boom := errors.New("boom")

	errs := ForEachAsync([]int{1, 2, 3, 4, 5, 6}, 2, func(v int) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)

		if v == 4 {
			return boom
		}
		return nil
	})

	if len(errs) != 6 {
		t.Fatalf("len(errs) = %d; want 6", len(errs))
	}
	for i, err := range errs {
		if i == 3 && err != boom {
			t.Errorf("errs[3] = %v; want boom", err)
		}
		if i != 3 && err != nil {
			t.Errorf("errs[%d] = %v; want nil", i, err)
		}
	}
	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d; want <= 2", peak.Load())
	}
}

func TestSignalContextCancel(t *testing.T) {
	ctx, cancel := SignalContext(context.Background())
	cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled")
	}
}

func TestNormalizeFingerprint(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ab:cd:ef", "ABCDEF"},
		{" abcdef ", "ABCDEF"},
		{"ABCDEF", "ABCDEF"},
	}

	for _, tt := range tests {
		got := NormalizeFingerprint(tt.input)
		if got != tt.want {
			t.Errorf("NormalizeFingerprint(%q) = %q; want %q", tt.input, got, tt.want)
		}
	}
}

func TestGenTLScertPinning(t *testing.T) {
	cert, err := GenTLScert("cthulhu test")
	if err != nil {
		t.Fatalf("GenTLScert: %v", err)
	}
	if cert.Leaf == nil {
		t.Fatal("leaf certificate not parsed")
	}

	fp := SHA256ofCert(cert.Leaf)
	if len(fp) != 64 {
		t.Errorf("fingerprint length = %d; want 64", len(fp))
	}

	mismatch := errors.New("mismatch")
	conf := PinnedTLSConfig(strings.ToLower(fp), mismatch)
	if err := conf.VerifyPeerCertificate([][]byte{cert.Leaf.Raw}, nil); err != nil {
		t.Errorf("pinned verify = %v; want nil", err)
	}

	other := PinnedTLSConfig("00", mismatch)
	if err := other.VerifyPeerCertificate([][]byte{cert.Leaf.Raw}, nil); !errors.Is(err, mismatch) {
		t.Errorf("pinned verify = %v; want %v", err, mismatch)
	}
}
