package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

func WaitForSignal() chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	return ch
}

// SignalContext returns a context cancelled on the first termination signal.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sig := WaitForSignal()

	go func() {
		defer signal.Stop(sig)
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// ForEachAsync runs do for every element with at most limit goroutines in
// flight, and returns the errors in input order.
func ForEachAsync[T any](arr []T, limit int, do func(value T) error) []error {
	if limit <= 0 {
		limit = 1
	}

	var wg sync.WaitGroup
	errs := make([]error, len(arr))
	sem := make(chan struct{}, limit)

	for idx, val := range arr {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, val T) {
			defer func() {
				<-sem
				wg.Done()
			}()

			errs[idx] = do(val)
		}(idx, val)
	}

	wg.Wait()
	return errs
}

func SHA256ofReader(r io.Reader) (string, error) {
	hasher := sha256.New()
	_, err := io.Copy(hasher, r)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func SHA256ofFile(fpath string) (string, error) {
	fd, err := os.Open(fpath)
	if err != nil {
		return "", err
	}
	defer fd.Close()

	return SHA256ofReader(fd)
}

// GetMyIPv4Addr get ipv4 address of every RUNNING interfaces on the host
// Note: ipv6, loopback and non-private addressess are ignored
func GetMyIPv4Addr() ([]net.IP, error) {
	intfs, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	res := make([]net.IP, 0)

	for _, intf := range intfs {
		if intf.Flags&net.FlagRunning == 0 {
			continue
		}
		addrs, _ := intf.Addrs()
		for idx := range addrs {
			ip, _, _ := net.ParseCIDR(addrs[idx].String())
			if ip.To4() != nil && !ip.IsLoopback() && ip.IsPrivate() {
				res = append(res, ip)
			}
		}
	}
	return res, nil
}
