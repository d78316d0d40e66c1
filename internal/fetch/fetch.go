// Package fetch retrieves a store's four files (.dat, .idx, .dsc, .hsh) from
// a remote source, so a dependency store that exists in a remote repository
// but not locally can be pulled down before it is opened.
package fetch

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound is returned when the remote source reports the requested file
// does not exist.
type ErrNotFound struct {
	url *url.URL
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%v: HTTP status 404", e.url)
}

type gzipReader struct {
	body io.ReadCloser
	zr   *gzip.Reader
}

func (r *gzipReader) Read(p []byte) (n int, err error) {
	return r.zr.Read(p)
}

func (r *gzipReader) Close() error {
	if err := r.zr.Close(); err != nil {
		return err
	}
	return r.body.Close()
}

type closeFuncReadCloser struct {
	reader    io.Reader
	closeFunc func() error
}

func (cfrc *closeFuncReadCloser) Read(p []byte) (n int, err error) {
	return cfrc.reader.Read(p)
}

func (cfrc *closeFuncReadCloser) Close() error {
	return cfrc.closeFunc()
}

var httpClient = &http.Client{Transport: &http.Transport{
	MaxIdleConnsPerHost: 10,
	DisableCompression:  true,
}}

func cacheFn(cache bool, source, fn string) string {
	if !cache {
		return ""
	}
	ucd, err := os.UserCacheDir()
	if err != nil {
		log.Printf("cannot cache: %v", err)
		return ""
	}
	cacheFn := filepath.Join(ucd, "snapfs", strings.ReplaceAll(source, "/", "_"), fn)
	if err := os.MkdirAll(filepath.Dir(cacheFn), 0755); err != nil {
		log.Printf("cannot cache: %v", err)
		return ""
	}
	return cacheFn
}

// Reader opens fn relative to source, which is either a local directory path
// or an http(s) URL. Remote reads are cached locally when cache is true, and
// a conditional request is made using the cached file's modification time.
func Reader(ctx context.Context, source, fn string, cache bool) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.Open(filepath.Join(source, fn))
	}

	var ifModifiedSince time.Time
	cfn := cacheFn(cache, source, fn)
	if cfn != "" {
		if st, err := os.Stat(cfn); err == nil {
			ifModifiedSince = st.ModTime()
		}
	}

	req, err := http.NewRequest("GET", source+"/"+fn, nil)
	if err != nil {
		return nil, err
	}
	if !ifModifiedSince.IsZero() {
		req.Header.Set("If-Modified-Since", ifModifiedSince.Format(http.TimeFormat))
	}
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if cfn != "" && resp.StatusCode == http.StatusNotModified {
		return os.Open(cfn)
	}
	if got, want := resp.StatusCode, http.StatusOK; got != want {
		if got == http.StatusNotFound {
			return nil, &ErrNotFound{url: req.URL}
		}
		return nil, fmt.Errorf("%s: HTTP status %v", req.URL, resp.Status)
	}
	rdc := resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		rd, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		rdc = &gzipReader{body: resp.Body, zr: rd}
	}
	var cacheFile *os.File
	if cfn != "" {
		cacheFile, err = os.Create(cfn)
		if err != nil {
			log.Printf("cannot cache: %v", err)
		}
	}
	wr := ioutil.Discard
	if cacheFile != nil {
		wr = cacheFile
	}
	mtime := time.Now()
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		var err error
		mtime, err = time.Parse(http.TimeFormat, lm)
		if err != nil {
			log.Printf("invalid Last-Modified header %q", lm)
			mtime = time.Now()
		}
	}
	return &closeFuncReadCloser{
		reader: io.TeeReader(rdc, wr),
		closeFunc: func() error {
			if err := rdc.Close(); err != nil {
				return err
			}
			if cacheFile != nil {
				if err := cacheFile.Close(); err != nil {
					return err
				}
				if err := os.Chtimes(cfn, mtime, mtime); err != nil {
					return err
				}
			}
			return nil
		},
	}, nil
}

// Store downloads the four files making up base from source into dir,
// skipping files that already exist locally.
func Store(ctx context.Context, source, dir, base string) error {
	for _, ext := range []string{".dat", ".idx", ".dsc", ".hsh"} {
		dst := filepath.Join(dir, base+ext)
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		rc, err := Reader(ctx, source, base+ext, true)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", base+ext, err)
		}
		f, err := os.Create(dst)
		if err != nil {
			rc.Close()
			return err
		}
		_, copyErr := io.Copy(f, rc)
		rc.Close()
		closeErr := f.Close()
		if copyErr != nil {
			return copyErr
		}
		if closeErr != nil {
			return closeErr
		}
	}
	return nil
}
