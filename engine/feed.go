package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/studiod/updater"
)

const maxReleaseDocumentSize = 1 << 20

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func defaultHttpClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: 30 * time.Second,
		},
	}
}

// releaseDocument is the json document served by the update feed.
type releaseDocument struct {
	Version  string    `json:"version"`
	Url      string    `json:"url"`
	Sha256   string    `json:"sha256"`
	Notes    string    `json:"notes"`
	Released time.Time `json:"released"`
}

func (e *Engine) releaseUrl() string {
	return fmt.Sprintf("%s/%s.json", e.feedUrl, e.channel)
}

func (e *Engine) fetchRelease(ctx context.Context) (*updater.ReleaseInfo, error) {
	docUrl := e.releaseUrl()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docUrl, nil)
	if err != nil {
		return nil, errors.Errorf("could not create request for %v: %v", docUrl, err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.Errorf("could not fetch %v: %v", docUrl, err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			e.log.Warnf("Could not close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("update feed responded with %v", resp.Status)
	}

	doc := &releaseDocument{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxReleaseDocumentSize)).Decode(doc); err != nil {
		return nil, errors.Errorf("could not decode release document: %v", err)
	}

	if doc.Version == "" || doc.Url == "" {
		return nil, errors.New("release document is missing version or url")
	}

	artifactUrl, err := resolveUrl(docUrl, doc.Url)
	if err != nil {
		return nil, err
	}

	return &updater.ReleaseInfo{
		Version:  doc.Version,
		Url:      artifactUrl,
		Sha256:   doc.Sha256,
		Notes:    doc.Notes,
		Released: doc.Released,
	}, nil
}

// fetchArtifact downloads the release artifact into the staging directory
// and returns its path and hex encoded sha256.
func (e *Engine) fetchArtifact(ctx context.Context, release *updater.ReleaseInfo) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, release.Url, nil)
	if err != nil {
		return "", "", errors.Errorf("could not create download request: %v", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", "", errors.Errorf("could not download %v: %v", release.Url, err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			e.log.Warnf("Could not close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", "", errors.Errorf("download of %v responded with %v", release.Url, resp.Status)
	}

	if err := os.MkdirAll(e.stagingDir, 0700); err != nil {
		return "", "", errors.Errorf("could not create staging dir: %v", err)
	}

	target := filepath.Join(e.stagingDir, artifactName(release))

	out, err := os.Create(target)
	if err != nil {
		return "", "", errors.Errorf("could not create %v: %v", target, err)
	}

	hash := sha256.New()
	progress := &progressWriter{
		total:   resp.ContentLength,
		started: time.Now(),
		emit: func(p *updater.Progress) {
			e.emit(updater.EngineEvent{Name: updater.EngineDownloadProgress, Progress: p})
		},
	}

	_, err = io.Copy(io.MultiWriter(out, hash, progress), resp.Body)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(target)
		return "", "", errors.Errorf("could not download %v: %v", release.Url, err)
	}

	progress.finish()

	e.log.Debugf("Downloaded update %v to %v", release.Version, target)

	return target, hex.EncodeToString(hash.Sum(nil)), nil
}

func artifactName(release *updater.ReleaseInfo) string {
	name := "update"

	if u, err := url.Parse(release.Url); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" {
			name = base
		}
	}

	return fmt.Sprintf("%s-%s", release.Version, name)
}

func resolveUrl(base string, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", errors.Errorf("invalid feed url %v: %v", base, err)
	}

	r, err := url.Parse(ref)
	if err != nil {
		return "", errors.Errorf("invalid artifact url %v: %v", ref, err)
	}

	return b.ResolveReference(r).String(), nil
}

// progressWriter reports whenever another whole percent was transferred.
type progressWriter struct {
	total       int64
	transferred int64
	reported    int64
	started     time.Time
	emit        func(p *updater.Progress)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.transferred += int64(len(b))

	if p.total > 0 {
		if percent := p.transferred * 100 / p.total; percent > p.reported {
			p.reported = percent
			p.emit(p.progress())
		}
	}

	return len(b), nil
}

// finish reports completion for downloads of unknown size.
func (p *progressWriter) finish() {
	if p.total <= 0 {
		p.total = p.transferred
		p.emit(p.progress())
	}
}

func (p *progressWriter) progress() *updater.Progress {
	percent := 100.0
	if p.total > 0 {
		percent = float64(p.transferred) * 100 / float64(p.total)
	}

	var bps int64
	if elapsed := time.Since(p.started).Seconds(); elapsed > 0 {
		bps = int64(float64(p.transferred) / elapsed)
	}

	return &updater.Progress{
		Percent:        percent,
		Transferred:    p.transferred,
		Total:          p.total,
		BytesPerSecond: bps,
	}
}
