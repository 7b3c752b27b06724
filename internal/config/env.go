package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type envReader struct {
	err error
}

func (r *envReader) string(key string, dst *string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func (r *envReader) int(key string, dst *int) {
	v, ok := lookup(key)
	if !ok || r.err != nil {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.err = fmt.Errorf("%s: invalid integer %q", key, v)
		return
	}
	*dst = n
}

func (r *envReader) float(key string, dst *float64) {
	v, ok := lookup(key)
	if !ok || r.err != nil {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.err = fmt.Errorf("%s: invalid number %q", key, v)
		return
	}
	*dst = f
}

func (r *envReader) duration(key string, dst *Duration) {
	v, ok := lookup(key)
	if !ok || r.err != nil {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.err = fmt.Errorf("%s: invalid duration %q", key, v)
		return
	}
	dst.Duration = d
}

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func (c *Config) applyEnv() error {
	var r envReader

	r.string("SPOTIFY_CLIENT_ID", &c.Spotify.ClientID)
	r.string("SPOTIFY_CLIENT_SECRET", &c.Spotify.ClientSecret)
	r.string("SPOTIFY_BASE_URL", &c.Spotify.BaseURL)
	r.string("SPOTIFY_TOKEN_URL", &c.Spotify.TokenURL)
	r.string("SPOTIFY_MARKET", &c.Spotify.Market)
	r.float("SPOTIFY_RPS", &c.Spotify.RequestsPerSecond)
	r.int("SPOTIFY_PAGE_SIZE", &c.Spotify.PageSize)
	r.duration("SPOTIFY_TIMEOUT", &c.Spotify.Timeout)

	r.duration("INGEST_BASE_PACING_DELAY", &c.Pipeline.BasePacingDelay)
	r.duration("INGEST_BATCH_COOLDOWN", &c.Pipeline.BatchCooldown)
	r.duration("INGEST_CYCLE_COOLDOWN", &c.Pipeline.CycleCooldown)
	r.int("INGEST_BATCH_SIZE", &c.Pipeline.BatchSize)
	r.int("INGEST_MAX_RETRIES", &c.Pipeline.MaxRetries)
	r.duration("INGEST_INITIAL_BACKOFF", &c.Pipeline.InitialBackoff)
	r.duration("INGEST_RATE_LIMIT_WAIT_CAP", &c.Pipeline.RateLimitWaitCap)
	r.int("INGEST_CREDENTIAL_REFRESH_EVERY", &c.Pipeline.CredentialRefreshEvery)
	r.int("INGEST_MIN_TRACKS", &c.Pipeline.MinTracks)
	r.int("INGEST_MAX_AUTH_FAILURES", &c.Pipeline.MaxAuthFailures)

	r.string("CORPUS_ARTISTS_FILE", &c.Corpus.ArtistsFile)
	r.string("CORPUS_QUERIES_FILE", &c.Corpus.QueriesFile)

	r.string("STORE_DRIVER", &c.Storage.Driver)
	r.string("DB_DSN", &c.Storage.DSN)
	r.string("SQLITE_PATH", &c.Storage.SQLitePath)

	r.string("LOG_LEVEL", &c.Log.Level)
	r.string("LOG_FORMAT", &c.Log.Format)
	r.string("STATUS_ADDR", &c.Status.Addr)

	return r.err
}

// RedactDSN masks the credentials portion of a URL-style DSN.
func RedactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
