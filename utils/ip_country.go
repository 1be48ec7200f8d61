package utils

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

var httpClient = &http.Client{Timeout: 3 * time.Second}

type ipAPIResp struct {
	Status      string `json:"status"`
	CountryCode string `json:"countryCode"`
}

// simple in-memory TTL cache
type cacheEntry struct {
	value     string
	expiresAt time.Time
}

var (
	ipCountryMu    sync.RWMutex
	ipCountryCache = make(map[string]cacheEntry)
	ipCountryTTL   = 24 * time.Hour
)

// IsPrivateIP returns true for RFC1918 and loopback ranges.
func IsPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate()
}

// GetIPCountry returns the ISO 3166-1 alpha-2 country code for an IP
// (with in-memory and Redis caching). On error, returns empty and error.
func GetIPCountry(ctx context.Context, ip string) (string, error) {
	if ip == "" || IsPrivateIP(ip) {
		return "", nil
	}
	// in-memory cache first
	if v, ok := cacheGet(ip); ok {
		return v, nil
	}
	// redis cache
	if v, ok := redisCountryGet(ctx, ip); ok {
		cacheSet(ip, v)
		return v, nil
	}
	// remote fetch
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://ip-api.com/json/"+ip+"?fields=status,countryCode", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "ArenaHub/1.0")
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.New("ip api non-200")
	}
	var body ipAPIResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Status != "success" {
		return "", errors.New("ip api lookup failed")
	}
	country := strings.ToUpper(strings.TrimSpace(body.CountryCode))
	if country != "" {
		cacheSet(ip, country)
		_ = redisCountrySet(ctx, ip, country)
	}
	return country, nil
}

func cacheGet(ip string) (string, bool) {
	ipCountryMu.RLock()
	e, ok := ipCountryCache[ip]
	ipCountryMu.RUnlock()
	if !ok {
		return "", false
	}
	if time.Now().After(e.expiresAt) {
		ipCountryMu.Lock()
		delete(ipCountryCache, ip)
		ipCountryMu.Unlock()
		return "", false
	}
	return e.value, true
}

func cacheSet(ip, country string) {
	ipCountryMu.Lock()
	ipCountryCache[ip] = cacheEntry{value: country, expiresAt: time.Now().Add(ipCountryTTL)}
	ipCountryMu.Unlock()
}

func countryKey(ip string) string { return "ipcountry:" + ip }

func redisCountryGet(ctx context.Context, ip string) (string, bool) {
	cli := GetRedis()
	ctx2, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	val, err := cli.Get(ctx2, countryKey(ip)).Result()
	if err != nil || val == "" {
		return "", false
	}
	return val, true
}

func redisCountrySet(ctx context.Context, ip, country string) error {
	cli := GetRedis()
	ctx2, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	return cli.Set(ctx2, countryKey(ip), country, ipCountryTTL).Err()
}
