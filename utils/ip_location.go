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

	"github.com/cppla/msgboard/config"
)

// UnknownLocation is stored when geolocation fails or the address is private.
const UnknownLocation = "unknown"

var httpClient = &http.Client{Timeout: 3 * time.Second}

type ipAPIResp struct {
	IP       string `json:"ip"`
	Location string `json:"location"`
}

type locEntry struct {
	value     string
	expiresAt time.Time
}

var (
	ipLocMu    sync.RWMutex
	ipLocCache = make(map[string]locEntry)
	ipLocTTL   = 24 * time.Hour
)

// NormalizeCountryName returns the first segment of a location string
// ("中国–北京–北京" -> "中国", "美国 3COM" -> "美国").
func NormalizeCountryName(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}
	dashMapped := strings.Map(func(r rune) rune {
		switch r {
		case '-', '–', '—', '‑', '‒', '﹣', '－':
			return '-'
		default:
			return r
		}
	}, s)
	if idx := strings.IndexRune(dashMapped, '-'); idx >= 0 {
		return strings.TrimSpace(dashMapped[:idx])
	}
	if toks := strings.Fields(dashMapped); len(toks) > 0 {
		return toks[0]
	}
	return dashMapped
}

// IsPrivateIP returns true for RFC1918 and loopback ranges.
func IsPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate()
}

// GetIPLocation returns the full location string for ip, cached in memory and Redis.
func GetIPLocation(ctx context.Context, ip string) (string, error) {
	if ip == "" || IsPrivateIP(ip) {
		return "", nil
	}
	if v, ok := locCacheGet(ip); ok {
		return v, nil
	}
	if v, ok := locRedisGet(ctx, ip); ok {
		locCacheSet(ip, v)
		return v, nil
	}
	loc, err := fetchLocation(ctx, ip)
	if err != nil {
		return "", err
	}
	if loc != "" {
		locCacheSet(ip, loc)
		locRedisSet(ctx, ip, loc)
	}
	return loc, nil
}

// GetIPCountry returns the country segment of ip's location.
func GetIPCountry(ctx context.Context, ip string) (string, error) {
	loc, err := GetIPLocation(ctx, ip)
	if err != nil {
		return "", err
	}
	return NormalizeCountryName(loc), nil
}

// LocateOrUnknown never fails: lookup errors and empty answers yield UnknownLocation.
func LocateOrUnknown(ctx context.Context, ip string) string {
	loc, err := GetIPLocation(ctx, ip)
	if err != nil {
		Sugar.Debugf("ip location lookup failed ip=%s err=%v", ip, err)
		return UnknownLocation
	}
	if loc == "" {
		return UnknownLocation
	}
	return loc
}

func fetchLocation(ctx context.Context, ip string) (string, error) {
	api := config.Get().IPLocationAPI
	if api == "" {
		return "", nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api+ip, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "msgboard/1.0")
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
	return strings.TrimSpace(body.Location), nil
}

func locCacheGet(ip string) (string, bool) {
	ipLocMu.RLock()
	e, ok := ipLocCache[ip]
	ipLocMu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return "", false
	}
	return e.value, true
}

func locCacheSet(ip, loc string) {
	ipLocMu.Lock()
	ipLocCache[ip] = locEntry{value: loc, expiresAt: time.Now().Add(ipLocTTL)}
	ipLocMu.Unlock()
}

func locRedisKey(ip string) string { return "msgboard:iploc:" + ip }

func locRedisGet(ctx context.Context, ip string) (string, bool) {
	cli := GetRedis()
	if cli == nil {
		return "", false
	}
	ctx2, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	val, err := cli.Get(ctx2, locRedisKey(ip)).Result()
	if err != nil || val == "" {
		return "", false
	}
	return val, true
}

func locRedisSet(ctx context.Context, ip, loc string) {
	cli := GetRedis()
	if cli == nil {
		return
	}
	ctx2, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_ = cli.Set(ctx2, locRedisKey(ip), loc, ipLocTTL).Err()
}
