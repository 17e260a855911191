package lookup

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/guarzo/repolookup/common"
	"github.com/guarzo/repolookup/common/model"
)

// DefaultCacheDuration is how long a repository listing is trusted.
const DefaultCacheDuration = 5 * time.Minute

const (
	identityKeyPrefix      = "identity_cache:"
	repoKeyPrefix          = "repo_cache:"
	repoTimestampKeyPrefix = "repo_cache_ts:"
)

// IdentityKey is keyed by the lower-cased username.
func IdentityKey(username string) string {
	return identityKeyPrefix + strings.ToLower(strings.TrimSpace(username))
}

func RepoKey(numericID string) string {
	return repoKeyPrefix + numericID
}

func RepoTimestampKey(numericID string) string {
	return repoTimestampKeyPrefix + numericID
}

func EncodeIdentity(identity model.Identity) ([]byte, error) {
	return json.Marshal(identity)
}

// DecodeIdentity rejects payloads without a usable numeric id.
func DecodeIdentity(raw []byte) (model.Identity, error) {
	var identity model.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return model.Identity{}, fmt.Errorf("%w: identity: %v", common.ErrCacheCorruption, err)
	}
	if n, err := strconv.ParseInt(identity.NumericID, 10, 64); err != nil || n <= 0 {
		return model.Identity{}, fmt.Errorf("%w: identity: bad numeric id %q", common.ErrCacheCorruption, identity.NumericID)
	}
	return identity, nil
}

type repoEntry struct {
	Repos []model.Repository `json:"repos"`
}

func EncodeRepositories(repos []model.Repository) ([]byte, error) {
	if repos == nil {
		repos = []model.Repository{}
	}
	return json.Marshal(repoEntry{Repos: repos})
}

// DecodeRepositories requires the "repos" array to be present.
func DecodeRepositories(raw []byte) ([]model.Repository, error) {
	var entry struct {
		Repos *[]model.Repository `json:"repos"`
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("%w: repositories: %v", common.ErrCacheCorruption, err)
	}
	if entry.Repos == nil {
		return nil, fmt.Errorf("%w: repositories: missing repos field", common.ErrCacheCorruption)
	}
	return *entry.Repos, nil
}

// EncodeTimestamp stores t as epoch milliseconds.
func EncodeTimestamp(t time.Time) []byte {
	return []byte(strconv.FormatInt(t.UnixMilli(), 10))
}

func DecodeTimestamp(raw []byte) (time.Time, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q", common.ErrCacheCorruption, raw)
	}
	return time.UnixMilli(ms), nil
}

// Fresh reports whether an entry fetched at fetchedAt is still within ttl.
// A fetchedAt later than now is never fresh.
func Fresh(fetchedAt, now time.Time, ttl time.Duration) bool {
	return !fetchedAt.After(now) && now.Sub(fetchedAt) < ttl
}
