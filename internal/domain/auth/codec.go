package auth

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/target/crud-console/internal/validation"
)

// ExpirationLayout is the stored form of Info.TokenExpiration: ISO-8601 in
// UTC with millisecond precision.
const ExpirationLayout = "2006-01-02T15:04:05.000Z07:00"

type storedInfo struct {
	UserName        string   `json:"userName"`
	Roles           []string `json:"roles"`
	TokenExpiration string   `json:"tokenExpiration"`
}

// MarshalInfo encodes session metadata for persistence.
func MarshalInfo(info Info) ([]byte, error) {
	roles := info.Roles
	if roles == nil {
		roles = []string{}
	}
	return json.Marshal(storedInfo{
		UserName:        info.UserName,
		Roles:           roles,
		TokenExpiration: info.TokenExpiration.UTC().Format(ExpirationLayout),
	})
}

// UnmarshalInfo decodes session metadata written by MarshalInfo. Any
// ISO-8601 expiration accepted by validation.ParseDate is read back.
func UnmarshalInfo(data []byte) (Info, error) {
	var stored storedInfo
	if err := json.Unmarshal(data, &stored); err != nil {
		return Info{}, fmt.Errorf("decode session metadata: %w", err)
	}
	exp, ok := validation.ParseDate(stored.TokenExpiration)
	if !ok {
		return Info{}, fmt.Errorf("decode session metadata: bad tokenExpiration %q", stored.TokenExpiration)
	}
	roles := stored.Roles
	if roles == nil {
		roles = []string{}
	}
	return Info{
		UserName:        stored.UserName,
		Roles:           roles,
		TokenExpiration: exp.UTC().Truncate(time.Millisecond),
	}, nil
}
