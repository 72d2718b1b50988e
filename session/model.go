package session

import "time"

// Record is the server-side session state. The session ID is the
// opaque unguessable handle; the signed token wrapping it is minted at
// the engine layer and never stored here.
type Record struct {
	SessionID         string
	UserID            string
	Role              string
	IP                string
	DeviceFingerprint string
	Remember          bool

	CreatedAt    time.Time
	LastActivity time.Time
	FreshAuthAt  time.Time
}

// Clone returns a copy safe to hand to callers.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// wireRecord is the JSON shape persisted by the Redis registry. Times
// are unix seconds so the touch script can rewrite them with cjson.
type wireRecord struct {
	SessionID         string `json:"sid"`
	UserID            string `json:"uid"`
	Role              string `json:"role"`
	IP                string `json:"ip,omitempty"`
	DeviceFingerprint string `json:"dev,omitempty"`
	Remember          bool   `json:"rem,omitempty"`
	CreatedAt         int64  `json:"created_at"`
	LastActivity      int64  `json:"last_activity"`
	FreshAuthAt       int64  `json:"fresh_auth_at"`
}

func toWire(r *Record) wireRecord {
	return wireRecord{
		SessionID:         r.SessionID,
		UserID:            r.UserID,
		Role:              r.Role,
		IP:                r.IP,
		DeviceFingerprint: r.DeviceFingerprint,
		Remember:          r.Remember,
		CreatedAt:         r.CreatedAt.Unix(),
		LastActivity:      r.LastActivity.Unix(),
		FreshAuthAt:       r.FreshAuthAt.Unix(),
	}
}

func fromWire(w wireRecord) *Record {
	return &Record{
		SessionID:         w.SessionID,
		UserID:            w.UserID,
		Role:              w.Role,
		IP:                w.IP,
		DeviceFingerprint: w.DeviceFingerprint,
		Remember:          w.Remember,
		CreatedAt:         time.Unix(w.CreatedAt, 0).UTC(),
		LastActivity:      time.Unix(w.LastActivity, 0).UTC(),
		FreshAuthAt:       time.Unix(w.FreshAuthAt, 0).UTC(),
	}
}
