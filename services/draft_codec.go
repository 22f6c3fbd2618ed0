package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/speechteam/tournament-signup/models"
)

// DefaultDraftTTL bounds how long a serialized draft may ride between
// confirmation stages before the user must start over.
const DefaultDraftTTL = 30 * time.Minute

// DraftCodec round-trips a signup draft through the client as an opaque
// signed payload: base64url(JSON envelope) + "." + hex(HMAC-SHA256). The
// signature stops tampering between Review and Commit; the issued-at stamp
// expires abandoned drafts. There is no server-side session state.
type DraftCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

type draftEnvelope struct {
	Draft    models.SignupDraft `json:"draft"`
	ActorID  int                `json:"actor_id"`
	IssuedAt time.Time          `json:"issued_at"`
}

func NewDraftCodec(key string, ttl time.Duration) *DraftCodec {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &DraftCodec{key: []byte(key), ttl: ttl, now: time.Now}
}

// Encode serializes and signs the draft for the given actor.
func (c *DraftCodec) Encode(actorID int, draft *models.SignupDraft) (string, error) {
	envelope := draftEnvelope{
		Draft:    *draft,
		ActorID:  actorID,
		IssuedAt: c.now(),
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("encode draft payload: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(body)
	return encoded + "." + c.sign(body), nil
}

// Decode verifies signature, ownership and freshness, returning the draft.
// Any failure means "start over": the workflow never repairs a payload.
func (c *DraftCodec) Decode(actorID int, payload string) (*models.SignupDraft, error) {
	if payload == "" {
		return nil, ErrDraftPayloadInvalid
	}
	encoded, signature, ok := strings.Cut(payload, ".")
	if !ok {
		return nil, ErrDraftPayloadInvalid
	}
	body, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrDraftPayloadInvalid
	}
	if !hmac.Equal([]byte(c.sign(body)), []byte(signature)) {
		return nil, ErrDraftPayloadInvalid
	}

	var envelope draftEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, ErrDraftPayloadInvalid
	}
	if envelope.ActorID != actorID {
		return nil, ErrDraftPayloadInvalid
	}
	if c.now().Sub(envelope.IssuedAt) > c.ttl {
		return nil, ErrDraftPayloadExpired
	}
	return &envelope.Draft, nil
}

func (c *DraftCodec) sign(body []byte) string {
	mac := hmac.New(sha256.New, c.key)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
