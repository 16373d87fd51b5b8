package mmr

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// MatchRecord is one match from a player's history as reported by OpenDota.
// Fields the engine does not know about are kept in Extra and written back
// unchanged by MarshalJSON. A null or absent party_size or lobby_type is
// omitted on output; other absent known fields are written as zero.
type MatchRecord struct {
	MatchID      int64
	StartTime    int64
	Duration     int64
	PlayerSlot   int
	RadiantWin   bool
	LeaverStatus int
	PartySize    *int
	LobbyType    *int
	HeroID       int
	GameMode     int
	Kills        int
	Deaths       int
	Assists      int

	// Rating is nil until Reconstruct assigns it.
	Rating *int

	Extra map[string]json.RawMessage
}

// IsRadiant reports whether the player was on the first team.
func (m MatchRecord) IsRadiant() bool {
	return m.PlayerSlot < 128
}

// IsSolo reports whether the player queued alone. OpenDota leaves party_size
// empty for old matches; those count as solo.
func (m MatchRecord) IsSolo() bool {
	return m.PartySize == nil || *m.PartySize <= 1
}

// IsWinner reports whether the match counts as a win. Any leave is a loss.
func (m MatchRecord) IsWinner() bool {
	return m.LeaverStatus <= 0 && m.IsRadiant() == m.RadiantWin
}

const ratingField = "mmr"

func (m *MatchRecord) UnmarshalJSON(data []byte) error {
	rec, err := decodeMatch(data)
	if err != nil {
		return err
	}
	*m = rec
	return nil
}

func (m MatchRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+16)
	for k, v := range m.Extra {
		out[k] = v
	}
	out["match_id"] = m.MatchID
	out["start_time"] = m.StartTime
	out["duration"] = m.Duration
	out["player_slot"] = m.PlayerSlot
	out["radiant_win"] = m.RadiantWin
	out["leaver_status"] = m.LeaverStatus
	if m.PartySize != nil {
		out["party_size"] = *m.PartySize
	}
	if m.LobbyType != nil {
		out["lobby_type"] = *m.LobbyType
	}
	out["hero_id"] = m.HeroID
	out["game_mode"] = m.GameMode
	out["kills"] = m.Kills
	out["deaths"] = m.Deaths
	out["assists"] = m.Assists
	if m.Rating != nil {
		out[ratingField] = *m.Rating
	}
	return json.Marshal(out)
}

// DecodeMatches parses an OpenDota match list. The first malformed record
// aborts decoding with a *ValidationError.
func DecodeMatches(data []byte) ([]MatchRecord, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &ValidationError{Index: -1, Field: "matches", Reason: fmt.Sprintf("not a JSON array: %v", err)}
	}

	matches := make([]MatchRecord, 0, len(raws))
	for i, raw := range raws {
		rec, err := decodeMatch(raw)
		if err != nil {
			if verr, ok := err.(*ValidationError); ok {
				verr.Index = i
			}
			return nil, err
		}
		matches = append(matches, rec)
	}
	return matches, nil
}

func decodeMatch(data []byte) (MatchRecord, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return MatchRecord{}, &ValidationError{Index: -1, Field: "match", Reason: fmt.Sprintf("not a JSON object: %v", err)}
	}

	var m MatchRecord
	d := fieldDecoder{fields: fields}

	d.required("match_id", &m.MatchID)
	d.required("start_time", &m.StartTime)
	d.required("player_slot", &m.PlayerSlot)
	d.required("radiant_win", &m.RadiantWin)

	d.optional("duration", &m.Duration)
	d.optional("leaver_status", &m.LeaverStatus)
	d.optional("hero_id", &m.HeroID)
	d.optional("game_mode", &m.GameMode)
	d.optional("kills", &m.Kills)
	d.optional("deaths", &m.Deaths)
	d.optional("assists", &m.Assists)

	m.PartySize = optionalPtr[int](&d, "party_size")
	m.LobbyType = optionalPtr[int](&d, "lobby_type")
	m.Rating = optionalPtr[int](&d, ratingField)

	if d.err != nil {
		d.err.MatchID = m.MatchID
		return MatchRecord{}, d.err
	}
	if len(fields) > 0 {
		m.Extra = fields
	}
	return m, nil
}

// fieldDecoder consumes known keys from fields, keeping the first failure.
type fieldDecoder struct {
	fields map[string]json.RawMessage
	err    *ValidationError
}

func (d *fieldDecoder) take(key string) (json.RawMessage, bool) {
	raw, ok := d.fields[key]
	if !ok {
		return nil, false
	}
	delete(d.fields, key)
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func (d *fieldDecoder) fail(key, reason string) {
	if d.err == nil {
		d.err = &ValidationError{Index: -1, Field: key, Reason: reason}
	}
}

func (d *fieldDecoder) required(key string, dst any) {
	raw, ok := d.take(key)
	if !ok {
		d.fail(key, "missing required field")
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		d.fail(key, fmt.Sprintf("invalid value %s", raw))
	}
}

func (d *fieldDecoder) optional(key string, dst any) {
	raw, ok := d.take(key)
	if !ok {
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		d.fail(key, fmt.Sprintf("invalid value %s", raw))
	}
}

func optionalPtr[T any](d *fieldDecoder, key string) *T {
	raw, ok := d.take(key)
	if !ok {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		d.fail(key, fmt.Sprintf("invalid value %s", raw))
		return nil
	}
	return &v
}
