// Package snapshot converts the club document (data/data.json) to and from
// domain.State. Missing or malformed fields are resolved to their defaults here,
// once, so domain code never sees an absent value.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/baechuer/club-service/internal/domain"
)

// Top-level and record keys of the document. They are French because the rest
// of the club app reads the same file.
const (
	keyMembers  = "membres"
	keyCatalog  = "ludotheque"
	keyEvents   = "evenements"
	keySettings = "settings"

	keyLastGameID  = "lastGameId"
	keyLastEventID = "lastEvenementId"

	legacyActive     = "joueur"
	legacyWaitlisted = "reserve"

	defaultEventTime = "19:00"
)

// Decode parses a club document. An empty body or a JSON null yields an empty
// state.
func Decode(data []byte) (*domain.State, error) {
	st := domain.NewState()

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return st, nil
	}

	var top fields
	if err := json.Unmarshal(trimmed, &top); err != nil {
		return nil, fmt.Errorf("decode club document: %w", err)
	}

	members, err := records(top.take(keyMembers))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", keyMembers, err)
	}
	for _, f := range members {
		st.Members = append(st.Members, decodeMember(f))
	}

	games, err := records(top.take(keyCatalog))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", keyCatalog, err)
	}
	for _, f := range games {
		st.Catalog = append(st.Catalog, decodeItem(f))
	}

	events, err := records(top.take(keyEvents))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", keyEvents, err)
	}
	for _, f := range events {
		ev, err := decodeEvent(f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", keyEvents, err)
		}
		st.Events = append(st.Events, ev)
	}

	if raw := top.take(keySettings); !isNull(raw) {
		var s fields
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keySettings, err)
		}
		st.Settings.LastGameID = intOf(s.take(keyLastGameID))
		st.Settings.LastEventID = intOf(s.take(keyLastEventID))
		st.Settings.Extra = map[string]json.RawMessage(s)
	}

	st.Extra = map[string]json.RawMessage(top)
	return st, nil
}

// Encode writes the state back in the document shape Decode reads.
func Encode(st *domain.State) ([]byte, error) {
	top := fields{}
	for k, v := range st.Extra {
		top[k] = v
	}

	members := make([]fields, 0, len(st.Members))
	for _, m := range st.Members {
		members = append(members, encodeMember(m))
	}
	games := make([]fields, 0, len(st.Catalog))
	for _, it := range st.Catalog {
		games = append(games, encodeItem(it))
	}
	events := make([]fields, 0, len(st.Events))
	for _, ev := range st.Events {
		events = append(events, encodeEvent(ev))
	}

	settings := fields{}
	for k, v := range st.Settings.Extra {
		settings[k] = v
	}
	settings.put(keyLastGameID, st.Settings.LastGameID)
	settings.put(keyLastEventID, st.Settings.LastEventID)

	top.put(keyMembers, members)
	top.put(keyCatalog, games)
	top.put(keyEvents, events)
	top.put(keySettings, settings)

	out, err := json.MarshalIndent(top, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode club document: %w", err)
	}
	return out, nil
}

func decodeMember(f fields) domain.Member {
	return domain.Member{
		ID:        intOf(f.take("id")),
		FirstName: strOf(f.take("prenom")),
		LastName:  strOf(f.take("nom")),
		Extra:     f.rest(),
	}
}

func encodeMember(m domain.Member) fields {
	f := fields{}
	for k, v := range m.Extra {
		f[k] = v
	}
	f.put("id", m.ID)
	f.put("prenom", m.FirstName)
	f.put("nom", m.LastName)
	return f
}

func decodeItem(f fields) domain.Item {
	it := domain.Item{
		ID:              intOf(f.take("id")),
		Name:            strOf(f.take("nom")),
		Owner:           strOf(f.take("proprietaire")),
		MinPlayers:      int(intOf(f.take("min_joueurs"))),
		MaxPlayers:      int(intOf(f.take("max_joueurs"))),
		DurationMinutes: int(intOf(f.take("duree"))),
		MinAge:          int(intOf(f.take("age_min"))),
		IsAttachment:    boolOf(f.take("est_extension")),
		BaseItemID:      optIntOf(f.take("jeu_de_base")),
		BGGID:           intOf(f.take("bggId")),
		Description:     strOf(f.take("description")),
		Image:           strOf(f.take("image")),
		Thumbnail:       strOf(f.take("thumbnail")),
		YearPublished:   int(intOf(f.take("annee_publication"))),
		Categories:      stringsOf(f.take("categories")),
		Mechanics:       stringsOf(f.take("mecaniques")),
		Designers:       stringsOf(f.take("auteurs")),
		Publishers:      stringsOf(f.take("editeurs")),
		Rating:          optFloatOf(f.take("note")),
		AddedAt:         timeOf(f.take("date_ajout")),
	}
	if r := optIntOf(f.take("rang")); r != nil {
		v := int(*r)
		it.Rank = &v
	}
	it.Extra = f.rest()
	return it
}

func encodeItem(it domain.Item) fields {
	f := fields{}
	for k, v := range it.Extra {
		f[k] = v
	}
	f.put("id", it.ID)
	f.put("nom", it.Name)
	f.put("proprietaire", it.Owner)
	f.put("min_joueurs", it.MinPlayers)
	f.put("max_joueurs", it.MaxPlayers)
	f.put("duree", it.DurationMinutes)
	f.put("age_min", it.MinAge)
	f.put("est_extension", it.IsAttachment)
	f.put("jeu_de_base", it.BaseItemID)

	if it.BGGID != 0 {
		f.put("bggId", it.BGGID)
	}
	if it.Description != "" {
		f.put("description", it.Description)
	}
	if it.Image != "" {
		f.put("image", it.Image)
	}
	if it.Thumbnail != "" {
		f.put("thumbnail", it.Thumbnail)
	}
	if it.YearPublished != 0 {
		f.put("annee_publication", it.YearPublished)
	}
	if it.Categories != nil {
		f.put("categories", it.Categories)
	}
	if it.Mechanics != nil {
		f.put("mecaniques", it.Mechanics)
	}
	if it.Designers != nil {
		f.put("auteurs", it.Designers)
	}
	if it.Publishers != nil {
		f.put("editeurs", it.Publishers)
	}
	if it.Rating != nil {
		// the club app stores the rating as a two-decimal string
		f.put("note", strconv.FormatFloat(*it.Rating, 'f', 2, 64))
	}
	if it.Rank != nil {
		f.put("rang", *it.Rank)
	}
	if !it.AddedAt.IsZero() {
		f.put("date_ajout", it.AddedAt.UTC().Format(time.RFC3339Nano))
	}
	return f
}

func decodeEvent(f fields) (domain.Event, error) {
	ev := domain.Event{
		ID:          intOf(f.take("id")),
		Title:       strOf(f.take("titre")),
		Date:        strOf(f.take("date")),
		Time:        strOf(f.take("heure")),
		Description: strOf(f.take("description")),
		CreatorID:   intOf(f.take("createur_id")),
		CreatedAt:   timeOf(f.take("date_creation")),
	}
	if ev.Time == "" {
		ev.Time = defaultEventTime
	}
	if id := optIntOf(f.take("jeu_id")); id != nil && *id != 0 {
		ev.LinkedItemID = id
	}
	if c := optIntOf(f.take("max_participants")); c != nil {
		v := int(*c)
		ev.ExplicitCapacity = &v
	}

	parts, err := records(f.take("participants"))
	if err != nil {
		return domain.Event{}, fmt.Errorf("event %d participants: %w", ev.ID, err)
	}
	ev.Participants = make([]domain.Participant, 0, len(parts))
	for _, pf := range parts {
		ev.Participants = append(ev.Participants, decodeParticipant(pf))
	}

	ev.Extra = f.rest()
	return ev, nil
}

func encodeEvent(ev domain.Event) fields {
	f := fields{}
	for k, v := range ev.Extra {
		f[k] = v
	}
	f.put("id", ev.ID)
	f.put("titre", ev.Title)
	f.put("date", ev.Date)
	f.put("heure", ev.Time)
	f.put("description", ev.Description)
	f.put("jeu_id", ev.LinkedItemID)
	f.put("max_participants", ev.ExplicitCapacity)
	if ev.CreatorID != 0 {
		f.put("createur_id", ev.CreatorID)
	}
	if !ev.CreatedAt.IsZero() {
		f.put("date_creation", ev.CreatedAt.UTC().Format(time.RFC3339Nano))
	}

	parts := make([]fields, 0, len(ev.Participants))
	for _, p := range ev.Participants {
		parts = append(parts, encodeParticipant(p))
	}
	f.put("participants", parts)
	return f
}

func decodeParticipant(f fields) domain.Participant {
	p := domain.Participant{
		MemberID:     intOf(f.take("membre_id")),
		DisplayName:  strOf(f.take("nom")),
		Role:         roleOf(strOf(f.take("type"))),
		RegisteredAt: timeOf(f.take("date_inscription")),
		AutoPromoted: boolOf(f.take("promotion_auto")),
	}
	p.Extra = f.rest()
	return p
}

func encodeParticipant(p domain.Participant) fields {
	f := fields{}
	for k, v := range p.Extra {
		f[k] = v
	}
	f.put("membre_id", p.MemberID)
	f.put("nom", p.DisplayName)
	if p.Role == domain.RoleWaitlisted {
		f.put("type", legacyWaitlisted)
	} else {
		f.put("type", legacyActive)
	}
	f.put("date_inscription", p.RegisteredAt.UTC().Format(time.RFC3339Nano))
	if p.AutoPromoted {
		f.put("promotion_auto", true)
	}
	return f
}

// roleOf accepts both the stored and the canonical names. Unknown values are
// treated as active.
func roleOf(s string) domain.Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case legacyWaitlisted, string(domain.RoleWaitlisted):
		return domain.RoleWaitlisted
	default:
		return domain.RoleActive
	}
}
